package models

// TimetableEntry binds one session to a weekly slot, a teacher and a room.
type TimetableEntry struct {
	Day         string `json:"day" yaml:"day"`
	TimeSlot    string `json:"timeSlot" yaml:"timeSlot"`
	ClassName   string `json:"className" yaml:"className"`
	SubjectName string `json:"subjectName" yaml:"subjectName"`
	TeacherName string `json:"teacherName" yaml:"teacherName"`
	RoomName    string `json:"roomName" yaml:"roomName"`
}
