package models

// Teacher is a staff member identified by name, qualified for a set of
// subjects and available on a set of weekdays.
type Teacher struct {
	Name          string   `json:"name" yaml:"name" validate:"required"`
	Subjects      []string `json:"subjects" yaml:"subjects" validate:"omitempty,dive,required"`
	AvailableDays []string `json:"availableDays" yaml:"availableDays" validate:"omitempty,dive,required"`
}

// Teaches reports whether the teacher lists subject among their qualifications.
func (t Teacher) Teaches(subject string) bool {
	for _, name := range t.Subjects {
		if name == subject {
			return true
		}
	}
	return false
}
