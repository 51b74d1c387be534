package scheduler

import (
	"fmt"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// Reason explains why a session could not be placed.
type Reason string

const (
	ReasonNoTeacher Reason = "no teacher"
	ReasonNoRoom    Reason = "no room"
	ReasonExhausted Reason = "exhausted"
)

type placer struct {
	teachers    []models.Teacher
	teacherDays []map[string]bool
	rooms       []models.Room
	roomKeys    map[string]string
	tracker     *Tracker
	qualified   map[string][]int
	warnings    []string
}

func newPlacer(teachers []models.Teacher, rooms []models.Room) *placer {
	p := &placer{
		teachers:    teachers,
		teacherDays: make([]map[string]bool, len(teachers)),
		rooms:       rooms,
		roomKeys:    make(map[string]string, len(rooms)),
		tracker:     NewTracker(),
		qualified:   make(map[string][]int),
	}
	for i, teacher := range teachers {
		days := make(map[string]bool, len(teacher.AvailableDays))
		for _, raw := range teacher.AvailableDays {
			day, ok := CanonicalDay(raw)
			if !ok {
				p.warnings = append(p.warnings, fmt.Sprintf("teacher %q lists unknown weekday %q", teacher.Name, raw))
				continue
			}
			days[day] = true
		}
		p.teacherDays[i] = days
	}
	for _, room := range rooms {
		if _, exists := p.roomKeys[room.Name]; !exists {
			p.roomKeys[room.Name] = room.Key()
		}
	}
	return p
}

// reserve seeds pre-existing commitments. Entries outside the weekly grid are ignored.
func (p *placer) reserve(entries []models.TimetableEntry) {
	for _, entry := range entries {
		day, ok := CanonicalDay(entry.Day)
		if !ok || SlotIndex(entry.TimeSlot) < 0 {
			p.warnings = append(p.warnings, fmt.Sprintf("reserved entry %s %s for %q is outside the weekly grid", entry.Day, entry.TimeSlot, entry.ClassName))
			continue
		}
		roomKey := entry.RoomName
		if key, ok := p.roomKeys[entry.RoomName]; ok {
			roomKey = key
		}
		p.tracker.Commit(entry.TeacherName, roomKey, entry.ClassName, day, entry.TimeSlot)
	}
}

func (p *placer) eligibleTeachers(subject string) []int {
	if cached, ok := p.qualified[subject]; ok {
		return cached
	}
	var result []int
	for i, teacher := range p.teachers {
		if teacher.Teaches(subject) {
			result = append(result, i)
		}
	}
	p.qualified[subject] = result
	return result
}

func (p *placer) eligibleRooms(students int) []int {
	var result []int
	for i, room := range p.rooms {
		if room.Capacity >= students {
			result = append(result, i)
		}
	}
	return result
}

func (p *placer) freeTeacher(candidates []int, day, slot string) (models.Teacher, bool) {
	for _, idx := range candidates {
		if !p.teacherDays[idx][day] {
			continue
		}
		teacher := p.teachers[idx]
		if p.tracker.TeacherFree(teacher.Name, day, slot) {
			return teacher, true
		}
	}
	return models.Teacher{}, false
}

func (p *placer) freeRoom(candidates []int, day, slot string) (models.Room, bool) {
	for _, idx := range candidates {
		room := p.rooms[idx]
		if p.tracker.RoomFree(room.Key(), day, slot) {
			return room, true
		}
	}
	return models.Room{}, false
}

// place binds session to the first (day, slot) where the class, a qualified
// available teacher and a large enough room are all free.
func (p *placer) place(session Session) (models.TimetableEntry, Reason, bool) {
	teachers := p.eligibleTeachers(session.SubjectName)
	if len(teachers) == 0 {
		return models.TimetableEntry{}, ReasonNoTeacher, false
	}
	rooms := p.eligibleRooms(session.StudentCount)
	if len(rooms) == 0 {
		return models.TimetableEntry{}, ReasonNoRoom, false
	}

	for _, day := range Days {
		for _, slot := range TimeSlots {
			if !p.tracker.ClassFree(session.ClassName, day, slot) {
				continue
			}
			teacher, ok := p.freeTeacher(teachers, day, slot)
			if !ok {
				continue
			}
			room, ok := p.freeRoom(rooms, day, slot)
			if !ok {
				continue
			}
			p.tracker.Commit(teacher.Name, room.Key(), session.ClassName, day, slot)
			return models.TimetableEntry{
				Day:         day,
				TimeSlot:    slot,
				ClassName:   session.ClassName,
				SubjectName: session.SubjectName,
				TeacherName: teacher.Name,
				RoomName:    room.Name,
			}, "", true
		}
	}
	return models.TimetableEntry{}, ReasonExhausted, false
}
