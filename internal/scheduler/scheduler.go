package scheduler

import (
	"fmt"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// Input carries the rosters for one run. Reserved entries are commitments
// that already hold a teacher, room or class and are never returned.
type Input struct {
	Teachers []models.Teacher
	Subjects []models.Subject
	Classes  []models.ClassInfo
	Rooms    []models.Room
	Reserved []models.TimetableEntry
}

// Options tunes run behaviour.
type Options struct {
	// StrictSubjects rejects classes that require subjects missing from the
	// catalog instead of dropping those requirements with a warning.
	StrictSubjects bool
}

// Result is a complete timetable. Entries are in session processing order.
type Result struct {
	Entries  []models.TimetableEntry
	Warnings []string
}

// Schedule places every required session or fails with *SchedulingError
// listing all sessions that could not be placed. It never returns a partial
// timetable. Rosters that cannot yield a well-formed timetable, such as two
// rooms sharing a name, fail with *ValidationError before placement.
func Schedule(in Input, opts Options) (*Result, error) {
	problems := duplicateRoomNames(in.Rooms)
	sessions, warnings := ExpandSessions(in.Subjects, in.Classes)
	if opts.StrictSubjects {
		problems = append(problems, warnings...)
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	p := newPlacer(in.Teachers, in.Rooms)
	p.reserve(in.Reserved)

	entries := make([]models.TimetableEntry, 0, len(sessions))
	var unscheduled []Unscheduled
	for _, session := range sessions {
		entry, reason, ok := p.place(session)
		if !ok {
			unscheduled = append(unscheduled, Unscheduled{
				ClassName:   session.ClassName,
				SubjectName: session.SubjectName,
				Reason:      reason,
			})
			continue
		}
		entries = append(entries, entry)
	}

	warnings = append(warnings, p.warnings...)
	if len(unscheduled) > 0 {
		return nil, &SchedulingError{Unscheduled: unscheduled, Warnings: warnings}
	}
	return &Result{Entries: entries, Warnings: warnings}, nil
}

// duplicateRoomNames reports room names used more than once. Entries only
// carry the room name, so a shared name would let two sessions appear to
// book the same room in one slot.
func duplicateRoomNames(rooms []models.Room) []string {
	seen := make(map[string]int, len(rooms))
	var problems []string
	for _, room := range rooms {
		seen[room.Name]++
		if seen[room.Name] == 2 {
			problems = append(problems, fmt.Sprintf("room name %q is used by more than one room", room.Name))
		}
	}
	return problems
}
