package scheduler

import (
	"fmt"
	"strings"
)

const maxListedUnscheduled = 5

// Unscheduled describes a session the placer could not bind.
type Unscheduled struct {
	ClassName   string `json:"className"`
	SubjectName string `json:"subjectName"`
	Reason      Reason `json:"reason"`
}

// String renders the descriptor "{class} - {subject}", suffixed with the
// reason when the session failed before any slot was searched.
func (u Unscheduled) String() string {
	descriptor := fmt.Sprintf("%s - %s", u.ClassName, u.SubjectName)
	switch u.Reason {
	case ReasonNoTeacher, ReasonNoRoom:
		return fmt.Sprintf("%s (%s)", descriptor, u.Reason)
	}
	return descriptor
}

// SchedulingError reports every session left unplaced by a run.
type SchedulingError struct {
	Unscheduled []Unscheduled
	Warnings    []string
}

// Error lists up to five descriptors followed by an ellipsis when more remain.
func (e *SchedulingError) Error() string {
	descriptors := e.Descriptors()
	listed := descriptors
	suffix := ""
	if len(listed) > maxListedUnscheduled {
		listed = listed[:maxListedUnscheduled]
		suffix = "..."
	}
	return fmt.Sprintf(
		"could not schedule %d session(s): %s%s; check teacher qualifications, availability and room capacity",
		len(descriptors), strings.Join(listed, ", "), suffix,
	)
}

// Descriptors returns the rendered descriptor of every unscheduled session.
func (e *SchedulingError) Descriptors() []string {
	result := make([]string, len(e.Unscheduled))
	for i, item := range e.Unscheduled {
		result[i] = item.String()
	}
	return result
}

// ValidationError rejects a request before placement starts.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid timetable input: " + strings.Join(e.Problems, "; ")
}
