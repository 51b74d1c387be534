package scheduler

import (
	"fmt"
	"sort"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// Session is one required weekly hour of a class attending a subject.
type Session struct {
	ClassName    string
	SubjectName  string
	StudentCount int
	HoursPerWeek int
}

// ExpandSessions turns every (class, required subject) pair into HoursPerWeek
// sessions, ordered by descending weekly hours. Ties keep class then subject
// enumeration order. Subject names missing from the catalog produce no
// sessions and are reported in the returned warnings instead.
func ExpandSessions(subjects []models.Subject, classes []models.ClassInfo) ([]Session, []string) {
	catalog := make(map[string]models.Subject, len(subjects))
	for _, subject := range subjects {
		if _, exists := catalog[subject.Name]; exists {
			continue
		}
		catalog[subject.Name] = subject
	}

	var (
		sessions []Session
		warnings []string
	)
	for _, class := range classes {
		for _, name := range class.Subjects {
			subject, ok := catalog[name]
			if !ok {
				warnings = append(warnings, fmt.Sprintf("class %q requires unknown subject %q", class.Name, name))
				continue
			}
			for i := 0; i < subject.HoursPerWeek; i++ {
				sessions = append(sessions, Session{
					ClassName:    class.Name,
					SubjectName:  subject.Name,
					StudentCount: class.StudentCount,
					HoursPerWeek: subject.HoursPerWeek,
				})
			}
		}
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].HoursPerWeek > sessions[j].HoursPerWeek
	})
	return sessions, warnings
}
