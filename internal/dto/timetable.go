package dto

import (
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
)

// GenerateTimetableRequest carries every roster needed for one scheduling run.
type GenerateTimetableRequest struct {
	Teachers []models.Teacher        `json:"teachers" yaml:"teachers" validate:"dive"`
	Subjects []models.Subject        `json:"subjects" yaml:"subjects" validate:"dive"`
	Classes  []models.ClassInfo      `json:"classes" yaml:"classes" validate:"dive"`
	Rooms    []models.Room           `json:"rooms" yaml:"rooms" validate:"dive"`
	Reserved []models.TimetableEntry `json:"reserved,omitempty" yaml:"reserved,omitempty"`
	Strict   bool                    `json:"strict,omitempty" yaml:"strict,omitempty"`
}

// TimetableResponse is the single outcome of a run. Success carries the full
// schedule; failure carries the message and the unplaced sessions.
type TimetableResponse struct {
	Success     bool                    `json:"success"`
	Schedule    []models.TimetableEntry `json:"schedule"`
	Error       string                  `json:"error,omitempty"`
	Unscheduled []scheduler.Unscheduled `json:"unscheduled,omitempty"`
	Warnings    []string                `json:"warnings,omitempty"`
	RunID       string                  `json:"runId,omitempty"`
	Cached      bool                    `json:"cached,omitempty"`
}

// TimetableScenario is one named variant inside a comparison request.
type TimetableScenario struct {
	Name    string                   `json:"name" validate:"required"`
	Request GenerateTimetableRequest `json:"request"`
}

// CompareTimetablesRequest runs independent scenarios side by side.
type CompareTimetablesRequest struct {
	Scenarios []TimetableScenario `json:"scenarios" validate:"required,min=1,dive"`
}

// TimetableScenarioResult summarises a single compared scenario.
type TimetableScenarioResult struct {
	Name             string             `json:"name"`
	EntryCount       int                `json:"entryCount"`
	UnscheduledCount int                `json:"unscheduledCount"`
	Result           *TimetableResponse `json:"result"`
}

// CompareTimetablesResponse lists scenario results in request order.
type CompareTimetablesResponse struct {
	Scenarios []TimetableScenarioResult `json:"scenarios"`
}

// TimetableRunQuery filters run history listings.
type TimetableRunQuery struct {
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// TimetableExport carries a rendered export file.
type TimetableExport struct {
	Filename    string
	ContentType string
	Content     []byte
}
