package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TimetableRunStatus captures the outcome of a scheduling run.
type TimetableRunStatus string

const (
	TimetableRunStatusSucceeded TimetableRunStatus = "SUCCEEDED"
	TimetableRunStatusFailed    TimetableRunStatus = "FAILED"
)

// TimetableRun is the persisted record of one scheduling request and its outcome.
type TimetableRun struct {
	ID               string             `db:"id" json:"id"`
	Status           TimetableRunStatus `db:"status" json:"status"`
	RequestHash      string             `db:"request_hash" json:"request_hash"`
	Request          types.JSONText     `db:"request" json:"request"`
	Schedule         types.JSONText     `db:"schedule" json:"schedule"`
	ErrorMessage     *string            `db:"error_message" json:"error_message,omitempty"`
	EntryCount       int                `db:"entry_count" json:"entry_count"`
	UnscheduledCount int                `db:"unscheduled_count" json:"unscheduled_count"`
	DurationMS       int64              `db:"duration_ms" json:"duration_ms"`
	CreatedAt        time.Time          `db:"created_at" json:"created_at"`
}

// Entries decodes the stored schedule.
func (r *TimetableRun) Entries() ([]TimetableEntry, error) {
	var entries []TimetableEntry
	if len(r.Schedule) == 0 {
		return entries, nil
	}
	if err := r.Schedule.Unmarshal(&entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ExportFormat enumerates supported timetable export encodings.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)
