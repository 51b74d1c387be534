package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const timetableRunColumns = `id, status, request_hash, request, schedule, error_message, entry_count, unscheduled_count, duration_ms, created_at`

// TimetableRunFilter narrows run history listings.
type TimetableRunFilter struct {
	Status models.TimetableRunStatus
	Limit  int
	Offset int
}

// TimetableRunRepository persists scheduling runs for audit and export.
type TimetableRunRepository struct {
	db *sqlx.DB
}

// NewTimetableRunRepository constructs repository.
func NewTimetableRunRepository(db *sqlx.DB) *TimetableRunRepository {
	return &TimetableRunRepository{db: db}
}

// Create inserts a run, assigning an id and timestamp when missing.
func (r *TimetableRunRepository) Create(ctx context.Context, run *models.TimetableRun) error {
	if run == nil {
		return fmt.Errorf("timetable run payload is nil")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if len(run.Request) == 0 {
		run.Request = types.JSONText(`{}`)
	}
	if len(run.Schedule) == 0 {
		run.Schedule = types.JSONText(`[]`)
	}

	const query = `
INSERT INTO timetable_runs (` + timetableRunColumns + `)
VALUES (:id, :status, :request_hash, :request, :schedule, :error_message, :entry_count, :unscheduled_count, :duration_ms, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("insert timetable run: %w", err)
	}
	return nil
}

// FindByID loads a run by its identifier.
func (r *TimetableRunRepository) FindByID(ctx context.Context, id string) (*models.TimetableRun, error) {
	query := `SELECT ` + timetableRunColumns + ` FROM timetable_runs WHERE id = $1`
	var run models.TimetableRun
	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		return nil, err
	}
	return &run, nil
}

// List returns runs newest first together with the unpaginated total.
func (r *TimetableRunRepository) List(ctx context.Context, filter TimetableRunFilter) ([]models.TimetableRun, int, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM timetable_runs`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count timetable runs: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM timetable_runs%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		timetableRunColumns, where, len(args)-1, len(args))

	var runs []models.TimetableRun
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list timetable runs: %w", err)
	}
	return runs, total, nil
}
