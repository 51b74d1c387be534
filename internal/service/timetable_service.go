package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
)

const (
	scheduleJobType = "timetable.generate"

	// UnexpectedFailureMessage is reported when a run dies from a defect
	// rather than from unplaceable input.
	UnexpectedFailureMessage = "unexpected scheduler failure"

	defaultRunPageSize = 20
	maxRunPageSize     = 100
)

type scheduleRunner interface {
	Call(ctx context.Context, job jobs.Job) (interface{}, error)
}

// TimetableRunStore persists run history.
type TimetableRunStore interface {
	Create(ctx context.Context, run *models.TimetableRun) error
	FindByID(ctx context.Context, id string) (*models.TimetableRun, error)
	List(ctx context.Context, filter repository.TimetableRunFilter) ([]models.TimetableRun, int, error)
}

type timetableExporter interface {
	Render(runID string, entries []models.TimetableEntry, format models.ExportFormat) (*dto.TimetableExport, error)
}

// TimetableServiceConfig tunes run behaviour.
type TimetableServiceConfig struct {
	RunTimeout     time.Duration
	CacheTTL       time.Duration
	StrictSubjects bool
	MaxScenarios   int
}

// TimetableService is the invocation boundary around the scheduler: each
// request becomes one isolated run on the worker pool and yields exactly one
// response.
type TimetableService struct {
	runner    scheduleRunner
	runs      TimetableRunStore
	cache     *CacheService
	metrics   *MetricsService
	exporter  timetableExporter
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TimetableServiceConfig
}

type scheduleJobPayload struct {
	input   scheduler.Input
	options scheduler.Options
}

// RunScheduleJob is the worker pool handler executing one scheduling run.
func RunScheduleJob(ctx context.Context, job jobs.Job) (interface{}, error) {
	payload, ok := job.Payload.(scheduleJobPayload)
	if !ok {
		return nil, fmt.Errorf("unexpected schedule job payload %T", job.Payload)
	}
	return scheduler.Schedule(payload.input, payload.options)
}

// NewTimetableService wires a TimetableService. runs may be nil when run
// history is disabled.
func NewTimetableService(runner scheduleRunner, runs TimetableRunStore, cache *CacheService, metrics *MetricsService, exporter timetableExporter, validate *validator.Validate, logger *zap.Logger, cfg TimetableServiceConfig) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if exporter == nil {
		exporter = NewExportService(nil, nil)
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 30 * time.Second
	}
	if cfg.MaxScenarios <= 0 {
		cfg.MaxScenarios = 8
	}
	return &TimetableService{
		runner:    runner,
		runs:      runs,
		cache:     cache,
		metrics:   metrics,
		exporter:  exporter,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Generate runs the scheduler for one request. Unplaceable input is reported
// in the response with Success false; Go errors are reserved for malformed
// payloads, an unavailable worker pool and cancellation.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.TimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable payload")
	}

	canonical, err := json.Marshal(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode timetable request")
	}
	digest := sha256.Sum256(canonical)
	requestHash := hex.EncodeToString(digest[:])

	if cached, hit := s.cache.LoadTimetable(ctx, requestHash); hit {
		s.logger.Debug("timetable served from cache", zap.String("request_hash", requestHash), zap.String("run_id", cached.RunID))
		return cached, nil
	}

	runID := uuid.NewString()
	job := jobs.Job{
		ID:   runID,
		Type: scheduleJobType,
		Payload: scheduleJobPayload{
			input:   buildInput(req),
			options: scheduler.Options{StrictSubjects: req.Strict || s.cfg.StrictSubjects},
		},
	}

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()
	start := time.Now()
	value, runErr := s.runner.Call(runCtx, job)
	duration := time.Since(start)

	resp, deterministic, err := s.translate(ctx, value, runErr)
	if err != nil {
		logger.FromContext(ctx, s.logger).Warn("timetable run rejected", zap.String("run_id", runID), zap.Error(err))
		return nil, err
	}
	resp.RunID = runID

	s.record(ctx, runID, resp, duration)
	s.persist(ctx, runID, requestHash, canonical, resp, duration)
	if deterministic {
		s.cache.StoreTimetable(ctx, requestHash, resp, s.cfg.CacheTTL)
	}
	return resp, nil
}

// translate maps a worker outcome to the response contract. deterministic
// reports whether the same input would always produce this response.
func (s *TimetableService) translate(ctx context.Context, value interface{}, runErr error) (*dto.TimetableResponse, bool, error) {
	if runErr == nil {
		result, ok := value.(*scheduler.Result)
		if !ok || result == nil {
			s.logger.Error("scheduler returned unexpected value", zap.String("type", fmt.Sprintf("%T", value)))
			return &dto.TimetableResponse{Success: false, Error: UnexpectedFailureMessage}, false, nil
		}
		schedule := result.Entries
		if schedule == nil {
			schedule = []models.TimetableEntry{}
		}
		return &dto.TimetableResponse{Success: true, Schedule: schedule, Warnings: result.Warnings}, true, nil
	}

	var (
		schedulingErr *scheduler.SchedulingError
		validationErr *scheduler.ValidationError
		panicErr      *jobs.PanicError
	)
	switch {
	case errors.As(runErr, &schedulingErr):
		return &dto.TimetableResponse{
			Success:     false,
			Error:       schedulingErr.Error(),
			Unscheduled: schedulingErr.Unscheduled,
			Warnings:    schedulingErr.Warnings,
		}, true, nil
	case errors.As(runErr, &validationErr):
		return nil, false, appErrors.Wrap(runErr, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validationErr.Error())
	case errors.As(runErr, &panicErr):
		s.logger.Error("timetable run panicked", zap.String("run_id", panicErr.JobID), zap.Any("panic", panicErr.Value))
		return &dto.TimetableResponse{Success: false, Error: UnexpectedFailureMessage}, false, nil
	case errors.Is(runErr, jobs.ErrQueueStopped):
		return nil, false, appErrors.Wrap(runErr, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "scheduler pool unavailable")
	case ctx.Err() != nil:
		return nil, false, ctx.Err()
	case errors.Is(runErr, context.DeadlineExceeded):
		return nil, false, appErrors.Wrap(runErr, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "timetable generation timed out")
	default:
		s.logger.Error("timetable run failed", zap.Error(runErr))
		return &dto.TimetableResponse{Success: false, Error: UnexpectedFailureMessage}, false, nil
	}
}

func (s *TimetableService) record(ctx context.Context, runID string, resp *dto.TimetableResponse, duration time.Duration) {
	log := logger.FromContext(ctx, s.logger)
	switch {
	case resp.Success:
		s.metrics.ObserveScheduleRun(RunOutcomeSuccess, duration, len(resp.Schedule), nil)
		log.Info("timetable generated",
			zap.String("run_id", runID),
			zap.Int("entries", len(resp.Schedule)),
			zap.Int("warnings", len(resp.Warnings)),
			zap.Duration("duration", duration))
	case len(resp.Unscheduled) > 0:
		reasons := make(map[string]int)
		for _, item := range resp.Unscheduled {
			reasons[string(item.Reason)]++
		}
		s.metrics.ObserveScheduleRun(RunOutcomeUnschedulable, duration, 0, reasons)
		log.Info("timetable unschedulable",
			zap.String("run_id", runID),
			zap.Int("unscheduled", len(resp.Unscheduled)),
			zap.Duration("duration", duration))
	default:
		s.metrics.ObserveScheduleRun(RunOutcomeFailure, duration, 0, nil)
	}
}

func (s *TimetableService) persist(ctx context.Context, runID, requestHash string, request []byte, resp *dto.TimetableResponse, duration time.Duration) {
	if s.runs == nil {
		return
	}
	run := &models.TimetableRun{
		ID:               runID,
		Status:           models.TimetableRunStatusSucceeded,
		RequestHash:      requestHash,
		Request:          request,
		EntryCount:       len(resp.Schedule),
		UnscheduledCount: len(resp.Unscheduled),
		DurationMS:       duration.Milliseconds(),
	}
	if resp.Success {
		schedule, err := json.Marshal(resp.Schedule)
		if err != nil {
			s.logger.Warn("encode timetable for history failed", zap.String("run_id", runID), zap.Error(err))
			return
		}
		run.Schedule = schedule
	} else {
		message := resp.Error
		run.Status = models.TimetableRunStatusFailed
		run.ErrorMessage = &message
	}
	start := time.Now()
	err := s.runs.Create(ctx, run)
	s.metrics.ObserveDBQuery("timetable_run_create", time.Since(start))
	if err != nil {
		s.logger.Warn("persist timetable run failed", zap.String("run_id", runID), zap.Error(err))
	}
}

// Compare runs independent scenarios concurrently. Results keep request order.
func (s *TimetableService) Compare(ctx context.Context, req dto.CompareTimetablesRequest) (*dto.CompareTimetablesResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comparison payload")
	}
	if len(req.Scenarios) > s.cfg.MaxScenarios {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d scenarios can be compared", s.cfg.MaxScenarios))
	}

	results := make([]dto.TimetableScenarioResult, len(req.Scenarios))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, scenario := range req.Scenarios {
		group.Go(func() error {
			resp, err := s.Generate(groupCtx, scenario.Request)
			if err != nil {
				return fmt.Errorf("scenario %q: %w", scenario.Name, err)
			}
			results[i] = dto.TimetableScenarioResult{
				Name:             scenario.Name,
				EntryCount:       len(resp.Schedule),
				UnscheduledCount: len(resp.Unscheduled),
				Result:           resp,
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return &dto.CompareTimetablesResponse{Scenarios: results}, nil
}

// GetRun loads a stored run.
func (s *TimetableService) GetRun(ctx context.Context, id string) (*models.TimetableRun, error) {
	if s.runs == nil {
		return nil, appErrors.Clone(appErrors.ErrServiceUnavailable, "run history is disabled")
	}
	start := time.Now()
	run, err := s.runs.FindByID(ctx, id)
	s.metrics.ObserveDBQuery("timetable_run_find", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable run not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable run")
	}
	return run, nil
}

// ListRuns returns run history newest first.
func (s *TimetableService) ListRuns(ctx context.Context, query dto.TimetableRunQuery) ([]models.TimetableRun, *models.Pagination, error) {
	if s.runs == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrServiceUnavailable, "run history is disabled")
	}
	status := models.TimetableRunStatus(strings.ToUpper(strings.TrimSpace(query.Status)))
	switch status {
	case "", models.TimetableRunStatusSucceeded, models.TimetableRunStatusFailed:
	default:
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown run status %q", query.Status))
	}
	page := query.Page
	if page <= 0 {
		page = 1
	}
	size := query.PageSize
	if size <= 0 {
		size = defaultRunPageSize
	}
	if size > maxRunPageSize {
		size = maxRunPageSize
	}

	start := time.Now()
	runs, total, err := s.runs.List(ctx, repository.TimetableRunFilter{Status: status, Limit: size, Offset: (page - 1) * size})
	s.metrics.ObserveDBQuery("timetable_run_list", time.Since(start))
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable runs")
	}
	return runs, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// ExportRun renders a successful run as CSV or PDF.
func (s *TimetableService) ExportRun(ctx context.Context, id, format string) (*dto.TimetableExport, error) {
	run, err := s.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.Status != models.TimetableRunStatusSucceeded {
		return nil, appErrors.Clone(appErrors.ErrConflict, "only successful runs can be exported")
	}
	entries, err := run.Entries()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored timetable is corrupt")
	}
	if format == "" {
		format = string(models.ExportFormatCSV)
	}
	return s.exporter.Render(run.ID, entries, models.ExportFormat(strings.ToLower(format)))
}

// buildInput copies the request into scheduler input, giving every room
// without an id a generated one.
func buildInput(req dto.GenerateTimetableRequest) scheduler.Input {
	rooms := make([]models.Room, len(req.Rooms))
	copy(rooms, req.Rooms)
	for i := range rooms {
		if rooms[i].ID == "" {
			rooms[i].ID = uuid.NewString()
		}
	}
	return scheduler.Input{
		Teachers: req.Teachers,
		Subjects: req.Subjects,
		Classes:  req.Classes,
		Rooms:    rooms,
		Reserved: req.Reserved,
	}
}
