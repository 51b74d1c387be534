package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
)

type runStoreStub struct {
	mu      sync.Mutex
	created []models.TimetableRun
	byID    map[string]*models.TimetableRun
	filter  repository.TimetableRunFilter
}

func newRunStoreStub() *runStoreStub {
	return &runStoreStub{byID: make(map[string]*models.TimetableRun)}
}

func (s *runStoreStub) Create(ctx context.Context, run *models.TimetableRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, *run)
	s.byID[run.ID] = run
	return nil
}

func (s *runStoreStub) FindByID(ctx context.Context, id string) (*models.TimetableRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return run, nil
}

func (s *runStoreStub) List(ctx context.Context, filter repository.TimetableRunFilter) ([]models.TimetableRun, int, error) {
	s.filter = filter
	return s.created, len(s.created), nil
}

type memoryCacheRepo struct {
	mu     sync.Mutex
	values map[string][]byte
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	return nil
}

type runnerFunc func(ctx context.Context, job jobs.Job) (interface{}, error)

func (f runnerFunc) Call(ctx context.Context, job jobs.Job) (interface{}, error) {
	return f(ctx, job)
}

func startScheduleQueue(t *testing.T) *jobs.Queue {
	t.Helper()
	queue := jobs.NewQueue("timetable-test", RunScheduleJob, jobs.QueueConfig{Workers: 2})
	queue.Start(context.Background())
	t.Cleanup(queue.Stop)
	return queue
}

func basicRequest() dto.GenerateTimetableRequest {
	return dto.GenerateTimetableRequest{
		Teachers: []models.Teacher{{Name: "Alice", Subjects: []string{"Math"}, AvailableDays: []string{"Monday"}}},
		Subjects: []models.Subject{{Name: "Math", HoursPerWeek: 2}},
		Classes:  []models.ClassInfo{{Name: "10A", Subjects: []string{"Math"}, StudentCount: 30}},
		Rooms:    []models.Room{{Name: "R1", Capacity: 35}},
	}
}

func TestTimetableServiceGenerateSuccess(t *testing.T) {
	store := newRunStoreStub()
	svc := NewTimetableService(startScheduleQueue(t), store, nil, NewMetricsService(), nil, nil, nil, TimetableServiceConfig{})

	resp, err := svc.Generate(context.Background(), basicRequest())
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Len(t, resp.Schedule, 2)
	assert.NotEmpty(t, resp.RunID)
	for i, entry := range resp.Schedule {
		assert.Equal(t, "Monday", entry.Day)
		assert.Equal(t, scheduler.TimeSlots[i], entry.TimeSlot)
		assert.Equal(t, "R1", entry.RoomName)
	}

	require.Len(t, store.created, 1)
	run := store.created[0]
	assert.Equal(t, resp.RunID, run.ID)
	assert.Equal(t, models.TimetableRunStatusSucceeded, run.Status)
	assert.Equal(t, 2, run.EntryCount)
	assert.Len(t, run.RequestHash, 64)
	entries, err := run.Entries()
	require.NoError(t, err)
	assert.Equal(t, resp.Schedule, entries)
}

func TestTimetableServiceGenerateEmptyRosters(t *testing.T) {
	svc := NewTimetableService(startScheduleQueue(t), nil, nil, nil, nil, nil, nil, TimetableServiceConfig{})

	resp, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Schedule)
	assert.Empty(t, resp.Schedule)
}

func TestTimetableServiceGenerateUnschedulable(t *testing.T) {
	store := newRunStoreStub()
	svc := NewTimetableService(startScheduleQueue(t), store, nil, NewMetricsService(), nil, nil, nil, TimetableServiceConfig{})

	req := basicRequest()
	req.Teachers = nil

	resp, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Empty(t, resp.Schedule)
	assert.Contains(t, resp.Error, "10A - Math (no teacher)")
	require.Len(t, resp.Unscheduled, 2)
	assert.Equal(t, scheduler.ReasonNoTeacher, resp.Unscheduled[0].Reason)

	require.Len(t, store.created, 1)
	assert.Equal(t, models.TimetableRunStatusFailed, store.created[0].Status)
	require.NotNil(t, store.created[0].ErrorMessage)
	assert.Equal(t, resp.Error, *store.created[0].ErrorMessage)
	assert.Equal(t, 2, store.created[0].UnscheduledCount)
}

func TestTimetableServiceGenerateRecoversPanics(t *testing.T) {
	queue := jobs.NewQueue("panicking", func(ctx context.Context, job jobs.Job) (interface{}, error) {
		var grid map[string]int
		grid["Monday"]++
		return nil, nil
	}, jobs.QueueConfig{Workers: 1})
	queue.Start(context.Background())
	defer queue.Stop()

	cacheRepo := &memoryCacheRepo{values: make(map[string][]byte)}
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	svc := NewTimetableService(queue, nil, cache, nil, nil, nil, nil, TimetableServiceConfig{})

	resp, err := svc.Generate(context.Background(), basicRequest())
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, UnexpectedFailureMessage, resp.Error)
	assert.Empty(t, cacheRepo.values)
}

func TestTimetableServiceGenerateRejectsMalformedPayload(t *testing.T) {
	calls := 0
	runner := runnerFunc(func(ctx context.Context, job jobs.Job) (interface{}, error) {
		calls++
		return nil, nil
	})
	svc := NewTimetableService(runner, nil, nil, nil, nil, nil, nil, TimetableServiceConfig{})

	req := basicRequest()
	req.Subjects[0].HoursPerWeek = 0

	_, err := svc.Generate(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
	assert.Zero(t, calls)
}

func TestTimetableServiceGenerateStrictSubjects(t *testing.T) {
	svc := NewTimetableService(startScheduleQueue(t), nil, nil, nil, nil, nil, nil, TimetableServiceConfig{StrictSubjects: true})

	req := basicRequest()
	req.Classes[0].Subjects = append(req.Classes[0].Subjects, "Art")

	_, err := svc.Generate(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Contains(t, appErr.Message, `unknown subject "Art"`)
}

func TestTimetableServiceGenerateLenientSubjectsWarn(t *testing.T) {
	svc := NewTimetableService(startScheduleQueue(t), nil, nil, nil, nil, nil, nil, TimetableServiceConfig{})

	req := basicRequest()
	req.Classes[0].Subjects = append(req.Classes[0].Subjects, "Art")

	resp, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], `"Art"`)
}

func TestTimetableServiceGenerateQueueStopped(t *testing.T) {
	queue := jobs.NewQueue("stopped", RunScheduleJob, jobs.QueueConfig{})
	svc := NewTimetableService(queue, nil, nil, nil, nil, nil, nil, TimetableServiceConfig{})

	_, err := svc.Generate(context.Background(), basicRequest())
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, appErrors.FromError(err).Status)
}

func TestTimetableServiceGenerateTimeout(t *testing.T) {
	runner := runnerFunc(func(ctx context.Context, job jobs.Job) (interface{}, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	svc := NewTimetableService(runner, nil, nil, nil, nil, nil, nil, TimetableServiceConfig{RunTimeout: 10 * time.Millisecond})

	_, err := svc.Generate(context.Background(), basicRequest())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusServiceUnavailable, appErr.Status)
	assert.Equal(t, "timetable generation timed out", appErr.Message)
}

func TestTimetableServiceGenerateUsesCache(t *testing.T) {
	var calls int
	var mu sync.Mutex
	runner := runnerFunc(func(ctx context.Context, job jobs.Job) (interface{}, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return RunScheduleJob(ctx, job)
	})
	cache := NewCacheService(&memoryCacheRepo{values: make(map[string][]byte)}, NewMetricsService(), time.Minute, nil, true)
	svc := NewTimetableService(runner, nil, cache, nil, nil, nil, nil, TimetableServiceConfig{})

	first, err := svc.Generate(context.Background(), basicRequest())
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := svc.Generate(context.Background(), basicRequest())
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.RunID, second.RunID)
	assert.Equal(t, first.Schedule, second.Schedule)
	assert.Equal(t, 1, calls)
}

func TestTimetableServiceGenerateFillsRoomIDs(t *testing.T) {
	var captured scheduler.Input
	runner := runnerFunc(func(ctx context.Context, job jobs.Job) (interface{}, error) {
		captured = job.Payload.(scheduleJobPayload).input
		return RunScheduleJob(ctx, job)
	})
	svc := NewTimetableService(runner, nil, nil, nil, nil, nil, nil, TimetableServiceConfig{})

	req := basicRequest()
	req.Rooms = append(req.Rooms, models.Room{ID: "lab-1", Name: "Lab", Capacity: 20})

	_, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, captured.Rooms, 2)
	assert.NotEmpty(t, captured.Rooms[0].ID)
	assert.Equal(t, "lab-1", captured.Rooms[1].ID)
	assert.Empty(t, req.Rooms[0].ID)
}

func TestTimetableServiceGenerateRejectsDuplicateRoomNames(t *testing.T) {
	store := newRunStoreStub()
	svc := NewTimetableService(startScheduleQueue(t), store, nil, nil, nil, nil, nil, TimetableServiceConfig{})

	req := basicRequest()
	req.Classes = append(req.Classes, models.ClassInfo{Name: "10B", Subjects: []string{"Math"}, StudentCount: 30})
	req.Teachers = append(req.Teachers, models.Teacher{Name: "Bob", Subjects: []string{"Math"}, AvailableDays: []string{"Monday"}})
	req.Rooms = []models.Room{{Name: "Lab", Capacity: 35}, {Name: "Lab", Capacity: 35}}

	resp, err := svc.Generate(context.Background(), req)
	require.Error(t, err)
	assert.Nil(t, resp)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Contains(t, appErr.Message, `room name "Lab"`)
	assert.Empty(t, store.created)
}

func TestTimetableServiceRecordsHistoryQueryMetrics(t *testing.T) {
	store := newRunStoreStub()
	metrics := NewMetricsService()
	svc := NewTimetableService(startScheduleQueue(t), store, nil, metrics, nil, nil, nil, TimetableServiceConfig{})

	resp, err := svc.Generate(context.Background(), basicRequest())
	require.NoError(t, err)
	_, err = svc.GetRun(context.Background(), resp.RunID)
	require.NoError(t, err)
	_, _, err = svc.ListRuns(context.Background(), dto.TimetableRunQuery{})
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(metrics.Registry(), "sma_timetable_db_query_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestTimetableServiceCompare(t *testing.T) {
	svc := NewTimetableService(startScheduleQueue(t), nil, nil, nil, nil, nil, nil, TimetableServiceConfig{})

	failing := basicRequest()
	failing.Rooms[0].Capacity = 10

	resp, err := svc.Compare(context.Background(), dto.CompareTimetablesRequest{Scenarios: []dto.TimetableScenario{
		{Name: "baseline", Request: basicRequest()},
		{Name: "small-room", Request: failing},
	}})
	require.NoError(t, err)
	require.Len(t, resp.Scenarios, 2)
	assert.Equal(t, "baseline", resp.Scenarios[0].Name)
	assert.True(t, resp.Scenarios[0].Result.Success)
	assert.Equal(t, 2, resp.Scenarios[0].EntryCount)
	assert.Equal(t, "small-room", resp.Scenarios[1].Name)
	assert.False(t, resp.Scenarios[1].Result.Success)
	assert.Equal(t, 2, resp.Scenarios[1].UnscheduledCount)
	assert.Contains(t, resp.Scenarios[1].Result.Error, "(no room)")
}

func TestTimetableServiceCompareLimitsScenarios(t *testing.T) {
	svc := NewTimetableService(startScheduleQueue(t), nil, nil, nil, nil, nil, nil, TimetableServiceConfig{MaxScenarios: 1})

	_, err := svc.Compare(context.Background(), dto.CompareTimetablesRequest{Scenarios: []dto.TimetableScenario{
		{Name: "a", Request: basicRequest()},
		{Name: "b", Request: basicRequest()},
	}})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)

	_, err = svc.Compare(context.Background(), dto.CompareTimetablesRequest{})
	require.Error(t, err)
}

func TestTimetableServiceRunHistory(t *testing.T) {
	store := newRunStoreStub()
	svc := NewTimetableService(startScheduleQueue(t), store, nil, nil, nil, nil, nil, TimetableServiceConfig{})

	resp, err := svc.Generate(context.Background(), basicRequest())
	require.NoError(t, err)

	run, err := svc.GetRun(context.Background(), resp.RunID)
	require.NoError(t, err)
	assert.Equal(t, resp.RunID, run.ID)

	_, err = svc.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)

	runs, pagination, err := svc.ListRuns(context.Background(), dto.TimetableRunQuery{Status: "succeeded", Page: 2, PageSize: 500})
	require.NoError(t, err)
	assert.Len(t, runs, 1)
	assert.Equal(t, maxRunPageSize, pagination.PageSize)
	assert.Equal(t, models.TimetableRunStatusSucceeded, store.filter.Status)
	assert.Equal(t, maxRunPageSize, store.filter.Offset)

	_, _, err = svc.ListRuns(context.Background(), dto.TimetableRunQuery{Status: "pending"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}

func TestTimetableServiceHistoryDisabled(t *testing.T) {
	svc := NewTimetableService(startScheduleQueue(t), nil, nil, nil, nil, nil, nil, TimetableServiceConfig{})

	_, err := svc.GetRun(context.Background(), "run-1")
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, appErrors.FromError(err).Status)

	_, _, err = svc.ListRuns(context.Background(), dto.TimetableRunQuery{})
	require.Error(t, err)
}

func TestTimetableServiceExportRun(t *testing.T) {
	store := newRunStoreStub()
	svc := NewTimetableService(startScheduleQueue(t), store, nil, nil, nil, nil, nil, TimetableServiceConfig{})

	ok, err := svc.Generate(context.Background(), basicRequest())
	require.NoError(t, err)

	file, err := svc.ExportRun(context.Background(), ok.RunID, "CSV")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasSuffix(file.Filename, ".csv"))
	assert.Contains(t, string(file.Content), "10A,09:00-10:00,\"Math (Alice, R1)\"")

	_, err = svc.ExportRun(context.Background(), ok.RunID, "xlsx")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)

	failing := basicRequest()
	failing.Teachers = nil
	failed, err := svc.Generate(context.Background(), failing)
	require.NoError(t, err)

	_, err = svc.ExportRun(context.Background(), failed.RunID, "pdf")
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, appErrors.FromError(err).Status)
}
