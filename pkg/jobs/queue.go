package jobs

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrQueueStopped is returned when work is submitted to a queue that is not running.
var ErrQueueStopped = errors.New("queue not running")

// Job represents a queued unit of work.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Enqueued time.Time

	reply chan outcome
}

type outcome struct {
	value interface{}
	err   error
}

// Handler processes a job and returns its result.
type Handler func(context.Context, Job) (interface{}, error)

// PanicError reports a handler panic recovered by a worker.
type PanicError struct {
	JobID string
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("job %s panicked: %v", e.JobID, e.Value)
}

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	Logger     *zap.Logger
}

// Queue is a lightweight in-memory job dispatcher backed by goroutines. Every
// job runs on a worker goroutine, isolated from the submitter, and a panic in
// one job never takes the worker or the caller down.
type Queue struct {
	name    string
	handler Handler

	workers    int
	bufferSize int
	logger     *zap.Logger

	jobs    chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewQueue builds a new queue with the provided handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:       name,
		handler:    handler,
		workers:    cfg.Workers,
		bufferSize: cfg.BufferSize,
		logger:     cfg.Logger,
		jobs:       make(chan Job, cfg.BufferSize),
	}
}

// Start begins worker consumption. Safe to call once.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i + 1)
	}
	q.started = true
	q.logger.Sugar().Infow("queue started", "queue", q.name, "workers", q.workers)
}

// Stop cancels workers and waits for them to exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.started = false
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Sugar().Infow("queue stopped", "queue", q.name)
}

// Call submits job and waits for exactly one result. It returns early when
// ctx is done; the job itself still runs to completion on its worker.
func (q *Queue) Call(ctx context.Context, job Job) (interface{}, error) {
	job.reply = make(chan outcome, 1)
	queueCtx, err := q.push(ctx, job)
	if err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-queueCtx.Done():
		return nil, fmt.Errorf("queue %s: %w", q.name, ErrQueueStopped)
	case res := <-job.reply:
		return res.value, res.err
	}
}

func (q *Queue) push(ctx context.Context, job Job) (context.Context, error) {
	q.mu.Lock()
	queueCtx := q.ctx
	started := q.started
	q.mu.Unlock()

	if !started {
		return nil, fmt.Errorf("queue %s: %w", q.name, ErrQueueStopped)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-queueCtx.Done():
		return nil, fmt.Errorf("queue %s stopped: %w", q.name, queueCtx.Err())
	case q.jobs <- job:
		return queueCtx, nil
	}
}

func (q *Queue) worker(workerID int) {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			waited := time.Since(job.Enqueued)
			value, err := q.run(job)
			if err != nil {
				q.logger.Sugar().Warnw("job failed", "queue", q.name, "worker", workerID, "job_id", job.ID, "type", job.Type, "waited", waited, "error", err)
			}
			job.reply <- outcome{value: value, err: err}
		}
	}
}

func (q *Queue) run(job Job) (value interface{}, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			panicErr := &PanicError{JobID: job.ID, Value: recovered, Stack: debug.Stack()}
			q.logger.Sugar().Errorw("job panicked", "queue", q.name, "job_id", job.ID, "type", job.Type, "panic", recovered, "stack", string(panicErr.Stack))
			value, err = nil, panicErr
		}
	}()
	return q.handler(q.ctx, job)
}
