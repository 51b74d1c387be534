package main

import (
	"context"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/handler"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/cache"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/database"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
)

// appRuntime holds the long-lived collaborators shared by serve and worker.
type appRuntime struct {
	queue      *jobs.Queue
	db         *sqlx.DB
	redis      *redis.Client
	metrics    *service.MetricsService
	tokens     *service.TokenService
	timetables *service.TimetableService
	checks     map[string]handler.ReadinessCheck
	logger     *zap.Logger
}

func newRuntime(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*appRuntime, error) {
	rt := &appRuntime{
		metrics: service.NewMetricsService(),
		tokens:  service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Expiry: cfg.JWT.Expiration}),
		checks:  make(map[string]handler.ReadinessCheck),
		logger:  logr,
	}

	var runs service.TimetableRunStore
	if cfg.History.Enabled {
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			applied, err := database.Migrate(ctx, db)
			if err != nil {
				_ = db.Close()
				return nil, err
			}
			if len(applied) > 0 {
				logr.Info("schema migrated", zap.Strings("versions", applied))
			}
		}
		rt.db = db
		runs = repository.NewTimetableRunRepository(db)
		rt.checks["postgres"] = func(ctx context.Context) error { return db.PingContext(ctx) }
	}

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, timetable cache disabled", zap.Error(err))
		} else {
			rt.redis = client
			cacheRepo = repository.NewCacheRepository(client)
			rt.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, rt.metrics, cfg.Cache.TTL, logr, cacheRepo != nil)

	rt.queue = jobs.NewQueue("timetable", service.RunScheduleJob, jobs.QueueConfig{
		Workers:    cfg.Scheduler.Workers,
		BufferSize: cfg.Scheduler.QueueSize,
		Logger:     logr,
	})
	rt.queue.Start(ctx)

	csvExporter, err := export.NewCSVExporterWithOptions(csvOptions(cfg.Export))
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.timetables = service.NewTimetableService(rt.queue, runs, cacheSvc, rt.metrics, service.NewExportService(csvExporter, nil), validator.New(), logr, service.TimetableServiceConfig{
		RunTimeout:     cfg.Scheduler.RunTimeout,
		CacheTTL:       cfg.Cache.TTL,
		StrictSubjects: cfg.Scheduler.StrictSubjects,
		MaxScenarios:   cfg.Scheduler.MaxScenarios,
	})
	return rt, nil
}

func csvOptions(cfg config.ExportConfig) export.CSVOptions {
	opts := export.CSVOptions{UseCRLF: cfg.CSVUseCRLF, ByteOrderMark: cfg.CSVByteOrderMark}
	switch cfg.CSVDelimiter {
	case "", ",":
	case `\t`, "tab":
		opts.Comma = '\t'
	default:
		opts.Comma, _ = utf8.DecodeRuneInString(cfg.CSVDelimiter)
	}
	return opts
}

func (rt *appRuntime) Close() {
	if rt.queue != nil {
		rt.queue.Stop()
	}
	if rt.redis != nil {
		if err := rt.redis.Close(); err != nil {
			rt.logger.Warn("close redis", zap.Error(err))
		}
	}
	if rt.db != nil {
		if err := rt.db.Close(); err != nil {
			rt.logger.Warn("close postgres", zap.Error(err))
		}
	}
}
