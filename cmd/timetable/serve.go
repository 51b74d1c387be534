package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-timetable-api/api/swagger"
	"github.com/noah-isme/sma-timetable-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/transport/natsrpc"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  "Start the timetable HTTP API. When ENABLE_NATS is set the process also answers NATS scheduling requests.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx, cfg, logr)
	if err != nil {
		return fmt.Errorf("initialize runtime: %w", err)
	}
	defer rt.Close()

	if cfg.NATS.Enabled {
		responder, closeNATS, err := startResponder(ctx, rt)
		if err != nil {
			return err
		}
		defer closeNATS()
		defer responder.Stop() //nolint:errcheck
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(cfg, rt)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	return nil
}

func newRouter(cfg *config.Config, rt *appRuntime) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(rt.logger, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(rt.metrics))

	metricsHandler := handler.NewMetricsHandler(rt.metrics, rt.checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	timetableHandler := handler.NewTimetableHandler(rt.timetables)
	api := r.Group(cfg.APIPrefix)
	timetables := api.Group("/timetables")

	writers := []gin.HandlerFunc{}
	readers := []gin.HandlerFunc{}
	if cfg.Auth.Enabled {
		timetables.Use(internalmiddleware.JWT(rt.tokens))
		writers = append(writers, internalmiddleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin))
		readers = append(readers, internalmiddleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher))
	}

	timetables.POST("/generate", append(writers, timetableHandler.Generate)...)
	timetables.POST("/compare", append(writers, timetableHandler.Compare)...)
	timetables.GET("/runs", append(readers, timetableHandler.ListRuns)...)
	timetables.GET("/runs/:id", append(readers, timetableHandler.GetRun)...)
	timetables.GET("/runs/:id/export", append(readers, timetableHandler.ExportRun)...)

	return r
}

func startResponder(ctx context.Context, rt *appRuntime) (*natsrpc.Responder, func(), error) {
	conn, err := natsrpc.Connect(cfg.NATS, "timetable-"+cfg.Env, rt.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect nats: %w", err)
	}
	responder := natsrpc.NewResponder(conn, rt.timetables, natsrpc.ResponderConfig{
		Subject:    cfg.NATS.Subject,
		QueueGroup: cfg.NATS.QueueGroup,
		Timeout:    cfg.NATS.RequestTimeout,
	}, rt.logger)
	if err := responder.Start(ctx); err != nil {
		conn.Close()
		return nil, nil, err
	}
	closeConn := func() {
		if err := conn.Drain(); err != nil {
			rt.logger.Warn("drain nats connection", zap.Error(err))
		}
	}
	return responder, closeConn, nil
}
