package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Answer scheduling requests from NATS",
	Long:  "Join the NATS queue group and answer each scheduling request with exactly one reply.",
	RunE:  runWorker,
}

func runWorker(cmd *cobra.Command, args []string) error {
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

	responder, closeNATS, err := startResponder(ctx, rt)
	if err != nil {
		return err
	}
	defer closeNATS()

	logr.Info("worker ready", zap.String("subject", cfg.NATS.Subject), zap.Int("workers", cfg.Scheduler.Workers))
	<-ctx.Done()

	logr.Info("worker stopping")
	return responder.Stop()
}
