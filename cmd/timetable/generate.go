package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/roster"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/internal/transport/natsrpc"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
)

var errUnschedulable = errors.New("timetable could not be completed")

var (
	generateRoster  string
	generateFormat  string
	generateStrict  bool
	generateViaNATS bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a timetable from a roster file",
	Long:  "Schedule the rosters in a YAML or JSON file and print the timetable, or the failure report when some sessions cannot be placed.",
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateRoster, "roster", "", "roster file (.yaml, .yml or .json)")
	generateCmd.Flags().StringVar(&generateFormat, "format", "table", "output format: table, json or csv")
	generateCmd.Flags().BoolVar(&generateStrict, "strict", false, "reject classes that reference unknown subjects")
	generateCmd.Flags().BoolVar(&generateViaNATS, "via-nats", false, "send the request to a running worker instead of scheduling locally")
	_ = generateCmd.MarkFlagRequired("roster")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck

	req, err := roster.Load(generateRoster)
	if err != nil {
		return err
	}
	req.Strict = req.Strict || generateStrict

	resp, err := generateTimetable(cmd.Context(), *req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, warning := range resp.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
	}
	if !resp.Success {
		fmt.Fprintln(cmd.ErrOrStderr(), resp.Error)
		return errUnschedulable
	}

	switch strings.ToLower(generateFormat) {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(resp.Schedule)
	case "csv":
		csvExporter, err := export.NewCSVExporterWithOptions(csvOptions(cfg.Export))
		if err != nil {
			return err
		}
		file, err := service.NewExportService(csvExporter, nil).Render(resp.RunID, resp.Schedule, models.ExportFormatCSV)
		if err != nil {
			return err
		}
		_, err = out.Write(file.Content)
		return err
	case "table":
		return writeTable(out, resp.Schedule)
	default:
		return fmt.Errorf("unknown format %q", generateFormat)
	}
}

func generateTimetable(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.TimetableResponse, error) {
	if generateViaNATS {
		conn, err := natsrpc.Connect(cfg.NATS, "timetable-cli", logr)
		if err != nil {
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		defer conn.Close()
		return natsrpc.NewClient(conn, cfg.NATS.Subject, cfg.NATS.RequestTimeout).Generate(ctx, req)
	}

	queue := jobs.NewQueue("timetable-cli", service.RunScheduleJob, jobs.QueueConfig{Workers: 1, Logger: logr})
	queue.Start(ctx)
	defer queue.Stop()

	svc := service.NewTimetableService(queue, nil, nil, nil, nil, validator.New(), logr, service.TimetableServiceConfig{
		RunTimeout:     cfg.Scheduler.RunTimeout,
		StrictSubjects: cfg.Scheduler.StrictSubjects,
	})
	return svc.Generate(ctx, req)
}

func writeTable(out io.Writer, entries []models.TimetableEntry) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DAY\tSLOT\tCLASS\tSUBJECT\tTEACHER\tROOM")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", entry.Day, entry.TimeSlot, entry.ClassName, entry.SubjectName, entry.TeacherName, entry.RoomName)
	}
	return w.Flush()
}
