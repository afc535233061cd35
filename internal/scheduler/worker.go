package scheduler

import (
	"context"
	"encoding/json"
	"fmt"

	reportsvc "studio_sales_backend/internal/reports/service"
	"studio_sales_backend/platform/config"
	"studio_sales_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Worker consumes background tasks from the Redis queue.
type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	reports *reportsvc.Service
	log     *logger.Logger
}

// NewWorker creates a worker bound to the reports service.
func NewWorker(cfg config.SchedulerConfig, reports *reportsvc.Service, log *logger.Logger) *Worker {
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.GetRedisAddr()},
		asynq.Config{
			Concurrency: 2,
			Queues:      map[string]int{"default": 1},
		},
	)

	w := &Worker{
		server:  server,
		mux:     asynq.NewServeMux(),
		reports: reports,
		log:     log,
	}
	w.mux.HandleFunc(TypeReportBackfill, w.handleReportBackfill)
	return w
}

// Run blocks processing tasks until Shutdown is called.
func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

// Shutdown stops the worker, waiting for in-flight tasks.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func (w *Worker) handleReportBackfill(ctx context.Context, task *asynq.Task) error {
	var payload ReportBackfillPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal backfill payload: %w", err)
	}

	result, err := w.reports.Backfill(ctx, payload.Mode, payload.Limit)
	if err != nil {
		return fmt.Errorf("backfill run failed: %w", err)
	}

	w.log.Info("backfill task completed",
		"mode", payload.Mode,
		"processed", result.Processed,
		"created", result.Created,
		"skipped", result.Skipped,
		"errored", len(result.Errors),
	)
	return nil
}
