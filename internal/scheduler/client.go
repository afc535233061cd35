package scheduler

import (
	"context"
	"fmt"

	"studio_sales_backend/platform/config"
	"studio_sales_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Client enqueues background tasks onto the Redis-backed queue.
type Client struct {
	client *asynq.Client
	log    *logger.Logger
}

// NewClient creates a task queue client.
func NewClient(cfg config.SchedulerConfig, log *logger.Logger) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.GetRedisAddr()}),
		log:    log,
	}
}

// EnqueueBackfill queues a report backfill run for the worker.
func (c *Client) EnqueueBackfill(ctx context.Context, mode string, limit int) error {
	task, err := NewReportBackfillTask(mode, limit)
	if err != nil {
		return err
	}

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue backfill task: %w", err)
	}

	c.log.Info("task enqueued",
		"type", task.Type(),
		"task_id", info.ID,
		"queue", info.Queue,
		"mode", mode,
		"limit", limit,
	)
	return nil
}

// Close releases the underlying Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}
