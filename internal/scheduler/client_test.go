package scheduler

import (
	"context"
	"encoding/json"
	"testing"

	"studio_sales_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
)

type testSchedulerConfig struct {
	addr string
}

func (c testSchedulerConfig) GetRedisAddr() string { return c.addr }

func TestEnqueueBackfill(t *testing.T) {
	redis := miniredis.RunT(t)

	client := NewClient(testSchedulerConfig{addr: redis.Addr()}, logger.New("test"))
	defer client.Close()

	if err := client.EnqueueBackfill(context.Background(), "all_missing", 250); err != nil {
		t.Fatalf("EnqueueBackfill: %v", err)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: redis.Addr()})
	defer inspector.Close()

	tasks, err := inspector.ListPendingTasks("default")
	if err != nil {
		t.Fatalf("ListPendingTasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("pending tasks = %d, want 1", len(tasks))
	}
	if tasks[0].Type != TypeReportBackfill {
		t.Errorf("task type = %q, want %q", tasks[0].Type, TypeReportBackfill)
	}

	var payload ReportBackfillPayload
	if err := json.Unmarshal(tasks[0].Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Mode != "all_missing" || payload.Limit != 250 {
		t.Errorf("payload = %+v, want mode=all_missing limit=250", payload)
	}
}

func TestNewReportBackfillTask_RoundTrip(t *testing.T) {
	task, err := NewReportBackfillTask("all", 10)
	if err != nil {
		t.Fatalf("NewReportBackfillTask: %v", err)
	}

	var payload ReportBackfillPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Mode != "all" || payload.Limit != 10 {
		t.Errorf("payload = %+v", payload)
	}
}
