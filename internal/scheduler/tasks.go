// Package scheduler defines background tasks and the asynq client/worker
// around them.
package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TypeReportBackfill is the task type for batch report generation.
const TypeReportBackfill = "reports:backfill"

// ReportBackfillPayload carries the backfill parameters.
type ReportBackfillPayload struct {
	Mode  string `json:"mode"`
	Limit int    `json:"limit"`
}

// NewReportBackfillTask builds the asynq task for a backfill run.
func NewReportBackfillTask(mode string, limit int) (*asynq.Task, error) {
	payload, err := json.Marshal(ReportBackfillPayload{Mode: mode, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal backfill payload: %w", err)
	}
	return asynq.NewTask(TypeReportBackfill, payload, asynq.MaxRetry(3)), nil
}
