package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCOAIntegrity is the task type for the chart-of-accounts integrity sweep.
	TaskCOAIntegrity = "coa:integrity"
)

// COAIntegrityPayload tunes a single integrity sweep.
type COAIntegrityPayload struct {
	// Trigger records who asked for the run ("cron", "cli", "api").
	Trigger string `json:"trigger"`
	// FailOnViolation makes the task fail when defects are found so Asynq records it as an error.
	FailOnViolation bool `json:"fail_on_violation,omitempty"`
}

// NewCOAIntegrityTask constructs an Asynq task for the integrity sweep.
func NewCOAIntegrityTask(payload COAIntegrityPayload) (*asynq.Task, error) {
	if payload.Trigger == "" {
		payload.Trigger = "manual"
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCOAIntegrity, data), nil
}
