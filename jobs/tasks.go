// Package jobs contains the background task definitions and the Asynq
// worker that runs them.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskFXWarmup pre-fetches today's exchange rates into the day cache.
	TaskFXWarmup = "fx:warmup"
	// TaskOverdueScan reports sent invoices past their due date.
	TaskOverdueScan = "invoices:overdue_scan"
)

// FXWarmupPayload is currently empty; the task always warms today's feed.
type FXWarmupPayload struct{}

// NewFXWarmupTask constructs the warmup task.
func NewFXWarmupTask() (*asynq.Task, error) {
	data, err := json.Marshal(FXWarmupPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFXWarmup, data), nil
}

// OverdueScanPayload carries optional scan parameters.
type OverdueScanPayload struct {
	// GraceDays widens the cutoff: an invoice counts as overdue only
	// when due more than GraceDays ago. Zero means due before today.
	GraceDays int `json:"grace_days"`
}

// NewOverdueScanTask constructs the overdue scan task.
func NewOverdueScanTask(payload OverdueScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOverdueScan, data), nil
}
