package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/lexbill/lexbill/internal/fx"
)

// FXWarmupJob keeps the rate day cache warm so invoice creation rarely
// waits on the external feed.
type FXWarmupJob struct {
	Rates  *fx.Service
	Logger *slog.Logger
}

// NewFXWarmupJob wires dependencies for the warmup handler.
func NewFXWarmupJob(rates *fx.Service, logger *slog.Logger) *FXWarmupJob {
	return &FXWarmupJob{Rates: rates, Logger: logger}
}

// Handle processes fx warmup tasks.
func (j *FXWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Rates == nil {
		return errors.New("fx warmup: handler not configured")
	}
	var payload FXWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	logger := j.logger()
	start := time.Now()
	warmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := j.Rates.WarmToday(warmCtx); err != nil {
		// The service falls back to cached prior days during lookups,
		// so a failed warmup is degraded service, not an outage.
		logger.Warn("fx warmup failed", slog.Any("error", err))
		return err
	}
	logger.Info("fx warmup completed", slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *FXWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskFXWarmup))
	}
	return slog.Default().With(slog.String("job", TaskFXWarmup))
}
