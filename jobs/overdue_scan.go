package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OverdueScanJob surfaces sent invoices past their due date. Overdue is a
// derived state and never written back; the scan only reports.
type OverdueScanJob struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
	clock  func() time.Time
}

// NewOverdueScanJob wires dependencies for the scan handler.
func NewOverdueScanJob(pool *pgxpool.Pool, logger *slog.Logger) *OverdueScanJob {
	return &OverdueScanJob{Pool: pool, Logger: logger, clock: time.Now}
}

type overdueRow struct {
	ID      int64
	Number  string
	DueDate time.Time
}

// Handle processes overdue scan tasks.
func (j *OverdueScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("overdue scan: handler not configured")
	}
	var payload OverdueScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	now := j.clock()
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if payload.GraceDays > 0 {
		cutoff = cutoff.AddDate(0, 0, -payload.GraceDays)
	}

	rows, err := j.Pool.Query(ctx,
		`SELECT id, invoice_number, due_date FROM invoices
		 WHERE status = 'sent' AND due_date < $1
		 ORDER BY due_date`, cutoff)
	if err != nil {
		return err
	}
	defer rows.Close()

	logger := j.logger()
	count := 0
	for rows.Next() {
		var row overdueRow
		if err := rows.Scan(&row.ID, &row.Number, &row.DueDate); err != nil {
			return err
		}
		logger.Warn("invoice overdue",
			slog.Int64("id", row.ID),
			slog.String("number", row.Number),
			slog.Int("days_overdue", int(cutoff.Sub(row.DueDate).Hours()/24)))
		count++
	}
	if err := rows.Err(); err != nil {
		return err
	}
	logger.Info("overdue scan completed", slog.Int("overdue", count))
	return nil
}

func (j *OverdueScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskOverdueScan))
	}
	return slog.Default().With(slog.String("job", TaskOverdueScan))
}
