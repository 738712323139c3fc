// Package ledger stores time entries and drives their status lifecycle:
// draft entries are confirmed for billing, then consumed by invoices.
package ledger

import "time"

// Status enumerates time entry statuses.
type Status string

const (
	// StatusDraft is the initial status of every entry.
	StatusDraft Status = "draft"
	// StatusConfirmed marks an entry approved for billing.
	StatusConfirmed Status = "confirmed"
	// StatusBilled marks an entry consumed by exactly one invoice. Only
	// invoice creation sets it; only invoice deletion reverts it.
	StatusBilled Status = "billed"
)

// TimeEntry is a dated record of hours worked on a project.
type TimeEntry struct {
	ID            int64     `json:"id"`
	ProjectID     int64     `json:"project_id"`
	Date          time.Time `json:"date"`
	DurationHours float64   `json:"duration_hours"`
	Description   *string   `json:"description,omitempty"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BulkConfirmResult reports the outcome of a bulk confirm. Partial success
// is the expected outcome, not an error.
type BulkConfirmResult struct {
	ConfirmedCount int     `json:"confirmed_count"`
	SkippedCount   int     `json:"skipped_count"`
	SkippedIDs     []int64 `json:"skipped_ids"`
}
