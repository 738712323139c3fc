package ledger

import "time"

// CreateRequest creates a new draft entry.
type CreateRequest struct {
	ProjectID     int64   `json:"project_id" validate:"required,gt=0"`
	Date          string  `json:"date" validate:"required,datetime=2006-01-02"`
	DurationHours float64 `json:"duration_hours" validate:"required,gt=0"`
	Description   *string `json:"description,omitempty"`
}

// UpdatePatch mutates an entry field by field. Status is deliberately
// absent: only Confirm raises it and only invoice deletion lowers it.
type UpdatePatch struct {
	Date          *string  `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DurationHours *float64 `json:"duration_hours,omitempty" validate:"omitempty,gt=0"`
	Description   *string  `json:"description,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p UpdatePatch) Empty() bool {
	return p.Date == nil && p.DurationHours == nil && p.Description == nil
}

// BulkConfirmRequest lists the entries to confirm.
type BulkConfirmRequest struct {
	TimeEntryIDs []int64 `json:"time_entry_ids" validate:"required,min=1,dive,gt=0"`
}

// ListFilter narrows and paginates entry listings.
type ListFilter struct {
	ClientID  *int64
	ProjectID *int64
	Status    *Status
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	Size      int
}
