package invoices

import "time"

// CreateRequest is the invoice creation payload. Currency, vat_type and
// profile_id fall back to the active profile's defaults when omitted.
type CreateRequest struct {
	ClientID        int64   `json:"client_id" validate:"required,gt=0"`
	ProfileID       *int64  `json:"profile_id,omitempty" validate:"omitempty,gt=0"`
	TimeEntryIDs    []int64 `json:"time_entry_ids" validate:"required,min=1,dive,gt=0"`
	IssueDate       string  `json:"issue_date" validate:"required,datetime=2006-01-02"`
	DueDate         string  `json:"due_date" validate:"required,datetime=2006-01-02"`
	Currency        string  `json:"currency,omitempty" validate:"omitempty,len=3"`
	VatType         string  `json:"vat_type,omitempty"`
	PaymentCurrency string  `json:"payment_currency,omitempty" validate:"omitempty,len=3"`
	Notes           *string `json:"notes,omitempty"`
}

// UpdateRequest patches the only mutable invoice fields besides status.
type UpdateRequest struct {
	IssueDate *string `json:"issue_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DueDate   *string `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Notes     *string `json:"notes,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (r UpdateRequest) Empty() bool {
	return r.IssueDate == nil && r.DueDate == nil && r.Notes == nil
}

// ListFilter narrows and paginates invoice listings. Status accepts the
// persisted statuses plus the derived "overdue".
type ListFilter struct {
	ClientID *int64
	Status   *string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	Size     int
}
