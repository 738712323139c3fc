// Package invoices assembles confirmed time entries into immutable invoice
// documents and drives the invoice status lifecycle.
package invoices

import "time"

// Status enumerates persisted invoice statuses. Overdue is never stored,
// see IsOverdue.
type Status string

const (
	StatusDraft Status = "draft"
	StatusSent  Status = "sent"
	StatusPaid  Status = "paid"
)

// StatusOverdue is accepted as a listing filter only. It resolves to
// "sent with a due date in the past".
const StatusOverdue = "overdue"

// Item is one invoice line. It snapshots date, project name and description
// from the source time entry at creation time, so the printed document stays
// accurate when the source later changes. TimeEntryID is nil once the source
// entry has been deleted.
type Item struct {
	ID          int64      `json:"id"`
	InvoiceID   int64      `json:"-"`
	TimeEntryID *int64     `json:"time_entry_id"`
	Hours       float64    `json:"hours"`
	Rate        float64    `json:"rate"`
	Amount      float64    `json:"amount"`
	Date        *time.Time `json:"date"`
	ProjectName *string    `json:"project_name"`
	Description *string    `json:"description"`
}

// Invoice is a financial record. Once created, only status, issue date,
// due date and notes may change; line items and amounts are frozen.
type Invoice struct {
	ID            int64   `json:"id"`
	ClientID      int64   `json:"client_id"`
	ProfileID     int64   `json:"profile_id"`
	InvoiceNumber string  `json:"invoice_number"`
	IssueDate     time.Time `json:"issue_date"`
	DueDate       time.Time `json:"due_date"`
	Status        Status  `json:"status"`
	Notes         *string `json:"notes"`

	Currency    string  `json:"currency"`
	VatType     string  `json:"vat_type"`
	Subtotal    float64 `json:"subtotal"`
	VatAmount   float64 `json:"vat_amount"`
	TotalAmount float64 `json:"total_amount"`

	// Present only when a payment currency differing from the invoice
	// currency was resolved at creation time.
	PaymentCurrency *string  `json:"payment_currency,omitempty"`
	ExchangeRate    *float64 `json:"exchange_rate,omitempty"`
	PaymentAmount   *float64 `json:"payment_amount,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	Items     []Item    `json:"items"`
}

// IsOverdue reports whether the invoice is past due. Every call site that
// displays or filters by overdue goes through this single function.
func IsOverdue(inv *Invoice, today time.Time) bool {
	return inv.Status == StatusSent && inv.DueDate.Before(truncateDay(today))
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DisplayStatus is the status with overdue derived on top.
func DisplayStatus(inv *Invoice, today time.Time) string {
	if IsOverdue(inv, today) {
		return StatusOverdue
	}
	return string(inv.Status)
}
