// Package reports rolls up ledger and invoice data by client, project and
// time window. Monetary fields travel as fixed-decimal strings so display
// layers never re-derive floating point.
package reports

import "time"

// ProjectBreakdown is the per-project slice of a client's report row.
type ProjectBreakdown struct {
	ProjectID    int64  `json:"project_id"`
	ProjectName  string `json:"project_name"`
	EntriesCount int    `json:"entries_count"`
	Hours        string `json:"hours"`
	Amount       string `json:"amount"`
}

// ClientBreakdown groups a client's hours and amounts over the period.
type ClientBreakdown struct {
	ClientID   int64              `json:"client_id"`
	ClientName string             `json:"client_name"`
	Hours      string             `json:"hours"`
	Amount     string             `json:"amount"`
	Projects   []ProjectBreakdown `json:"projects"`
}

// InvoiceSummary aggregates invoices issued in the period.
type InvoiceSummary struct {
	CountTotal    int    `json:"count_total"`
	CountPaid     int    `json:"count_paid"`
	CountUnpaid   int    `json:"count_unpaid"`
	CountOverdue  int    `json:"count_overdue"`
	TotalInvoiced string `json:"total_invoiced"`
	TotalPaid     string `json:"total_paid"`
	TotalUnpaid   string `json:"total_unpaid"`
}

// Report is the full time-and-billing report for a period.
type Report struct {
	DateFrom             string            `json:"date_from"`
	DateTo               string            `json:"date_to"`
	ClientID             *int64            `json:"client_id"`
	TotalHours           string            `json:"total_hours"`
	TotalAmount          string            `json:"total_amount"`
	TotalAmountFormatted string            `json:"total_amount_formatted"`
	Breakdown            []ClientBreakdown `json:"breakdown"`
	InvoiceSummary       InvoiceSummary    `json:"invoice_summary"`
}

// RecentEntry is a dashboard activity row.
type RecentEntry struct {
	ID            int64     `json:"id"`
	Date          time.Time `json:"date"`
	ProjectID     int64     `json:"project_id"`
	ProjectName   string    `json:"project_name"`
	ClientID      int64     `json:"client_id"`
	ClientName    string    `json:"client_name"`
	DurationHours string    `json:"duration_hours"`
	Description   *string   `json:"description"`
	Status        string    `json:"status"`
}

// RecentInvoice is a dashboard activity row with the overdue state derived.
type RecentInvoice struct {
	ID            int64     `json:"id"`
	InvoiceNumber string    `json:"invoice_number"`
	ClientID      int64     `json:"client_id"`
	ClientName    string    `json:"client_name"`
	IssueDate     time.Time `json:"issue_date"`
	DueDate       time.Time `json:"due_date"`
	Status        string    `json:"status"`
	TotalAmount   string    `json:"total_amount"`
}

// Dashboard is the landing-page aggregate.
type Dashboard struct {
	HoursThisWeek         string          `json:"hours_this_week"`
	HoursThisMonth        string          `json:"hours_this_month"`
	UnbilledAmount        string          `json:"unbilled_amount"`
	UnpaidAmount          string          `json:"unpaid_amount"`
	UnpaidAmountFormatted string          `json:"unpaid_amount_formatted"`
	OverdueInvoicesCount  int             `json:"overdue_invoices_count"`
	RecentTimeEntries     []RecentEntry   `json:"recent_time_entries"`
	RecentInvoices        []RecentInvoice `json:"recent_invoices"`
}
