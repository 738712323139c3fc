package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexbill/lexbill/internal/invoices"
)

// EntryRow is a time entry joined with its project and client, the unit
// the aggregator groups over.
type EntryRow struct {
	EntryID     int64
	Date        time.Time
	Hours       float64
	Description *string
	Status      string
	ProjectID   int64
	ProjectName string
	ProjectRate *float64
	ClientID    int64
	ClientName  string
}

// InvoiceRow is the slice of an invoice the aggregator needs.
type InvoiceRow struct {
	ID          int64
	Number      string
	ClientID    int64
	ClientName  string
	IssueDate   time.Time
	DueDate     time.Time
	Status      invoices.Status
	TotalAmount float64
}

// Repository defines read access for report aggregation.
type Repository interface {
	EntriesInRange(ctx context.Context, from, to time.Time, clientID *int64) ([]EntryRow, error)
	ConfirmedEntries(ctx context.Context) ([]EntryRow, error)
	HoursBetween(ctx context.Context, from, to time.Time) (float64, error)
	InvoicesInRange(ctx context.Context, from, to time.Time, clientID *int64) ([]InvoiceRow, error)
	UnpaidTotal(ctx context.Context) (float64, error)
	OverdueCount(ctx context.Context, today time.Time) (int, error)
	RecentEntries(ctx context.Context, limit int) ([]EntryRow, error)
	RecentInvoices(ctx context.Context, limit int) ([]InvoiceRow, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const entryJoin = `
	SELECT e.id, e.date, e.duration_hours, e.description, e.status,
	       p.id, p.name, p.hourly_rate, c.id, c.name
	FROM time_entries e
	JOIN projects p ON p.id = e.project_id
	JOIN clients c ON c.id = p.client_id`

func collectEntryRows(rows pgx.Rows) ([]EntryRow, error) {
	defer rows.Close()
	var out []EntryRow
	for rows.Next() {
		var r EntryRow
		if err := rows.Scan(&r.EntryID, &r.Date, &r.Hours, &r.Description, &r.Status,
			&r.ProjectID, &r.ProjectName, &r.ProjectRate, &r.ClientID, &r.ClientName); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (r *repository) EntriesInRange(ctx context.Context, from, to time.Time, clientID *int64) ([]EntryRow, error) {
	query := entryJoin + ` WHERE e.date >= $1 AND e.date <= $2`
	args := []any{from, to}
	if clientID != nil {
		query += ` AND c.id = $3`
		args = append(args, *clientID)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectEntryRows(rows)
}

func (r *repository) ConfirmedEntries(ctx context.Context) ([]EntryRow, error) {
	rows, err := r.pool.Query(ctx, entryJoin+` WHERE e.status = 'confirmed'`)
	if err != nil {
		return nil, err
	}
	return collectEntryRows(rows)
}

func (r *repository) HoursBetween(ctx context.Context, from, to time.Time) (float64, error) {
	var hours float64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(duration_hours), 0) FROM time_entries WHERE date >= $1 AND date <= $2`,
		from, to).Scan(&hours)
	return hours, err
}

const invoiceJoin = `
	SELECT i.id, i.invoice_number, i.client_id, c.name, i.issue_date, i.due_date, i.status, i.total_amount
	FROM invoices i
	JOIN clients c ON c.id = i.client_id`

func collectInvoiceRows(rows pgx.Rows) ([]InvoiceRow, error) {
	defer rows.Close()
	var out []InvoiceRow
	for rows.Next() {
		var r InvoiceRow
		if err := rows.Scan(&r.ID, &r.Number, &r.ClientID, &r.ClientName,
			&r.IssueDate, &r.DueDate, &r.Status, &r.TotalAmount); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (r *repository) InvoicesInRange(ctx context.Context, from, to time.Time, clientID *int64) ([]InvoiceRow, error) {
	query := invoiceJoin + ` WHERE i.issue_date >= $1 AND i.issue_date <= $2`
	args := []any{from, to}
	if clientID != nil {
		query += ` AND i.client_id = $3`
		args = append(args, *clientID)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectInvoiceRows(rows)
}

func (r *repository) UnpaidTotal(ctx context.Context) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(total_amount), 0) FROM invoices WHERE status = 'sent'`).Scan(&total)
	return total, err
}

func (r *repository) OverdueCount(ctx context.Context, today time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM invoices WHERE status = 'sent' AND due_date < $1`, today).Scan(&count)
	return count, err
}

func (r *repository) RecentEntries(ctx context.Context, limit int) ([]EntryRow, error) {
	rows, err := r.pool.Query(ctx, entryJoin+` ORDER BY e.date DESC, e.id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collectEntryRows(rows)
}

func (r *repository) RecentInvoices(ctx context.Context, limit int) ([]InvoiceRow, error) {
	rows, err := r.pool.Query(ctx, invoiceJoin+` ORDER BY i.issue_date DESC, i.id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collectInvoiceRows(rows)
}
