package invoices

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexbill/lexbill/internal/platform/db"
	"github.com/lexbill/lexbill/internal/shared"
)

// repoFilter is the storage-level listing filter. The derived overdue
// status arrives here already translated to "sent due before today".
type repoFilter struct {
	ClientID  *int64
	Status    *Status
	DueBefore *time.Time
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	Size      int
}

// Repository defines data access for invoices. Creation and deletion are
// transactional: the invoice record and the status flips of its time
// entries are applied together or not at all.
type Repository interface {
	Get(ctx context.Context, id int64) (*Invoice, error)
	List(ctx context.Context, filter repoFilter) ([]Invoice, int, error)
	NextSequence(ctx context.Context, year string) (int, error)
	CreateWithEntries(ctx context.Context, inv Invoice, entryIDs []int64) (*Invoice, error)
	Update(ctx context.Context, inv Invoice) (*Invoice, error)
	UpdateStatus(ctx context.Context, id int64, from, to Status) (bool, error)
	DeleteWithRevert(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const invoiceColumns = `id, client_id, profile_id, invoice_number, issue_date, due_date, status, notes,
	currency, vat_type, subtotal, vat_amount, total_amount,
	payment_currency, exchange_rate, payment_amount, created_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.ClientID, &inv.ProfileID, &inv.InvoiceNumber, &inv.IssueDate, &inv.DueDate,
		&inv.Status, &inv.Notes, &inv.Currency, &inv.VatType, &inv.Subtotal, &inv.VatAmount, &inv.TotalAmount,
		&inv.PaymentCurrency, &inv.ExchangeRate, &inv.PaymentAmount, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &shared.NotFoundError{Entity: "invoice", ID: id}
		}
		return nil, err
	}
	items, err := r.itemsFor(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	inv.Items = items[id]
	if inv.Items == nil {
		inv.Items = []Item{}
	}
	return inv, nil
}

func (r *repository) itemsFor(ctx context.Context, invoiceIDs []int64) (map[int64][]Item, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, invoice_id, time_entry_id, hours, rate, amount, date, project_name, description
		 FROM invoice_items WHERE invoice_id = ANY($1) ORDER BY invoice_id, id`, invoiceIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]Item)
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.TimeEntryID, &it.Hours, &it.Rate, &it.Amount,
			&it.Date, &it.ProjectName, &it.Description); err != nil {
			return nil, err
		}
		out[it.InvoiceID] = append(out[it.InvoiceID], it)
	}
	return out, rows.Err()
}

func (r *repository) List(ctx context.Context, filter repoFilter) ([]Invoice, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if filter.ClientID != nil {
		where += ` AND client_id = ` + arg(*filter.ClientID)
	}
	if filter.Status != nil {
		where += ` AND status = ` + arg(string(*filter.Status))
	}
	if filter.DueBefore != nil {
		where += ` AND due_date < ` + arg(*filter.DueBefore)
	}
	if filter.DateFrom != nil {
		where += ` AND issue_date >= ` + arg(*filter.DateFrom)
	}
	if filter.DateTo != nil {
		where += ` AND issue_date <= ` + arg(*filter.DateTo)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM invoices`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ` + arg(filter.Size) + ` OFFSET ` + arg((filter.Page-1)*filter.Size)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var invoices []Invoice
	var ids []int64
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.ClientID, &inv.ProfileID, &inv.InvoiceNumber, &inv.IssueDate, &inv.DueDate,
			&inv.Status, &inv.Notes, &inv.Currency, &inv.VatType, &inv.Subtotal, &inv.VatAmount, &inv.TotalAmount,
			&inv.PaymentCurrency, &inv.ExchangeRate, &inv.PaymentAmount, &inv.CreatedAt); err != nil {
			return nil, 0, err
		}
		invoices = append(invoices, inv)
		ids = append(ids, inv.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(ids) > 0 {
		items, err := r.itemsFor(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		for i := range invoices {
			invoices[i].Items = items[invoices[i].ID]
			if invoices[i].Items == nil {
				invoices[i].Items = []Item{}
			}
		}
	}
	return invoices, total, nil
}

// NextSequence counts existing numbers containing the year substring. Not
// an atomic counter; acceptable for the single-issuer deployment model.
func (r *repository) NextSequence(ctx context.Context, year string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM invoices WHERE invoice_number LIKE '%' || $1 || '%'`, year).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count + 1, nil
}

func (r *repository) CreateWithEntries(ctx context.Context, inv Invoice, entryIDs []int64) (*Invoice, error) {
	var created *Invoice
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO invoices (client_id, profile_id, invoice_number, issue_date, due_date, status, notes,
				currency, vat_type, subtotal, vat_amount, total_amount,
				payment_currency, exchange_rate, payment_amount, created_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
			 RETURNING `+invoiceColumns,
			inv.ClientID, inv.ProfileID, inv.InvoiceNumber, inv.IssueDate, inv.DueDate, string(inv.Status), inv.Notes,
			inv.Currency, inv.VatType, inv.Subtotal, inv.VatAmount, inv.TotalAmount,
			inv.PaymentCurrency, inv.ExchangeRate, inv.PaymentAmount, time.Now())
		saved, err := scanInvoice(row)
		if err != nil {
			return err
		}
		saved.Items = make([]Item, 0, len(inv.Items))
		for _, it := range inv.Items {
			var itemID int64
			err := tx.QueryRow(ctx,
				`INSERT INTO invoice_items (invoice_id, time_entry_id, hours, rate, amount, date, project_name, description)
				 VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
				saved.ID, it.TimeEntryID, it.Hours, it.Rate, it.Amount, it.Date, it.ProjectName, it.Description).Scan(&itemID)
			if err != nil {
				return err
			}
			it.ID = itemID
			it.InvoiceID = saved.ID
			saved.Items = append(saved.Items, it)
		}
		// Flip every consumed entry confirmed -> billed in the same
		// transaction. A shortfall means another operation moved an
		// entry after validation; the whole creation rolls back.
		tag, err := tx.Exec(ctx,
			`UPDATE time_entries SET status = 'billed', updated_at = $2
			 WHERE id = ANY($1) AND status = 'confirmed'`, entryIDs, time.Now())
		if err != nil {
			return err
		}
		if int(tag.RowsAffected()) != len(entryIDs) {
			return &shared.ConflictError{Entity: "time entry", Reason: "entry left confirmed status during invoicing"}
		}
		created = saved
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, inv Invoice) (*Invoice, error) {
	updated, err := scanInvoice(r.pool.QueryRow(ctx,
		`UPDATE invoices SET issue_date = $2, due_date = $3, notes = $4
		 WHERE id = $1
		 RETURNING `+invoiceColumns,
		inv.ID, inv.IssueDate, inv.DueDate, inv.Notes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &shared.NotFoundError{Entity: "invoice", ID: inv.ID}
		}
		return nil, err
	}
	items, err := r.itemsFor(ctx, []int64{updated.ID})
	if err != nil {
		return nil, err
	}
	updated.Items = items[updated.ID]
	if updated.Items == nil {
		updated.Items = []Item{}
	}
	return updated, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, from, to Status) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE invoices SET status = $3 WHERE id = $1 AND status = $2`,
		id, string(from), string(to))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// DeleteWithRevert removes the invoice and its items and reverts exactly the
// entries this invoice billed back to confirmed.
func (r *repository) DeleteWithRevert(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`UPDATE time_entries SET status = 'confirmed', updated_at = $2
			 WHERE status = 'billed' AND id IN (
				SELECT time_entry_id FROM invoice_items
				WHERE invoice_id = $1 AND time_entry_id IS NOT NULL
			 )`, id, time.Now())
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return &shared.NotFoundError{Entity: "invoice", ID: id}
		}
		return nil
	})
}
