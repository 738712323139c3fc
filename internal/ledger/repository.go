package ledger

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexbill/lexbill/internal/shared"
)

// Repository defines data access for time entries.
type Repository interface {
	Get(ctx context.Context, id int64) (*TimeEntry, error)
	GetByIDs(ctx context.Context, ids []int64) ([]TimeEntry, error)
	List(ctx context.Context, filter ListFilter) ([]TimeEntry, int, error)
	Create(ctx context.Context, entry TimeEntry) (*TimeEntry, error)
	Update(ctx context.Context, entry TimeEntry) (*TimeEntry, error)
	// UpdateStatus performs a compare-and-set on the status column and
	// reports whether the row was swapped. Bulk confirm and invoice
	// creation rely on it to never bill an entry another operation just
	// moved.
	UpdateStatus(ctx context.Context, id int64, from, to Status) (bool, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const entryColumns = `id, project_id, date, duration_hours, description, status, created_at, updated_at`

func scanEntry(row pgx.Row) (*TimeEntry, error) {
	var e TimeEntry
	err := row.Scan(&e.ID, &e.ProjectID, &e.Date, &e.DurationHours, &e.Description, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*TimeEntry, error) {
	entry, err := scanEntry(r.pool.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM time_entries WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &shared.NotFoundError{Entity: "time entry", ID: id}
		}
		return nil, err
	}
	return entry, nil
}

func (r *repository) GetByIDs(ctx context.Context, ids []int64) ([]TimeEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+entryColumns+` FROM time_entries WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []TimeEntry
	for rows.Next() {
		var e TimeEntry
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Date, &e.DurationHours, &e.Description, &e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// List uses a dynamic query due to filter combinations.
func (r *repository) List(ctx context.Context, filter ListFilter) ([]TimeEntry, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.ClientID != nil {
		where += ` AND project_id IN (SELECT id FROM projects WHERE client_id = ` + arg(*filter.ClientID) + `)`
	}
	if filter.ProjectID != nil {
		where += ` AND project_id = ` + arg(*filter.ProjectID)
	}
	if filter.Status != nil {
		where += ` AND status = ` + arg(string(*filter.Status))
	}
	if filter.DateFrom != nil {
		where += ` AND date >= ` + arg(*filter.DateFrom)
	}
	if filter.DateTo != nil {
		where += ` AND date <= ` + arg(*filter.DateTo)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM time_entries`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + entryColumns + ` FROM time_entries` + where +
		` ORDER BY date DESC, created_at DESC, id DESC` +
		` LIMIT ` + arg(filter.Size) + ` OFFSET ` + arg((filter.Page-1)*filter.Size)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []TimeEntry
	for rows.Next() {
		var e TimeEntry
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Date, &e.DurationHours, &e.Description, &e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, entry TimeEntry) (*TimeEntry, error) {
	now := time.Now()
	return scanEntry(r.pool.QueryRow(ctx,
		`INSERT INTO time_entries (project_id, date, duration_hours, description, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 RETURNING `+entryColumns,
		entry.ProjectID, entry.Date, entry.DurationHours, entry.Description, string(entry.Status), now))
}

func (r *repository) Update(ctx context.Context, entry TimeEntry) (*TimeEntry, error) {
	updated, err := scanEntry(r.pool.QueryRow(ctx,
		`UPDATE time_entries
		 SET date = $2, duration_hours = $3, description = $4, updated_at = $5
		 WHERE id = $1
		 RETURNING `+entryColumns,
		entry.ID, entry.Date, entry.DurationHours, entry.Description, time.Now()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &shared.NotFoundError{Entity: "time entry", ID: entry.ID}
		}
		return nil, err
	}
	return updated, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, from, to Status) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE time_entries SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`,
		id, string(from), string(to), time.Now())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM time_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &shared.NotFoundError{Entity: "time entry", ID: id}
	}
	return nil
}
