package projects

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexbill/lexbill/internal/shared"
)

// Repository defines data access for projects.
type Repository interface {
	Get(ctx context.Context, id int64) (*Project, error)
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]Project, int, error)
	Stats(ctx context.Context, id int64) (hoursByStatus map[string]float64, err error)
	EntryCount(ctx context.Context, id int64) (int, error)
	Create(ctx context.Context, p Project) (*Project, error)
	Update(ctx context.Context, p Project) (*Project, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const projectColumns = `id, client_id, name, description, hourly_rate, currency, status, created_at`

func scanProject(row pgx.Row) (*Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.ClientID, &p.Name, &p.Description, &p.HourlyRate, &p.Currency, &p.Status, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Project, error) {
	p, err := scanProject(r.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &shared.NotFoundError{Entity: "project", ID: id}
		}
		return nil, err
	}
	return p, nil
}

func (r *repository) Exists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM projects WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Project, int, error) {
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

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM projects`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + projectColumns + ` FROM projects` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ` + arg(filter.Size) + ` OFFSET ` + arg((filter.Page-1)*filter.Size)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Name, &p.Description, &p.HourlyRate, &p.Currency, &p.Status, &p.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repository) Stats(ctx context.Context, id int64) (map[string]float64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT status, COALESCE(SUM(duration_hours), 0)
		 FROM time_entries WHERE project_id = $1 GROUP BY status`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make(map[string]float64)
	for rows.Next() {
		var status string
		var hours float64
		if err := rows.Scan(&status, &hours); err != nil {
			return nil, err
		}
		stats[status] = hours
	}
	return stats, rows.Err()
}

func (r *repository) EntryCount(ctx context.Context, id int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM time_entries WHERE project_id = $1`, id).Scan(&count)
	return count, err
}

func (r *repository) Create(ctx context.Context, p Project) (*Project, error) {
	return scanProject(r.pool.QueryRow(ctx,
		`INSERT INTO projects (client_id, name, description, hourly_rate, currency, status, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 RETURNING `+projectColumns,
		p.ClientID, p.Name, p.Description, p.HourlyRate, p.Currency, string(p.Status), time.Now()))
}

func (r *repository) Update(ctx context.Context, p Project) (*Project, error) {
	updated, err := scanProject(r.pool.QueryRow(ctx,
		`UPDATE projects SET name=$2, description=$3, hourly_rate=$4, currency=$5, status=$6
		 WHERE id = $1
		 RETURNING `+projectColumns,
		p.ID, p.Name, p.Description, p.HourlyRate, p.Currency, string(p.Status)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &shared.NotFoundError{Entity: "project", ID: p.ID}
		}
		return nil, err
	}
	return updated, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &shared.NotFoundError{Entity: "project", ID: id}
	}
	return nil
}
