package clients

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexbill/lexbill/internal/shared"
)

// Repository defines data access for clients.
type Repository interface {
	Get(ctx context.Context, id int64) (*Client, error)
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]Client, int, error)
	Create(ctx context.Context, c Client) (*Client, error)
	Update(ctx context.Context, c Client) (*Client, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const clientColumns = `id, name, contact_person, email, phone, address, inn,
	bank_name, bik, checking_account, correspondent_account, notes, created_at`

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.Name, &c.ContactPerson, &c.Email, &c.Phone, &c.Address, &c.INN,
		&c.BankName, &c.BIK, &c.CheckingAccount, &c.CorrespondentAccount, &c.Notes, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Client, error) {
	c, err := scanClient(r.pool.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &shared.NotFoundError{Entity: "client", ID: id}
		}
		return nil, err
	}
	return c, nil
}

func (r *repository) Exists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM clients WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Client, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += ` AND name ILIKE $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM clients`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Size)
	limitArg := strconv.Itoa(len(args))
	args = append(args, (filter.Page-1)*filter.Size)
	offsetArg := strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx,
		`SELECT `+clientColumns+` FROM clients`+where+
			` ORDER BY created_at DESC, id DESC LIMIT $`+limitArg+` OFFSET $`+offsetArg,
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Name, &c.ContactPerson, &c.Email, &c.Phone, &c.Address, &c.INN,
			&c.BankName, &c.BIK, &c.CheckingAccount, &c.CorrespondentAccount, &c.Notes, &c.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Client) (*Client, error) {
	return scanClient(r.pool.QueryRow(ctx,
		`INSERT INTO clients (name, contact_person, email, phone, address, inn,
			bank_name, bik, checking_account, correspondent_account, notes, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		 RETURNING `+clientColumns,
		c.Name, c.ContactPerson, c.Email, c.Phone, c.Address, c.INN,
		c.BankName, c.BIK, c.CheckingAccount, c.CorrespondentAccount, c.Notes, time.Now()))
}

func (r *repository) Update(ctx context.Context, c Client) (*Client, error) {
	updated, err := scanClient(r.pool.QueryRow(ctx,
		`UPDATE clients SET name=$2, contact_person=$3, email=$4, phone=$5, address=$6, inn=$7,
			bank_name=$8, bik=$9, checking_account=$10, correspondent_account=$11, notes=$12
		 WHERE id = $1
		 RETURNING `+clientColumns,
		c.ID, c.Name, c.ContactPerson, c.Email, c.Phone, c.Address, c.INN,
		c.BankName, c.BIK, c.CheckingAccount, c.CorrespondentAccount, c.Notes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &shared.NotFoundError{Entity: "client", ID: c.ID}
		}
		return nil, err
	}
	return updated, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &shared.NotFoundError{Entity: "client", ID: id}
	}
	return nil
}
