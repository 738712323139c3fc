package profiles

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexbill/lexbill/internal/shared"
)

// Repository defines data access for profiles.
type Repository interface {
	Get(ctx context.Context, id int64) (*Profile, error)
	GetActive(ctx context.Context) (*Profile, error)
	List(ctx context.Context) ([]Profile, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, p Profile) (*Profile, error)
	Update(ctx context.Context, p Profile) (*Profile, error)
	// SetActive marks one profile active and clears the flag on the rest.
	SetActive(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const profileColumns = `id, label, kind, full_name, company_name, address, email, phone,
	inn, bik, checking_account, correspondent_account, iban, swift,
	default_hourly_rate, default_currency, vat_type, language, active, created_at, updated_at`

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.Label, &p.Kind, &p.FullName, &p.CompanyName, &p.Address, &p.Email, &p.Phone,
		&p.INN, &p.BIK, &p.CheckingAccount, &p.CorrespondentAccount, &p.IBAN, &p.SWIFT,
		&p.DefaultHourlyRate, &p.DefaultCurrency, &p.VatType, &p.Language, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Profile, error) {
	p, err := scanProfile(r.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM lawyer_profiles WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &shared.NotFoundError{Entity: "profile", ID: id}
		}
		return nil, err
	}
	return p, nil
}

func (r *repository) GetActive(ctx context.Context) (*Profile, error) {
	p, err := scanProfile(r.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM lawyer_profiles WHERE active ORDER BY id LIMIT 1`))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &shared.NotFoundError{Entity: "active profile"}
		}
		return nil, err
	}
	return p, nil
}

func (r *repository) List(ctx context.Context) ([]Profile, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+profileColumns+` FROM lawyer_profiles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.Label, &p.Kind, &p.FullName, &p.CompanyName, &p.Address, &p.Email, &p.Phone,
			&p.INN, &p.BIK, &p.CheckingAccount, &p.CorrespondentAccount, &p.IBAN, &p.SWIFT,
			&p.DefaultHourlyRate, &p.DefaultCurrency, &p.VatType, &p.Language, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM lawyer_profiles`).Scan(&n)
	return n, err
}

func (r *repository) Create(ctx context.Context, p Profile) (*Profile, error) {
	now := time.Now()
	return scanProfile(r.pool.QueryRow(ctx,
		`INSERT INTO lawyer_profiles (label, kind, full_name, company_name, address, email, phone,
			inn, bik, checking_account, correspondent_account, iban, swift,
			default_hourly_rate, default_currency, vat_type, language, active, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$19)
		 RETURNING `+profileColumns,
		p.Label, string(p.Kind), p.FullName, p.CompanyName, p.Address, p.Email, p.Phone,
		p.INN, p.BIK, p.CheckingAccount, p.CorrespondentAccount, p.IBAN, p.SWIFT,
		p.DefaultHourlyRate, p.DefaultCurrency, string(p.VatType), p.Language, p.Active, now))
}

func (r *repository) Update(ctx context.Context, p Profile) (*Profile, error) {
	updated, err := scanProfile(r.pool.QueryRow(ctx,
		`UPDATE lawyer_profiles SET label=$2, kind=$3, full_name=$4, company_name=$5, address=$6,
			email=$7, phone=$8, inn=$9, bik=$10, checking_account=$11, correspondent_account=$12,
			iban=$13, swift=$14, default_hourly_rate=$15, default_currency=$16, vat_type=$17,
			language=$18, updated_at=$19
		 WHERE id = $1
		 RETURNING `+profileColumns,
		p.ID, p.Label, string(p.Kind), p.FullName, p.CompanyName, p.Address,
		p.Email, p.Phone, p.INN, p.BIK, p.CheckingAccount, p.CorrespondentAccount,
		p.IBAN, p.SWIFT, p.DefaultHourlyRate, p.DefaultCurrency, string(p.VatType),
		p.Language, time.Now()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &shared.NotFoundError{Entity: "profile", ID: p.ID}
		}
		return nil, err
	}
	return updated, nil
}

func (r *repository) SetActive(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE lawyer_profiles SET active = (id = $1), updated_at = $2`, id, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &shared.NotFoundError{Entity: "profile", ID: id}
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM lawyer_profiles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &shared.NotFoundError{Entity: "profile", ID: id}
	}
	return nil
}
