package profiles

import (
	"context"
	"fmt"

	"github.com/lexbill/lexbill/internal/shared"
	"github.com/lexbill/lexbill/internal/vat"
)

// Service handles profile business logic.
type Service struct {
	repo Repository
}

// NewService builds the profile service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns every profile.
func (s *Service) List(ctx context.Context) ([]Profile, error) {
	return s.repo.List(ctx)
}

// Get returns one profile.
func (s *Service) Get(ctx context.Context, id int64) (*Profile, error) {
	return s.repo.Get(ctx, id)
}

// GetActive returns the profile used as the invoice issuer default.
func (s *Service) GetActive(ctx context.Context) (*Profile, error) {
	return s.repo.GetActive(ctx)
}

// Create adds a profile. The first profile ever created becomes active.
func (s *Service) Create(ctx context.Context, req UpsertRequest) (*Profile, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count profiles: %w", err)
	}
	vt, _ := vat.Parse(req.VatType)
	profile := profileFromRequest(req)
	profile.VatType = vt
	profile.Active = count == 0
	return s.repo.Create(ctx, profile)
}

// Update replaces a profile's fields.
func (s *Service) Update(ctx context.Context, id int64, req UpsertRequest) (*Profile, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	vt, _ := vat.Parse(req.VatType)
	profile := profileFromRequest(req)
	profile.ID = existing.ID
	profile.VatType = vt
	profile.Active = existing.Active
	return s.repo.Update(ctx, profile)
}

// SetActive marks a profile as the invoice issuer default.
func (s *Service) SetActive(ctx context.Context, id int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.SetActive(ctx, id)
}

// Delete removes a profile. The last remaining profile cannot be deleted;
// deleting the active one promotes another.
func (s *Service) Delete(ctx context.Context, id int64) error {
	profile, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	count, err := s.repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count profiles: %w", err)
	}
	if count <= 1 {
		return &shared.ConflictError{Entity: "profile", ID: id, Reason: "cannot delete the last remaining profile"}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if profile.Active {
		remaining, err := s.repo.List(ctx)
		if err != nil {
			return fmt.Errorf("list profiles: %w", err)
		}
		if len(remaining) > 0 {
			return s.repo.SetActive(ctx, remaining[0].ID)
		}
	}
	return nil
}

func profileFromRequest(req UpsertRequest) Profile {
	return Profile{
		Label:                req.Label,
		Kind:                 Kind(req.Kind),
		FullName:             req.FullName,
		CompanyName:          req.CompanyName,
		Address:              req.Address,
		Email:                req.Email,
		Phone:                req.Phone,
		INN:                  req.INN,
		BIK:                  req.BIK,
		CheckingAccount:      req.CheckingAccount,
		CorrespondentAccount: req.CorrespondentAccount,
		IBAN:                 req.IBAN,
		SWIFT:                req.SWIFT,
		DefaultHourlyRate:    req.DefaultHourlyRate,
		DefaultCurrency:      req.DefaultCurrency,
		Language:             req.Language,
	}
}
