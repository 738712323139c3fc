package clients

import (
	"context"
	"fmt"
	"strings"

	"github.com/lexbill/lexbill/internal/shared"
)

// Service handles client directory logic.
type Service struct {
	repo Repository
}

// NewService builds the client service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id int64) (*Client, error) {
	return s.repo.Get(ctx, id)
}

// Exists reports whether a client exists. The project directory uses it
// to validate ownership before creating a project.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	return s.repo.Exists(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Client, shared.Pagination, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Size <= 0 {
		filter.Size = shared.DefaultPageSize
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list clients: %w", err)
	}
	return items, shared.NewPagination(filter.Page, filter.Size, total), nil
}

func (s *Service) Create(ctx context.Context, req UpsertRequest) (*Client, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, &shared.ValidationError{Field: "name", Reason: "required"}
	}
	return s.repo.Create(ctx, clientFromRequest(req))
}

func (s *Service) Update(ctx context.Context, id int64, req UpsertRequest) (*Client, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, &shared.ValidationError{Field: "name", Reason: "required"}
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	c := clientFromRequest(req)
	c.ID = id
	return s.repo.Update(ctx, c)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func clientFromRequest(req UpsertRequest) Client {
	return Client{
		Name:                 req.Name,
		ContactPerson:        req.ContactPerson,
		Email:                req.Email,
		Phone:                req.Phone,
		Address:              req.Address,
		INN:                  req.INN,
		BankName:             req.BankName,
		BIK:                  req.BIK,
		CheckingAccount:      req.CheckingAccount,
		CorrespondentAccount: req.CorrespondentAccount,
		Notes:                req.Notes,
	}
}
