package projects

import (
	"context"
	"fmt"

	"github.com/lexbill/lexbill/internal/shared"
)

// ClientDirectory is the slice of the client module the service depends on.
type ClientDirectory interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Service coordinates project CRUD and per-project hour aggregation.
type Service struct {
	repo    Repository
	clients ClientDirectory
}

func NewService(repo Repository, clients ClientDirectory) *Service {
	return &Service{repo: repo, clients: clients}
}

// Exists reports whether a project exists. The time ledger uses it to
// validate entries before accepting them.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	return s.repo.Exists(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Project, shared.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Size < 1 {
		filter.Size = shared.DefaultPageSize
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list projects: %w", err)
	}
	return items, shared.NewPagination(filter.Page, filter.Size, total), nil
}

// Get returns the project together with its hour stats.
func (s *Service) Get(ctx context.Context, id int64) (*Detail, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.repo.Stats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("project stats: %w", err)
	}
	var total, confirmed, billed float64
	for status, hours := range byStatus {
		total += hours
		switch status {
		case "confirmed":
			confirmed += hours
		case "billed":
			billed += hours
		}
	}
	return &Detail{
		Project: *p,
		Stats: Stats{
			TotalHours:     shared.HoursString(total),
			ConfirmedHours: shared.HoursString(confirmed),
			UnbilledHours:  shared.HoursString(total - billed),
		},
	}, nil
}

func (s *Service) Create(ctx context.Context, req UpsertRequest) (*Project, error) {
	ok, err := s.clients.Exists(ctx, req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("check client: %w", err)
	}
	if !ok {
		return nil, &shared.NotFoundError{Entity: "client", ID: req.ClientID}
	}
	p := projectFromRequest(req)
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpsertRequest) (*Project, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p := projectFromRequest(req)
	p.ID = id
	p.ClientID = existing.ClientID
	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return updated, nil
}

// Delete removes a project. Projects with time entries cannot be deleted;
// the entries have to go first.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	count, err := s.repo.EntryCount(ctx, id)
	if err != nil {
		return fmt.Errorf("count entries: %w", err)
	}
	if count > 0 {
		return &shared.ConflictError{
			Entity: "project",
			ID:     id,
			Reason: fmt.Sprintf("has %d time entries", count),
		}
	}
	return s.repo.Delete(ctx, id)
}

func projectFromRequest(req UpsertRequest) Project {
	p := Project{
		ClientID:    req.ClientID,
		Name:        req.Name,
		Description: req.Description,
		HourlyRate:  req.HourlyRate,
		Currency:    req.Currency,
		Status:      req.Status,
	}
	if p.Currency == "" {
		p.Currency = "RUB"
	}
	if p.Status == "" {
		p.Status = StatusActive
	}
	return p
}
