package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/lexbill/lexbill/internal/shared"
)

// ProjectDirectory is the read contract the ledger needs from the project
// directory: entry creation verifies the owning project exists.
type ProjectDirectory interface {
	Exists(ctx context.Context, projectID int64) (bool, error)
}

// Service handles time entry business logic.
type Service struct {
	repo     Repository
	projects ProjectDirectory
}

// NewService builds the ledger service.
func NewService(repo Repository, projects ProjectDirectory) *Service {
	return &Service{repo: repo, projects: projects}
}

// List returns entries filtered by project, client, status and date range,
// sorted by date descending with created_at as tiebreak.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]TimeEntry, shared.Pagination, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Size <= 0 {
		filter.Size = shared.DefaultPageSize
	}
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list time entries: %w", err)
	}
	return entries, shared.NewPagination(filter.Page, filter.Size, total), nil
}

// Create records a new entry. Entries always start as drafts.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*TimeEntry, error) {
	hours := shared.RoundHours(req.DurationHours)
	if hours <= 0 {
		return nil, &shared.ValidationError{Field: "duration_hours", Reason: "must be positive"}
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, &shared.ValidationError{Field: "date", Reason: "must be a calendar date"}
	}

	ok, err := s.projects.Exists(ctx, req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("verify project: %w", err)
	}
	if !ok {
		return nil, &shared.NotFoundError{Entity: "project", ID: req.ProjectID}
	}

	entry := TimeEntry{
		ProjectID:     req.ProjectID,
		Date:          date,
		DurationHours: hours,
		Description:   req.Description,
		Status:        StatusDraft,
	}
	return s.repo.Create(ctx, entry)
}

// Update patches an entry not yet billed. Billed entries are financial
// records frozen by their invoice.
func (s *Service) Update(ctx context.Context, id int64, patch UpdatePatch) (*TimeEntry, error) {
	entry, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.Status == StatusBilled && !patch.Empty() {
		return nil, &shared.ConflictError{Entity: "time entry", ID: id, Reason: "entry is billed; edit or delete its invoice instead"}
	}

	if patch.Date != nil {
		date, err := time.Parse("2006-01-02", *patch.Date)
		if err != nil {
			return nil, &shared.ValidationError{Field: "date", Reason: "must be a calendar date"}
		}
		entry.Date = date
	}
	if patch.DurationHours != nil {
		hours := shared.RoundHours(*patch.DurationHours)
		if hours <= 0 {
			return nil, &shared.ValidationError{Field: "duration_hours", Reason: "must be positive"}
		}
		entry.DurationHours = hours
	}
	if patch.Description != nil {
		entry.Description = patch.Description
	}

	return s.repo.Update(ctx, *entry)
}

// Confirm transitions a draft entry to confirmed.
func (s *Service) Confirm(ctx context.Context, id int64) (*TimeEntry, error) {
	entry, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.Status != StatusDraft {
		return nil, &shared.InvalidStateTransitionError{
			Entity: "time entry", ID: id,
			From: string(entry.Status), To: string(StatusConfirmed),
		}
	}
	swapped, err := s.repo.UpdateStatus(ctx, id, StatusDraft, StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("confirm entry: %w", err)
	}
	if !swapped {
		// Lost the race with another confirm or an invoice creation.
		return nil, &shared.InvalidStateTransitionError{
			Entity: "time entry", ID: id,
			From: string(entry.Status), To: string(StatusConfirmed),
		}
	}
	return s.repo.Get(ctx, id)
}

// BulkConfirm confirms every listed draft entry independently. Entries in
// other statuses are skipped and reported, never failed. Unknown ids fail
// the whole batch before any entry changes.
func (s *Service) BulkConfirm(ctx context.Context, ids []int64) (*BulkConfirmResult, error) {
	if len(ids) == 0 {
		return nil, &shared.ValidationError{Field: "time_entry_ids", Reason: "must not be empty"}
	}
	entries, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	found := make(map[int64]*TimeEntry, len(entries))
	for i := range entries {
		found[entries[i].ID] = &entries[i]
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return nil, &shared.NotFoundError{Entity: "time entry", ID: id}
		}
	}

	result := &BulkConfirmResult{SkippedIDs: []int64{}}
	for _, id := range ids {
		entry := found[id]
		if entry.Status != StatusDraft {
			result.SkippedCount++
			result.SkippedIDs = append(result.SkippedIDs, id)
			continue
		}
		swapped, err := s.repo.UpdateStatus(ctx, id, StatusDraft, StatusConfirmed)
		if err != nil {
			return nil, fmt.Errorf("confirm entry %d: %w", id, err)
		}
		if !swapped {
			result.SkippedCount++
			result.SkippedIDs = append(result.SkippedIDs, id)
			continue
		}
		result.ConfirmedCount++
	}
	return result, nil
}

// Delete removes an entry that has not been billed.
func (s *Service) Delete(ctx context.Context, id int64) error {
	entry, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if entry.Status == StatusBilled {
		return &shared.ConflictError{Entity: "time entry", ID: id, Reason: "entry is billed; delete its invoice first"}
	}
	return s.repo.Delete(ctx, id)
}
