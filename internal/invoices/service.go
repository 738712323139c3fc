package invoices

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexbill/lexbill/internal/fx"
	"github.com/lexbill/lexbill/internal/ledger"
	"github.com/lexbill/lexbill/internal/profiles"
	"github.com/lexbill/lexbill/internal/projects"
	"github.com/lexbill/lexbill/internal/shared"
	"github.com/lexbill/lexbill/internal/vat"
)

// EntrySource is the slice of the time ledger the engine reads.
type EntrySource interface {
	GetByIDs(ctx context.Context, ids []int64) ([]ledger.TimeEntry, error)
}

// ProjectSource supplies the rate and name basis for line items.
type ProjectSource interface {
	Get(ctx context.Context, id int64) (*projects.Project, error)
}

// ProfileSource supplies issuer defaults.
type ProfileSource interface {
	Get(ctx context.Context, id int64) (*profiles.Profile, error)
	GetActive(ctx context.Context) (*profiles.Profile, error)
}

// RateSource converts between currencies.
type RateSource interface {
	GetRate(ctx context.Context, from, to fx.Currency) (float64, error)
}

// View is an invoice with the derived overdue state resolved for display.
type View struct {
	Invoice
	DisplayStatus string `json:"display_status"`
}

// Service is the invoice engine. It assembles confirmed time entries into
// line items, computes the money math and drives the draft/sent/paid
// lifecycle.
type Service struct {
	repo        Repository
	entries     EntrySource
	projects    ProjectSource
	profiles    ProfileSource
	rates       RateSource
	idempotency *shared.IdempotencyStore
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(repo Repository, entries EntrySource, projectSource ProjectSource,
	profileSource ProfileSource, rates RateSource, idem *shared.IdempotencyStore, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		entries:     entries,
		projects:    projectSource,
		profiles:    profileSource,
		rates:       rates,
		idempotency: idem,
		logger:      logger,
		now:         time.Now,
	}
}

// WithNow overrides the clock, used by tests to pin the derived overdue
// state and invoice numbering year.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) view(inv *Invoice) *View {
	return &View{Invoice: *inv, DisplayStatus: DisplayStatus(inv, s.now())}
}

func (s *Service) Get(ctx context.Context, id int64) (*View, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(inv), nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]View, shared.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Size < 1 {
		filter.Size = shared.DefaultPageSize
	}
	rf := repoFilter{
		ClientID: filter.ClientID,
		DateFrom: filter.DateFrom,
		DateTo:   filter.DateTo,
		Page:     filter.Page,
		Size:     filter.Size,
	}
	if filter.Status != nil {
		switch *filter.Status {
		case StatusOverdue:
			sent := StatusSent
			today := truncateDay(s.now())
			rf.Status = &sent
			rf.DueBefore = &today
		case string(StatusDraft), string(StatusSent), string(StatusPaid):
			st := Status(*filter.Status)
			rf.Status = &st
		default:
			return nil, shared.Pagination{}, &shared.ValidationError{Field: "status", Reason: "unknown invoice status"}
		}
	}
	invoices, total, err := s.repo.List(ctx, rf)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list invoices: %w", err)
	}
	views := make([]View, 0, len(invoices))
	for i := range invoices {
		views = append(views, *s.view(&invoices[i]))
	}
	return views, shared.NewPagination(filter.Page, filter.Size, total), nil
}

// Create builds an invoice from confirmed time entries. The entry status
// flips to billed happen in the same transaction as the insert; a failed
// payment-currency conversion degrades to an invoice without payment
// fields instead of failing the whole operation.
func (s *Service) Create(ctx context.Context, req CreateRequest, idempotencyKey string) (*View, error) {
	issueDate, dueDate, err := parseDates(req.IssueDate, req.DueDate)
	if err != nil {
		return nil, err
	}

	profile, err := s.resolveProfile(ctx, req.ProfileID)
	if err != nil {
		return nil, err
	}

	// A billed entry maps to exactly one line item, so a repeated id in
	// the selection collapses to a single reference.
	entryIDs := dedupeIDs(req.TimeEntryIDs)

	entries, err := s.loadConfirmedEntries(ctx, entryIDs)
	if err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = profile.DefaultCurrency
	}
	if currency == "" {
		currency = string(fx.RUB)
	}
	rawVat := req.VatType
	if rawVat == "" {
		rawVat = string(profile.VatType)
	}
	if rawVat == "" {
		rawVat = string(vat.TypeNone)
	}
	vatType, err := vat.Parse(rawVat)
	if err != nil {
		return nil, err
	}

	items, rawSubtotal, err := s.buildItems(ctx, entries, profile)
	if err != nil {
		return nil, err
	}

	// Totals round once: at the subtotal and at the tax amount. The sum
	// of the two is exact by construction and never re-rounded.
	subtotal := shared.RoundMoney(rawSubtotal)
	vatAmount, err := vat.Compute(subtotal, vatType)
	if err != nil {
		return nil, err
	}
	total := subtotal + vatAmount

	inv := Invoice{
		ClientID:    req.ClientID,
		ProfileID:   profile.ID,
		IssueDate:   issueDate,
		DueDate:     dueDate,
		Status:      StatusDraft,
		Notes:       req.Notes,
		Currency:    currency,
		VatType:     string(vatType),
		Subtotal:    subtotal,
		VatAmount:   vatAmount,
		TotalAmount: total,
		Items:       items,
	}
	s.applyPaymentConversion(ctx, &inv, req.PaymentCurrency)

	year := fmt.Sprintf("%04d", issueDate.Year())
	seq, err := s.repo.NextSequence(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("next invoice number: %w", err)
	}
	inv.InvoiceNumber = fmt.Sprintf("INV-%s-%03d", year, seq)

	if idempotencyKey != "" {
		if err := s.idempotency.Reserve(ctx, idempotencyKey, "invoices.create"); err != nil {
			return nil, err
		}
	}
	created, err := s.repo.CreateWithEntries(ctx, inv, entryIDs)
	if err != nil {
		if idempotencyKey != "" {
			_ = s.idempotency.Release(ctx, idempotencyKey)
		}
		return nil, err
	}
	s.logger.Info("invoice created",
		slog.String("number", created.InvoiceNumber),
		slog.Int64("client_id", created.ClientID),
		slog.Int("items", len(created.Items)))
	return s.view(created), nil
}

func (s *Service) resolveProfile(ctx context.Context, profileID *int64) (*profiles.Profile, error) {
	if profileID != nil {
		return s.profiles.Get(ctx, *profileID)
	}
	return s.profiles.GetActive(ctx)
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func (s *Service) loadConfirmedEntries(ctx context.Context, ids []int64) ([]ledger.TimeEntry, error) {
	entries, err := s.entries.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	found := make(map[int64]bool, len(entries))
	for _, e := range entries {
		found[e.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return nil, &shared.NotFoundError{Entity: "time entry", ID: id}
		}
	}
	for _, e := range entries {
		if e.Status != ledger.StatusConfirmed {
			return nil, &shared.ValidationError{
				Field:  "time_entry_ids",
				Reason: fmt.Sprintf("entry %d has status %s, only confirmed entries can be billed", e.ID, e.Status),
			}
		}
	}
	return entries, nil
}

// buildItems snapshots each entry into a line item. The line amount is
// rounded for the printed line; the returned subtotal basis stays unrounded
// so the document total is rounded exactly once.
func (s *Service) buildItems(ctx context.Context, entries []ledger.TimeEntry, profile *profiles.Profile) ([]Item, float64, error) {
	items := make([]Item, 0, len(entries))
	var rawSubtotal float64
	for _, e := range entries {
		project, err := s.projects.Get(ctx, e.ProjectID)
		if err != nil {
			return nil, 0, fmt.Errorf("load project %d: %w", e.ProjectID, err)
		}
		rate := profile.DefaultHourlyRate
		if project.HourlyRate != nil {
			rate = *project.HourlyRate
		}
		raw := e.DurationHours * rate
		rawSubtotal += raw

		entryID := e.ID
		date := e.Date
		name := project.Name
		items = append(items, Item{
			TimeEntryID: &entryID,
			Hours:       e.DurationHours,
			Rate:        rate,
			Amount:      shared.RoundMoney(raw),
			Date:        &date,
			ProjectName: &name,
			Description: e.Description,
		})
	}
	return items, rawSubtotal, nil
}

// applyPaymentConversion fills the payment-currency fields when a different
// payment currency was requested. Conversion failure is logged and the
// invoice proceeds without payment fields.
func (s *Service) applyPaymentConversion(ctx context.Context, inv *Invoice, paymentCurrency string) {
	if paymentCurrency == "" || paymentCurrency == inv.Currency {
		return
	}
	rate, err := s.rates.GetRate(ctx, fx.Currency(inv.Currency), fx.Currency(paymentCurrency))
	if err != nil {
		s.logger.Warn("payment conversion unavailable",
			slog.String("from", inv.Currency),
			slog.String("to", paymentCurrency),
			slog.Any("error", err))
		return
	}
	amount := shared.RoundMoney(inv.TotalAmount * rate)
	inv.PaymentCurrency = &paymentCurrency
	inv.ExchangeRate = &rate
	inv.PaymentAmount = &amount
}

// Update patches issue date, due date and notes. Only draft invoices may
// be edited; everything else about the document is frozen at creation.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*View, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Empty() {
		return s.view(inv), nil
	}
	if inv.Status != StatusDraft {
		return nil, &shared.ConflictError{Entity: "invoice", ID: id, Reason: "only draft invoices can be edited"}
	}
	if req.IssueDate != nil {
		d, err := time.Parse(fx.DateLayout, *req.IssueDate)
		if err != nil {
			return nil, &shared.ValidationError{Field: "issue_date", Reason: "invalid date"}
		}
		inv.IssueDate = d
	}
	if req.DueDate != nil {
		d, err := time.Parse(fx.DateLayout, *req.DueDate)
		if err != nil {
			return nil, &shared.ValidationError{Field: "due_date", Reason: "invalid date"}
		}
		inv.DueDate = d
	}
	if inv.DueDate.Before(inv.IssueDate) {
		return nil, &shared.ValidationError{Field: "due_date", Reason: "due date before issue date"}
	}
	if req.Notes != nil {
		inv.Notes = req.Notes
	}
	updated, err := s.repo.Update(ctx, *inv)
	if err != nil {
		return nil, fmt.Errorf("update invoice: %w", err)
	}
	return s.view(updated), nil
}

// Send transitions draft to sent.
func (s *Service) Send(ctx context.Context, id int64) (*View, error) {
	return s.transition(ctx, id, StatusDraft, StatusSent)
}

// Pay transitions sent to paid. Draft invoices must be sent first.
func (s *Service) Pay(ctx context.Context, id int64) (*View, error) {
	return s.transition(ctx, id, StatusSent, StatusPaid)
}

func (s *Service) transition(ctx context.Context, id int64, from, to Status) (*View, error) {
	swapped, err := s.repo.UpdateStatus(ctx, id, from, to)
	if err != nil {
		return nil, fmt.Errorf("update invoice status: %w", err)
	}
	if !swapped {
		inv, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, &shared.InvalidStateTransitionError{
			Entity: "invoice", ID: id, From: string(inv.Status), To: string(to),
		}
	}
	return s.Get(ctx, id)
}

// Delete removes the invoice in any status and reverts the entries it
// billed back to confirmed. The compensation touches only entries still
// billed, honoring the at-most-one-invoice link.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteWithRevert(ctx, id); err != nil {
		return err
	}
	s.logger.Info("invoice deleted", slog.Int64("id", id))
	return nil
}

func parseDates(issue, due string) (time.Time, time.Time, error) {
	issueDate, err := time.Parse(fx.DateLayout, issue)
	if err != nil {
		return time.Time{}, time.Time{}, &shared.ValidationError{Field: "issue_date", Reason: "invalid date"}
	}
	dueDate, err := time.Parse(fx.DateLayout, due)
	if err != nil {
		return time.Time{}, time.Time{}, &shared.ValidationError{Field: "due_date", Reason: "invalid date"}
	}
	if dueDate.Before(issueDate) {
		return time.Time{}, time.Time{}, &shared.ValidationError{Field: "due_date", Reason: "due date before issue date"}
	}
	return issueDate, dueDate, nil
}
