package invoices

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lexbill/lexbill/internal/fx"
	"github.com/lexbill/lexbill/internal/ledger"
	"github.com/lexbill/lexbill/internal/profiles"
	"github.com/lexbill/lexbill/internal/projects"
	"github.com/lexbill/lexbill/internal/shared"
	"github.com/lexbill/lexbill/internal/vat"
)

// memoryStore backs both the invoice repository and the entry source so
// tests can observe the status flips invoice creation applies.
type memoryStore struct {
	nextInvoiceID int64
	nextItemID    int64
	invoices      map[int64]*Invoice
	entries       map[int64]*ledger.TimeEntry
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		nextInvoiceID: 1,
		nextItemID:    1,
		invoices:      make(map[int64]*Invoice),
		entries:       make(map[int64]*ledger.TimeEntry),
	}
}

func (m *memoryStore) addEntry(id, projectID int64, hours float64, status ledger.Status) {
	m.entries[id] = &ledger.TimeEntry{
		ID:            id,
		ProjectID:     projectID,
		Date:          time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		DurationHours: hours,
		Status:        status,
	}
}

func (m *memoryStore) GetByIDs(_ context.Context, ids []int64) ([]ledger.TimeEntry, error) {
	var out []ledger.TimeEntry
	for _, id := range ids {
		if e, ok := m.entries[id]; ok {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *memoryStore) Get(_ context.Context, id int64) (*Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return nil, &shared.NotFoundError{Entity: "invoice", ID: id}
	}
	copied := *inv
	copied.Items = append([]Item{}, inv.Items...)
	return &copied, nil
}

func (m *memoryStore) List(_ context.Context, filter repoFilter) ([]Invoice, int, error) {
	var out []Invoice
	for _, inv := range m.invoices {
		if filter.ClientID != nil && inv.ClientID != *filter.ClientID {
			continue
		}
		if filter.Status != nil && inv.Status != *filter.Status {
			continue
		}
		if filter.DueBefore != nil && !inv.DueDate.Before(*filter.DueBefore) {
			continue
		}
		if filter.DateFrom != nil && inv.IssueDate.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && inv.IssueDate.After(*filter.DateTo) {
			continue
		}
		out = append(out, *inv)
	}
	return out, len(out), nil
}

func (m *memoryStore) NextSequence(_ context.Context, year string) (int, error) {
	count := 0
	for _, inv := range m.invoices {
		if containsYear(inv.InvoiceNumber, year) {
			count++
		}
	}
	return count + 1, nil
}

func containsYear(number, year string) bool {
	for i := 0; i+len(year) <= len(number); i++ {
		if number[i:i+len(year)] == year {
			return true
		}
	}
	return false
}

func (m *memoryStore) CreateWithEntries(_ context.Context, inv Invoice, entryIDs []int64) (*Invoice, error) {
	// All-or-nothing: verify every entry first, flip after.
	for _, id := range entryIDs {
		e, ok := m.entries[id]
		if !ok || e.Status != ledger.StatusConfirmed {
			return nil, &shared.ConflictError{Entity: "time entry", Reason: "entry left confirmed status during invoicing"}
		}
	}
	inv.ID = m.nextInvoiceID
	m.nextInvoiceID++
	inv.CreatedAt = time.Now()
	for i := range inv.Items {
		inv.Items[i].ID = m.nextItemID
		inv.Items[i].InvoiceID = inv.ID
		m.nextItemID++
	}
	for _, id := range entryIDs {
		m.entries[id].Status = ledger.StatusBilled
	}
	stored := inv
	m.invoices[inv.ID] = &stored
	copied := inv
	copied.Items = append([]Item{}, inv.Items...)
	return &copied, nil
}

func (m *memoryStore) Update(_ context.Context, inv Invoice) (*Invoice, error) {
	existing, ok := m.invoices[inv.ID]
	if !ok {
		return nil, &shared.NotFoundError{Entity: "invoice", ID: inv.ID}
	}
	existing.IssueDate = inv.IssueDate
	existing.DueDate = inv.DueDate
	existing.Notes = inv.Notes
	copied := *existing
	return &copied, nil
}

func (m *memoryStore) UpdateStatus(_ context.Context, id int64, from, to Status) (bool, error) {
	inv, ok := m.invoices[id]
	if !ok || inv.Status != from {
		return false, nil
	}
	inv.Status = to
	return true, nil
}

func (m *memoryStore) DeleteWithRevert(_ context.Context, id int64) error {
	inv, ok := m.invoices[id]
	if !ok {
		return &shared.NotFoundError{Entity: "invoice", ID: id}
	}
	for _, item := range inv.Items {
		if item.TimeEntryID == nil {
			continue
		}
		if e, ok := m.entries[*item.TimeEntryID]; ok && e.Status == ledger.StatusBilled {
			e.Status = ledger.StatusConfirmed
		}
	}
	delete(m.invoices, id)
	return nil
}

type fakeProjects struct {
	byID map[int64]projects.Project
}

func (f fakeProjects) Get(_ context.Context, id int64) (*projects.Project, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, &shared.NotFoundError{Entity: "project", ID: id}
	}
	return &p, nil
}

type fakeProfiles struct {
	active profiles.Profile
}

func (f fakeProfiles) Get(_ context.Context, id int64) (*profiles.Profile, error) {
	if id != f.active.ID {
		return nil, &shared.NotFoundError{Entity: "profile", ID: id}
	}
	p := f.active
	return &p, nil
}

func (f fakeProfiles) GetActive(_ context.Context) (*profiles.Profile, error) {
	p := f.active
	return &p, nil
}

type fakeRates struct {
	rate  float64
	err   error
	calls int
}

func (f *fakeRates) GetRate(_ context.Context, _, _ fx.Currency) (float64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.rate, nil
}

func ptr[T any](v T) *T { return &v }

type fixture struct {
	store *memoryStore
	rates *fakeRates
	svc   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemoryStore()
	rates := &fakeRates{rate: 0.92}
	rate100 := 100.0
	rate50 := 50.0
	projectSource := fakeProjects{byID: map[int64]projects.Project{
		1: {ID: 1, ClientID: 1, Name: "Arbitration", HourlyRate: &rate100, Currency: "RUB"},
		2: {ID: 2, ClientID: 1, Name: "Due Diligence", HourlyRate: &rate50, Currency: "RUB"},
		3: {ID: 3, ClientID: 2, Name: "Advisory", Currency: "RUB"},
	}}
	profileSource := fakeProfiles{active: profiles.Profile{
		ID:                7,
		Label:             "Main",
		DefaultHourlyRate: 80,
		DefaultCurrency:   "RUB",
		VatType:           vat.TypeNone,
		Active:            true,
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(store, store, projectSource, profileSource, rates, nil, logger).
		WithNow(func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) })
	return &fixture{store: store, rates: rates, svc: svc}
}

func baseRequest(entryIDs ...int64) CreateRequest {
	return CreateRequest{
		ClientID:     1,
		TimeEntryIDs: entryIDs,
		IssueDate:    "2024-03-15",
		DueDate:      "2024-03-29",
	}
}

func TestCreateSingleEntryWithVat(t *testing.T) {
	f := newFixture(t)
	f.store.addEntry(10, 1, 2.5, ledger.StatusConfirmed)

	req := baseRequest(10)
	req.VatType = "vat20"
	view, err := f.svc.Create(context.Background(), req, "")
	require.NoError(t, err)

	require.Equal(t, "INV-2024-001", view.InvoiceNumber)
	require.Equal(t, StatusDraft, view.Status)
	require.Len(t, view.Items, 1)
	require.Equal(t, 250.00, view.Items[0].Amount)
	require.Equal(t, 250.00, view.Subtotal)
	require.Equal(t, 50.00, view.VatAmount)
	require.Equal(t, 300.00, view.TotalAmount)
	require.Equal(t, ledger.StatusBilled, f.store.entries[10].Status)

	require.Equal(t, "Arbitration", *view.Items[0].ProjectName)
	require.NotNil(t, view.Items[0].Date)
}

func TestCreateMultipleEntriesNoVat(t *testing.T) {
	f := newFixture(t)
	f.store.addEntry(10, 2, 3.0, ledger.StatusConfirmed)
	f.store.addEntry(11, 2, 1.5, ledger.StatusConfirmed)
	f.store.addEntry(12, 2, 8.0, ledger.StatusConfirmed) // not selected

	view, err := f.svc.Create(context.Background(), baseRequest(10, 11), "")
	require.NoError(t, err)

	require.Equal(t, 225.00, view.Subtotal)
	require.Equal(t, 0.00, view.VatAmount)
	require.Equal(t, 225.00, view.TotalAmount)
	require.Equal(t, ledger.StatusBilled, f.store.entries[10].Status)
	require.Equal(t, ledger.StatusBilled, f.store.entries[11].Status)
	// entries outside the selection never change status
	require.Equal(t, ledger.StatusConfirmed, f.store.entries[12].Status)
}

func TestCreateCollapsesRepeatedEntryIDs(t *testing.T) {
	f := newFixture(t)
	f.store.addEntry(20, 1, 1.0, ledger.StatusConfirmed)

	view, err := f.svc.Create(context.Background(), baseRequest(20, 20, 20), "")
	require.NoError(t, err)

	// A billed entry is referenced by exactly one line item, however many
	// times it appears in the selection.
	require.Len(t, view.Items, 1)
	require.Equal(t, 100.00, view.Subtotal)
	require.Equal(t, ledger.StatusBilled, f.store.entries[20].Status)
}

func TestCreateTotalIsSumOfParts(t *testing.T) {
	f := newFixture(t)
	rate := 100.25
	f.store.addEntry(10, 1, 1.0, ledger.StatusConfirmed)
	f.svc.projects = fakeProjects{byID: map[int64]projects.Project{
		1: {ID: 1, ClientID: 1, Name: "Arbitration", HourlyRate: &rate},
	}}

	req := baseRequest(10)
	req.VatType = "vat10"
	view, err := f.svc.Create(context.Background(), req, "")
	require.NoError(t, err)

	require.Equal(t, 100.25, view.Subtotal)
	require.Equal(t, 10.03, view.VatAmount) // half-up
	require.Equal(t, view.Subtotal+view.VatAmount, view.TotalAmount)
}

func TestCreateRoundsOnceAtTotalLevel(t *testing.T) {
	f := newFixture(t)
	rate := 33.33
	f.svc.projects = fakeProjects{byID: map[int64]projects.Project{
		1: {ID: 1, ClientID: 1, Name: "Arbitration", HourlyRate: &rate},
	}}
	// three lines of 0.1h each: raw 3.333 per line, 9.999 in total
	f.store.addEntry(10, 1, 0.1, ledger.StatusConfirmed)
	f.store.addEntry(11, 1, 0.1, ledger.StatusConfirmed)
	f.store.addEntry(12, 1, 0.1, ledger.StatusConfirmed)

	view, err := f.svc.Create(context.Background(), baseRequest(10, 11, 12), "")
	require.NoError(t, err)

	// line amounts round for display, the subtotal rounds the raw sum
	for _, item := range view.Items {
		require.Equal(t, 3.33, item.Amount)
	}
	require.Equal(t, 10.00, view.Subtotal)
}

func TestCreateRejectsUnconfirmedEntry(t *testing.T) {
	f := newFixture(t)
	f.store.addEntry(10, 1, 2.0, ledger.StatusConfirmed)
	f.store.addEntry(11, 1, 1.0, ledger.StatusDraft)

	_, err := f.svc.Create(context.Background(), baseRequest(10, 11), "")
	var validation *shared.ValidationError
	require.True(t, errors.As(err, &validation))
	require.Equal(t, "time_entry_ids", validation.Field)

	// nothing was applied
	require.Empty(t, f.store.invoices)
	require.Equal(t, ledger.StatusConfirmed, f.store.entries[10].Status)
	require.Equal(t, ledger.StatusDraft, f.store.entries[11].Status)
}

func TestCreateRejectsUnknownEntry(t *testing.T) {
	f := newFixture(t)
	f.store.addEntry(10, 1, 2.0, ledger.StatusConfirmed)

	_, err := f.svc.Create(context.Background(), baseRequest(10, 99), "")
	var notFound *shared.NotFoundError
	require.True(t, errors.As(err, &notFound))
	require.Equal(t, int64(99), notFound.ID)
	require.Empty(t, f.store.invoices)
}

func TestCreateRejectsDueBeforeIssue(t *testing.T) {
	f := newFixture(t)
	f.store.addEntry(10, 1, 2.0, ledger.StatusConfirmed)

	req := baseRequest(10)
	req.DueDate = "2024-03-01"
	_, err := f.svc.Create(context.Background(), req, "")
	var validation *shared.ValidationError
	require.True(t, errors.As(err, &validation))
	require.Equal(t, "due_date", validation.Field)
}

func TestCreateRejectsUnknownVatCategory(t *testing.T) {
	f := newFixture(t)
	f.store.addEntry(10, 1, 2.0, ledger.StatusConfirmed)

	req := baseRequest(10)
	req.VatType = "vat22"
	_, err := f.svc.Create(context.Background(), req, "")
	var validation *shared.ValidationError
	require.True(t, errors.As(err, &validation))
	require.Equal(t, "vat_type", validation.Field)
}

func TestCreateFallsBackToProfileRate(t *testing.T) {
	f := newFixture(t)
	// project 3 has no hourly rate of its own
	f.store.addEntry(10, 3, 2.0, ledger.StatusConfirmed)

	view, err := f.svc.Create(context.Background(), baseRequest(10), "")
	require.NoError(t, err)
	require.Equal(t, 80.0, view.Items[0].Rate)
	require.Equal(t, 160.00, view.Subtotal)
}

func TestCreateDefaultsFromProfile(t *testing.T) {
	f := newFixture(t)
	f.store.addEntry(10, 1, 1.0, ledger.StatusConfirmed)

	view, err := f.svc.Create(context.Background(), baseRequest(10), "")
	require.NoError(t, err)
	require.Equal(t, "RUB", view.Currency)
	require.Equal(t, string(vat.TypeNone), view.VatType)
	require.Equal(t, int64(7), view.ProfileID)
}

func TestCreateWithPaymentCurrency(t *testing.T) {
	f := newFixture(t)
	f.store.addEntry(10, 1, 2.5, ledger.StatusConfirmed)

	req := baseRequest(10)
	req.Currency = "USD"
	req.PaymentCurrency = "EUR"
	view, err := f.svc.Create(context.Background(), req, "")
	require.NoError(t, err)

	require.Equal(t, "EUR", *view.PaymentCurrency)
	require.Equal(t, 0.92, *view.ExchangeRate)
	require.Equal(t, 230.00, *view.PaymentAmount) // 250 × 0.92
}

func TestCreateSurvivesRateFailure(t *testing.T) {
	f := newFixture(t)
	f.store.addEntry(10, 1, 2.5, ledger.StatusConfirmed)
	f.rates.err = &shared.RateUnavailableError{Currency: "EUR"}

	req := baseRequest(10)
	req.Currency = "USD"
	req.PaymentCurrency = "EUR"
	view, err := f.svc.Create(context.Background(), req, "")
	require.NoError(t, err)

	require.Nil(t, view.PaymentCurrency)
	require.Nil(t, view.ExchangeRate)
	require.Nil(t, view.PaymentAmount)
	require.Equal(t, ledger.StatusBilled, f.store.entries[10].Status)
}

func TestCreateSkipsConversionForSameCurrency(t *testing.T) {
	f := newFixture(t)
	f.store.addEntry(10, 1, 1.0, ledger.StatusConfirmed)

	req := baseRequest(10)
	req.Currency = "USD"
	req.PaymentCurrency = "USD"
	view, err := f.svc.Create(context.Background(), req, "")
	require.NoError(t, err)
	require.Nil(t, view.PaymentCurrency)
	require.Zero(t, f.rates.calls)
}

func TestNumberingSequencePerYear(t *testing.T) {
	f := newFixture(t)
	for id := int64(10); id <= 13; id++ {
		f.store.addEntry(id, 1, 1.0, ledger.StatusConfirmed)
	}

	first, err := f.svc.Create(context.Background(), baseRequest(10), "")
	require.NoError(t, err)
	second, err := f.svc.Create(context.Background(), baseRequest(11), "")
	require.NoError(t, err)
	require.Equal(t, "INV-2024-001", first.InvoiceNumber)
	require.Equal(t, "INV-2024-002", second.InvoiceNumber)

	// sequence resets at the year boundary
	req := baseRequest(12)
	req.IssueDate = "2025-01-10"
	req.DueDate = "2025-01-24"
	third, err := f.svc.Create(context.Background(), req, "")
	require.NoError(t, err)
	require.Equal(t, "INV-2025-001", third.InvoiceNumber)
}

func TestSendAndPayTransitions(t *testing.T) {
	f := newFixture(t)
	f.store.addEntry(10, 1, 1.0, ledger.StatusConfirmed)
	created, err := f.svc.Create(context.Background(), baseRequest(10), "")
	require.NoError(t, err)
	ctx := context.Background()

	// pay before send is not a valid transition
	_, err = f.svc.Pay(ctx, created.ID)
	var transition *shared.InvalidStateTransitionError
	require.True(t, errors.As(err, &transition))
	require.Equal(t, "draft", transition.From)

	sent, err := f.svc.Send(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSent, sent.Status)

	_, err = f.svc.Send(ctx, created.ID)
	require.True(t, errors.As(err, &transition))

	paid, err := f.svc.Pay(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, paid.Status)

	_, err = f.svc.Pay(ctx, created.ID)
	require.True(t, errors.As(err, &transition))
}

func TestUpdateOnlyDraft(t *testing.T) {
	f := newFixture(t)
	f.store.addEntry(10, 1, 1.0, ledger.StatusConfirmed)
	created, err := f.svc.Create(context.Background(), baseRequest(10), "")
	require.NoError(t, err)
	ctx := context.Background()

	updated, err := f.svc.Update(ctx, created.ID, UpdateRequest{Notes: ptr("wire transfer expected")})
	require.NoError(t, err)
	require.Equal(t, "wire transfer expected", *updated.Notes)

	_, err = f.svc.Update(ctx, created.ID, UpdateRequest{DueDate: ptr("2024-03-01")})
	var validation *shared.ValidationError
	require.True(t, errors.As(err, &validation))

	_, err = f.svc.Send(ctx, created.ID)
	require.NoError(t, err)
	_, err = f.svc.Update(ctx, created.ID, UpdateRequest{Notes: ptr("too late")})
	var conflict *shared.ConflictError
	require.True(t, errors.As(err, &conflict))
}

func TestDeleteRevertsBilledEntries(t *testing.T) {
	f := newFixture(t)
	f.store.addEntry(10, 1, 1.0, ledger.StatusConfirmed)
	f.store.addEntry(11, 1, 2.0, ledger.StatusConfirmed)
	f.store.addEntry(12, 1, 3.0, ledger.StatusConfirmed)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, baseRequest(10, 11), "")
	require.NoError(t, err)
	other, err := f.svc.Create(ctx, baseRequest(12), "")
	require.NoError(t, err)

	// a paid invoice still reverts its entries on deletion
	_, err = f.svc.Send(ctx, first.ID)
	require.NoError(t, err)
	_, err = f.svc.Pay(ctx, first.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, first.ID))
	require.Equal(t, ledger.StatusConfirmed, f.store.entries[10].Status)
	require.Equal(t, ledger.StatusConfirmed, f.store.entries[11].Status)
	// entries billed by another invoice are untouched
	require.Equal(t, ledger.StatusBilled, f.store.entries[12].Status)

	_, err = f.svc.Get(ctx, first.ID)
	var notFound *shared.NotFoundError
	require.True(t, errors.As(err, &notFound))
	_, err = f.svc.Get(ctx, other.ID)
	require.NoError(t, err)
}

func TestListOverdueIsDerived(t *testing.T) {
	f := newFixture(t)
	f.store.addEntry(10, 1, 1.0, ledger.StatusConfirmed)
	f.store.addEntry(11, 1, 1.0, ledger.StatusConfirmed)
	ctx := context.Background()

	// due before the fixed clock of 2024-03-15
	pastDue := baseRequest(10)
	pastDue.IssueDate = "2024-02-01"
	pastDue.DueDate = "2024-02-15"
	overdue, err := f.svc.Create(ctx, pastDue, "")
	require.NoError(t, err)
	_, err = f.svc.Send(ctx, overdue.ID)
	require.NoError(t, err)

	current, err := f.svc.Create(ctx, baseRequest(11), "")
	require.NoError(t, err)
	_, err = f.svc.Send(ctx, current.ID)
	require.NoError(t, err)

	status := StatusOverdue
	views, pagination, err := f.svc.List(ctx, ListFilter{Status: &status})
	require.NoError(t, err)
	require.Equal(t, 1, pagination.Total)
	require.Len(t, views, 1)
	require.Equal(t, overdue.ID, views[0].ID)
	// persisted status stays sent, overdue is display-level only
	require.Equal(t, StatusSent, views[0].Status)
	require.Equal(t, StatusOverdue, views[0].DisplayStatus)

	view, err := f.svc.Get(ctx, current.ID)
	require.NoError(t, err)
	require.Equal(t, "sent", view.DisplayStatus)
}
