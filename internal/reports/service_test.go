package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lexbill/lexbill/internal/invoices"
	"github.com/lexbill/lexbill/internal/profiles"
	"github.com/lexbill/lexbill/internal/vat"
)

type memoryRepo struct {
	entries      []EntryRow
	invoiceRows  []InvoiceRow
	unpaidTotal  float64
	overdueCount int
}

func (m *memoryRepo) EntriesInRange(_ context.Context, from, to time.Time, clientID *int64) ([]EntryRow, error) {
	var out []EntryRow
	for _, e := range m.entries {
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		if clientID != nil && e.ClientID != *clientID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *memoryRepo) ConfirmedEntries(_ context.Context) ([]EntryRow, error) {
	var out []EntryRow
	for _, e := range m.entries {
		if e.Status == "confirmed" {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryRepo) HoursBetween(_ context.Context, from, to time.Time) (float64, error) {
	var hours float64
	for _, e := range m.entries {
		if !e.Date.Before(from) && !e.Date.After(to) {
			hours += e.Hours
		}
	}
	return hours, nil
}

func (m *memoryRepo) InvoicesInRange(_ context.Context, from, to time.Time, clientID *int64) ([]InvoiceRow, error) {
	var out []InvoiceRow
	for _, row := range m.invoiceRows {
		if row.IssueDate.Before(from) || row.IssueDate.After(to) {
			continue
		}
		if clientID != nil && row.ClientID != *clientID {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *memoryRepo) UnpaidTotal(_ context.Context) (float64, error) {
	return m.unpaidTotal, nil
}

func (m *memoryRepo) OverdueCount(_ context.Context, _ time.Time) (int, error) {
	return m.overdueCount, nil
}

func (m *memoryRepo) RecentEntries(_ context.Context, limit int) ([]EntryRow, error) {
	if len(m.entries) > limit {
		return m.entries[:limit], nil
	}
	return m.entries, nil
}

func (m *memoryRepo) RecentInvoices(_ context.Context, limit int) ([]InvoiceRow, error) {
	if len(m.invoiceRows) > limit {
		return m.invoiceRows[:limit], nil
	}
	return m.invoiceRows, nil
}

type fakeProfiles struct{}

func (fakeProfiles) GetActive(_ context.Context) (*profiles.Profile, error) {
	return &profiles.Profile{
		ID:                1,
		DefaultHourlyRate: 80,
		DefaultCurrency:   "USD",
		VatType:           vat.TypeNone,
		Language:          "en",
		Active:            true,
	}, nil
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func newTestService(repo *memoryRepo) *Service {
	return NewService(repo, fakeProfiles{}).
		WithNow(func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) })
}

func TestBuildReportGroupsByClientAndProject(t *testing.T) {
	repo := &memoryRepo{entries: []EntryRow{
		{EntryID: 1, Date: day(1), Hours: 2.0, Status: "confirmed", ProjectID: 1, ProjectName: "Arbitration", ProjectRate: ptr(100.0), ClientID: 1, ClientName: "Acme"},
		{EntryID: 2, Date: day(2), Hours: 1.5, Status: "billed", ProjectID: 1, ProjectName: "Arbitration", ProjectRate: ptr(100.0), ClientID: 1, ClientName: "Acme"},
		{EntryID: 3, Date: day(3), Hours: 1.0, Status: "draft", ProjectID: 2, ProjectName: "Advisory", ClientID: 1, ClientName: "Acme"},
		{EntryID: 4, Date: day(4), Hours: 6.0, Status: "confirmed", ProjectID: 3, ProjectName: "Litigation", ProjectRate: ptr(120.0), ClientID: 2, ClientName: "Zenith"},
		// outside the period
		{EntryID: 5, Date: day(25), Hours: 9.0, Status: "draft", ProjectID: 3, ProjectName: "Litigation", ProjectRate: ptr(120.0), ClientID: 2, ClientName: "Zenith"},
	}}
	svc := newTestService(repo)

	report, err := svc.BuildReport(context.Background(), day(1), day(10), nil)
	require.NoError(t, err)

	require.Equal(t, "10.5", report.TotalHours)
	// 2×100 + 1.5×100 + 1×80 (profile default) + 6×120
	require.Equal(t, "1150.00", report.TotalAmount)

	require.Len(t, report.Breakdown, 2)
	// sorted by hours descending: Zenith 6h before Acme 4.5h
	require.Equal(t, "Zenith", report.Breakdown[0].ClientName)
	require.Equal(t, "Acme", report.Breakdown[1].ClientName)

	acme := report.Breakdown[1]
	require.Equal(t, "4.5", acme.Hours)
	require.Equal(t, "430.00", acme.Amount)
	require.Len(t, acme.Projects, 2)
	require.Equal(t, "Arbitration", acme.Projects[0].ProjectName)
	require.Equal(t, 2, acme.Projects[0].EntriesCount)
	require.Equal(t, "350.00", acme.Projects[0].Amount)
	require.Equal(t, "Advisory", acme.Projects[1].ProjectName)
	require.Equal(t, "80.00", acme.Projects[1].Amount)
}

func TestBuildReportFiltersByClient(t *testing.T) {
	repo := &memoryRepo{entries: []EntryRow{
		{EntryID: 1, Date: day(1), Hours: 2.0, Status: "confirmed", ProjectID: 1, ProjectName: "Arbitration", ProjectRate: ptr(100.0), ClientID: 1, ClientName: "Acme"},
		{EntryID: 2, Date: day(2), Hours: 3.0, Status: "confirmed", ProjectID: 3, ProjectName: "Litigation", ProjectRate: ptr(120.0), ClientID: 2, ClientName: "Zenith"},
	}}
	svc := newTestService(repo)

	report, err := svc.BuildReport(context.Background(), day(1), day(10), ptr(int64(1)))
	require.NoError(t, err)
	require.Len(t, report.Breakdown, 1)
	require.Equal(t, "Acme", report.Breakdown[0].ClientName)
	require.Equal(t, "200.00", report.TotalAmount)
}

func TestBuildReportInvoiceSummary(t *testing.T) {
	repo := &memoryRepo{invoiceRows: []InvoiceRow{
		{ID: 1, Status: invoices.StatusPaid, IssueDate: day(1), DueDate: day(10), TotalAmount: 300},
		{ID: 2, Status: invoices.StatusSent, IssueDate: day(2), DueDate: day(5), TotalAmount: 200},  // past due on the 15th
		{ID: 3, Status: invoices.StatusSent, IssueDate: day(3), DueDate: day(30), TotalAmount: 150},
		{ID: 4, Status: invoices.StatusDraft, IssueDate: day(4), DueDate: day(30), TotalAmount: 50},
	}}
	svc := newTestService(repo)

	report, err := svc.BuildReport(context.Background(), day(1), day(10), nil)
	require.NoError(t, err)

	summary := report.InvoiceSummary
	require.Equal(t, 4, summary.CountTotal)
	require.Equal(t, 1, summary.CountPaid)
	require.Equal(t, 3, summary.CountUnpaid)
	require.Equal(t, 1, summary.CountOverdue)
	require.Equal(t, "700.00", summary.TotalInvoiced)
	require.Equal(t, "300.00", summary.TotalPaid)
	// drafts are unpaid by count but not yet a receivable
	require.Equal(t, "350.00", summary.TotalUnpaid)
}

func TestDashboard(t *testing.T) {
	repo := &memoryRepo{
		entries: []EntryRow{
			// the fixed clock is Friday 2024-03-15; the week starts Monday the 11th
			{EntryID: 1, Date: day(12), Hours: 3.0, Status: "confirmed", ProjectID: 1, ProjectName: "Arbitration", ProjectRate: ptr(100.0), ClientID: 1, ClientName: "Acme"},
			{EntryID: 2, Date: day(5), Hours: 2.0, Status: "confirmed", ProjectID: 2, ProjectName: "Advisory", ClientID: 1, ClientName: "Acme"},
			{EntryID: 3, Date: day(14), Hours: 1.0, Status: "draft", ProjectID: 1, ProjectName: "Arbitration", ProjectRate: ptr(100.0), ClientID: 1, ClientName: "Acme"},
		},
		invoiceRows: []InvoiceRow{
			{ID: 1, Number: "INV-2024-001", ClientID: 1, ClientName: "Acme", IssueDate: day(2), DueDate: day(5), Status: invoices.StatusSent, TotalAmount: 200},
		},
		unpaidTotal:  200,
		overdueCount: 1,
	}
	svc := newTestService(repo)

	dash, err := svc.Dashboard(context.Background())
	require.NoError(t, err)

	require.Equal(t, "4.0", dash.HoursThisWeek)  // 12th and 14th
	require.Equal(t, "6.0", dash.HoursThisMonth)
	// 3×100 + 2×80 (profile default), confirmed entries only
	require.Equal(t, "460.00", dash.UnbilledAmount)
	require.Equal(t, "200.00", dash.UnpaidAmount)
	require.Equal(t, 1, dash.OverdueInvoicesCount)

	require.Len(t, dash.RecentInvoices, 1)
	// sent past due renders as overdue without being stored as such
	require.Equal(t, "overdue", dash.RecentInvoices[0].Status)
	require.Len(t, dash.RecentTimeEntries, 3)
}

func TestFormatMoney(t *testing.T) {
	require.Equal(t, "$1,234.50", FormatMoney(1234.5, "USD", "en"))
	require.Equal(t, "42,50 ₽", FormatMoney(42.5, "RUB", "ru"))
	// unknown currency falls back to the code itself
	require.Equal(t, "GBP10.00", FormatMoney(10, "GBP", "en"))
}
