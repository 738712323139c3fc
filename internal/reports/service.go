package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lexbill/lexbill/internal/invoices"
	"github.com/lexbill/lexbill/internal/profiles"
	"github.com/lexbill/lexbill/internal/shared"
)

const recentLimit = 5

// ProfileSource supplies the default rate and display language.
type ProfileSource interface {
	GetActive(ctx context.Context) (*profiles.Profile, error)
}

// Service re-derives the same money math as the invoice engine over raw
// ledger rows, grouped by client and project.
type Service struct {
	repo     Repository
	profiles ProfileSource
	now      func() time.Time
}

func NewService(repo Repository, profileSource ProfileSource) *Service {
	return &Service{repo: repo, profiles: profileSource, now: time.Now}
}

// WithNow overrides the clock for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// BuildReport aggregates hours and amounts for the period, grouped
// client by client with a per-project breakdown, plus an invoice summary.
func (s *Service) BuildReport(ctx context.Context, from, to time.Time, clientID *int64) (*Report, error) {
	profile, err := s.profiles.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active profile: %w", err)
	}

	var (
		entries     []EntryRow
		invoiceRows []InvoiceRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = s.repo.EntriesInRange(gctx, from, to, clientID)
		return err
	})
	g.Go(func() error {
		var err error
		invoiceRows, err = s.repo.InvoicesInRange(gctx, from, to, clientID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}

	breakdown, totalHours, totalAmount := buildBreakdown(entries, profile.DefaultHourlyRate)

	return &Report{
		DateFrom:             from.Format("2006-01-02"),
		DateTo:               to.Format("2006-01-02"),
		ClientID:             clientID,
		TotalHours:           shared.HoursString(totalHours),
		TotalAmount:          shared.MoneyString(totalAmount),
		TotalAmountFormatted: FormatMoney(shared.RoundMoney(totalAmount), profile.DefaultCurrency, profile.Language),
		Breakdown:            breakdown,
		InvoiceSummary:       s.summarize(invoiceRows),
	}, nil
}

type projectAcc struct {
	id      int64
	name    string
	entries int
	hours   float64
	amount  float64
}

type clientAcc struct {
	id       int64
	name     string
	hours    float64
	amount   float64
	projects map[int64]*projectAcc
}

func buildBreakdown(entries []EntryRow, defaultRate float64) ([]ClientBreakdown, float64, float64) {
	byClient := make(map[int64]*clientAcc)
	for _, e := range entries {
		rate := defaultRate
		if e.ProjectRate != nil {
			rate = *e.ProjectRate
		}
		amount := e.Hours * rate

		c, ok := byClient[e.ClientID]
		if !ok {
			c = &clientAcc{id: e.ClientID, name: e.ClientName, projects: make(map[int64]*projectAcc)}
			byClient[e.ClientID] = c
		}
		p, ok := c.projects[e.ProjectID]
		if !ok {
			p = &projectAcc{id: e.ProjectID, name: e.ProjectName}
			c.projects[e.ProjectID] = p
		}
		c.hours += e.Hours
		c.amount += amount
		p.hours += e.Hours
		p.amount += amount
		p.entries++
	}

	clientList := make([]*clientAcc, 0, len(byClient))
	for _, c := range byClient {
		clientList = append(clientList, c)
	}
	sort.Slice(clientList, func(i, j int) bool {
		if clientList[i].hours != clientList[j].hours {
			return clientList[i].hours > clientList[j].hours
		}
		return clientList[i].name < clientList[j].name
	})

	var totalHours, totalAmount float64
	breakdown := make([]ClientBreakdown, 0, len(clientList))
	for _, c := range clientList {
		projectList := make([]*projectAcc, 0, len(c.projects))
		for _, p := range c.projects {
			projectList = append(projectList, p)
		}
		sort.Slice(projectList, func(i, j int) bool {
			if projectList[i].hours != projectList[j].hours {
				return projectList[i].hours > projectList[j].hours
			}
			return projectList[i].name < projectList[j].name
		})
		rows := make([]ProjectBreakdown, 0, len(projectList))
		for _, p := range projectList {
			rows = append(rows, ProjectBreakdown{
				ProjectID:    p.id,
				ProjectName:  p.name,
				EntriesCount: p.entries,
				Hours:        shared.HoursString(p.hours),
				Amount:       shared.MoneyString(p.amount),
			})
		}
		breakdown = append(breakdown, ClientBreakdown{
			ClientID:   c.id,
			ClientName: c.name,
			Hours:      shared.HoursString(c.hours),
			Amount:     shared.MoneyString(c.amount),
			Projects:   rows,
		})
		totalHours += c.hours
		totalAmount += c.amount
	}
	return breakdown, totalHours, totalAmount
}

func (s *Service) summarize(rows []InvoiceRow) InvoiceSummary {
	today := s.now()
	var summary InvoiceSummary
	var invoiced, paid, unpaid float64
	for _, row := range rows {
		summary.CountTotal++
		invoiced += row.TotalAmount
		switch row.Status {
		case invoices.StatusPaid:
			summary.CountPaid++
			paid += row.TotalAmount
		case invoices.StatusSent:
			summary.CountUnpaid++
			unpaid += row.TotalAmount
		default:
			// draft counts as unpaid but carries no receivable yet
			summary.CountUnpaid++
		}
		if isRowOverdue(row, today) {
			summary.CountOverdue++
		}
	}
	summary.TotalInvoiced = shared.MoneyString(invoiced)
	summary.TotalPaid = shared.MoneyString(paid)
	summary.TotalUnpaid = shared.MoneyString(unpaid)
	return summary
}

func isRowOverdue(row InvoiceRow, today time.Time) bool {
	inv := invoices.Invoice{Status: row.Status, DueDate: row.DueDate}
	return invoices.IsOverdue(&inv, today)
}

// Dashboard assembles the landing-page aggregate. The independent queries
// run concurrently.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	profile, err := s.profiles.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active profile: %w", err)
	}

	today := dateOnly(s.now())
	weekStart := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())

	var (
		hoursWeek, hoursMonth float64
		confirmed             []EntryRow
		unpaid                float64
		overdueCount          int
		recentEntries         []EntryRow
		recentInvoices        []InvoiceRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		hoursWeek, err = s.repo.HoursBetween(gctx, weekStart, today)
		return err
	})
	g.Go(func() error {
		var err error
		hoursMonth, err = s.repo.HoursBetween(gctx, monthStart, today)
		return err
	})
	g.Go(func() error {
		var err error
		confirmed, err = s.repo.ConfirmedEntries(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		unpaid, err = s.repo.UnpaidTotal(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		overdueCount, err = s.repo.OverdueCount(gctx, today)
		return err
	})
	g.Go(func() error {
		var err error
		recentEntries, err = s.repo.RecentEntries(gctx, recentLimit)
		return err
	})
	g.Go(func() error {
		var err error
		recentInvoices, err = s.repo.RecentInvoices(gctx, recentLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build dashboard: %w", err)
	}

	var unbilled float64
	for _, e := range confirmed {
		rate := profile.DefaultHourlyRate
		if e.ProjectRate != nil {
			rate = *e.ProjectRate
		}
		unbilled += e.Hours * rate
	}

	entries := make([]RecentEntry, 0, len(recentEntries))
	for _, e := range recentEntries {
		entries = append(entries, RecentEntry{
			ID:            e.EntryID,
			Date:          e.Date,
			ProjectID:     e.ProjectID,
			ProjectName:   e.ProjectName,
			ClientID:      e.ClientID,
			ClientName:    e.ClientName,
			DurationHours: shared.HoursString(e.Hours),
			Description:   e.Description,
			Status:        e.Status,
		})
	}
	invoiceList := make([]RecentInvoice, 0, len(recentInvoices))
	for _, row := range recentInvoices {
		status := string(row.Status)
		if isRowOverdue(row, today) {
			status = invoices.StatusOverdue
		}
		invoiceList = append(invoiceList, RecentInvoice{
			ID:            row.ID,
			InvoiceNumber: row.Number,
			ClientID:      row.ClientID,
			ClientName:    row.ClientName,
			IssueDate:     row.IssueDate,
			DueDate:       row.DueDate,
			Status:        status,
			TotalAmount:   shared.MoneyString(row.TotalAmount),
		})
	}

	return &Dashboard{
		HoursThisWeek:         shared.HoursString(hoursWeek),
		HoursThisMonth:        shared.HoursString(hoursMonth),
		UnbilledAmount:        shared.MoneyString(unbilled),
		UnpaidAmount:          shared.MoneyString(unpaid),
		UnpaidAmountFormatted: FormatMoney(shared.RoundMoney(unpaid), profile.DefaultCurrency, profile.Language),
		OverdueInvoicesCount:  overdueCount,
		RecentTimeEntries:     entries,
		RecentInvoices:        invoiceList,
	}, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
