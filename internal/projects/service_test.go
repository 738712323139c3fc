package projects

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lexbill/lexbill/internal/shared"
)

type memoryRepo struct {
	nextID   int64
	projects map[int64]Project
	// entry hours by project id, keyed by status
	entries map[int64]map[string][]float64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		nextID:   1,
		projects: make(map[int64]Project),
		entries:  make(map[int64]map[string][]float64),
	}
}

func (m *memoryRepo) addEntry(projectID int64, status string, hours float64) {
	if m.entries[projectID] == nil {
		m.entries[projectID] = make(map[string][]float64)
	}
	m.entries[projectID][status] = append(m.entries[projectID][status], hours)
}

func (m *memoryRepo) Get(_ context.Context, id int64) (*Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, &shared.NotFoundError{Entity: "project", ID: id}
	}
	return &p, nil
}

func (m *memoryRepo) Exists(_ context.Context, id int64) (bool, error) {
	_, ok := m.projects[id]
	return ok, nil
}

func (m *memoryRepo) List(_ context.Context, filter ListFilter) ([]Project, int, error) {
	var out []Project
	for _, p := range m.projects {
		if filter.ClientID != nil && p.ClientID != *filter.ClientID {
			continue
		}
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Stats(_ context.Context, id int64) (map[string]float64, error) {
	stats := make(map[string]float64)
	for status, hours := range m.entries[id] {
		for _, h := range hours {
			stats[status] += h
		}
	}
	return stats, nil
}

func (m *memoryRepo) EntryCount(_ context.Context, id int64) (int, error) {
	count := 0
	for _, hours := range m.entries[id] {
		count += len(hours)
	}
	return count, nil
}

func (m *memoryRepo) Create(_ context.Context, p Project) (*Project, error) {
	p.ID = m.nextID
	p.CreatedAt = time.Now()
	m.nextID++
	m.projects[p.ID] = p
	return &p, nil
}

func (m *memoryRepo) Update(_ context.Context, p Project) (*Project, error) {
	existing, ok := m.projects[p.ID]
	if !ok {
		return nil, &shared.NotFoundError{Entity: "project", ID: p.ID}
	}
	p.CreatedAt = existing.CreatedAt
	m.projects[p.ID] = p
	return &p, nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.projects[id]; !ok {
		return &shared.NotFoundError{Entity: "project", ID: id}
	}
	delete(m.projects, id)
	return nil
}

type fakeClients struct {
	known map[int64]bool
}

func (f fakeClients) Exists(_ context.Context, id int64) (bool, error) {
	return f.known[id], nil
}

func newTestService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	return NewService(repo, fakeClients{known: map[int64]bool{1: true, 2: true}}), repo
}

func TestCreateAppliesDefaults(t *testing.T) {
	svc, _ := newTestService()

	p, err := svc.Create(context.Background(), UpsertRequest{ClientID: 1, Name: "Arbitration"})
	require.NoError(t, err)
	require.Equal(t, "RUB", p.Currency)
	require.Equal(t, StatusActive, p.Status)
	require.Nil(t, p.HourlyRate)
}

func TestCreateUnknownClient(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), UpsertRequest{ClientID: 99, Name: "Orphan"})
	var nf *shared.NotFoundError
	require.True(t, errors.As(err, &nf))
	require.Equal(t, "client", nf.Entity)
}

func TestGetComputesStats(t *testing.T) {
	svc, repo := newTestService()

	p, err := svc.Create(context.Background(), UpsertRequest{ClientID: 1, Name: "Due Diligence"})
	require.NoError(t, err)

	repo.addEntry(p.ID, "draft", 1.5)
	repo.addEntry(p.ID, "confirmed", 2.0)
	repo.addEntry(p.ID, "confirmed", 0.5)
	repo.addEntry(p.ID, "billed", 3.0)

	detail, err := svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, "7.0", detail.Stats.TotalHours)
	require.Equal(t, "2.5", detail.Stats.ConfirmedHours)
	// unbilled covers drafts too
	require.Equal(t, "4.0", detail.Stats.UnbilledHours)
}

func TestGetStatsEmptyProject(t *testing.T) {
	svc, _ := newTestService()

	p, err := svc.Create(context.Background(), UpsertRequest{ClientID: 1, Name: "Fresh"})
	require.NoError(t, err)

	detail, err := svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, "0.0", detail.Stats.TotalHours)
	require.Equal(t, "0.0", detail.Stats.UnbilledHours)
}

func TestUpdateKeepsClient(t *testing.T) {
	svc, _ := newTestService()

	p, err := svc.Create(context.Background(), UpsertRequest{ClientID: 1, Name: "Old Name"})
	require.NoError(t, err)

	rate := 150.0
	updated, err := svc.Update(context.Background(), p.ID, UpsertRequest{
		ClientID:   2, // ignored, ownership does not move
		Name:       "New Name",
		HourlyRate: &rate,
		Status:     StatusPaused,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), updated.ClientID)
	require.Equal(t, "New Name", updated.Name)
	require.Equal(t, StatusPaused, updated.Status)
	require.Equal(t, 150.0, *updated.HourlyRate)
}

func TestDeleteBlockedByEntries(t *testing.T) {
	svc, repo := newTestService()

	p, err := svc.Create(context.Background(), UpsertRequest{ClientID: 1, Name: "Busy"})
	require.NoError(t, err)
	repo.addEntry(p.ID, "draft", 1.0)

	err = svc.Delete(context.Background(), p.ID)
	var conflict *shared.ConflictError
	require.True(t, errors.As(err, &conflict))
	require.Contains(t, conflict.Reason, "1 time entries")
}

func TestDeleteEmptyProject(t *testing.T) {
	svc, repo := newTestService()

	p, err := svc.Create(context.Background(), UpsertRequest{ClientID: 1, Name: "Idle"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), p.ID))
	_, ok := repo.projects[p.ID]
	require.False(t, ok)
}

func TestListFiltersByStatus(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, UpsertRequest{ClientID: 1, Name: "A"})
	require.NoError(t, err)
	paused, err := svc.Create(ctx, UpsertRequest{ClientID: 1, Name: "B", Status: StatusPaused})
	require.NoError(t, err)

	status := StatusPaused
	items, pagination, err := svc.List(ctx, ListFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, paused.ID, items[0].ID)
	require.Equal(t, 1, pagination.Total)
}
