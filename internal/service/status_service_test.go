package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bktrung/academic-records-api/internal/models"
	appErrors "github.com/bktrung/academic-records-api/pkg/errors"
)

type mockStatusRepo struct {
	statuses    map[string]models.StudentStatus
	transitions map[string]models.StatusTransition // keyed from|to
	deleted     []string
}

func newMockStatusRepo() *mockStatusRepo {
	return &mockStatusRepo{
		statuses:    make(map[string]models.StudentStatus),
		transitions: make(map[string]models.StatusTransition),
	}
}

func transitionKey(fromID, toID string) string { return fromID + "|" + toID }

func (m *mockStatusRepo) ListStatuses(ctx context.Context) ([]models.StudentStatus, error) {
	var out []models.StudentStatus
	for _, s := range m.statuses {
		out = append(out, s)
	}
	return out, nil
}

func (m *mockStatusRepo) FindStatusByID(ctx context.Context, id string) (*models.StudentStatus, error) {
	if s, ok := m.statuses[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStatusRepo) FindStatusByName(ctx context.Context, name string) (*models.StudentStatus, error) {
	for _, s := range m.statuses {
		if s.Name == name {
			return &s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStatusRepo) CreateStatus(ctx context.Context, status *models.StudentStatus) error {
	status.ID = "status-" + status.Name
	m.statuses[status.ID] = *status
	return nil
}

func (m *mockStatusRepo) RenameStatus(ctx context.Context, id, name string) error {
	s := m.statuses[id]
	s.Name = name
	m.statuses[id] = s
	return nil
}

func (m *mockStatusRepo) DeleteStatus(ctx context.Context, id string) error {
	delete(m.statuses, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockStatusRepo) FindTransition(ctx context.Context, fromID, toID string) (*models.StatusTransition, error) {
	if tr, ok := m.transitions[transitionKey(fromID, toID)]; ok {
		return &tr, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStatusRepo) ListTransitions(ctx context.Context) ([]models.StatusTransitionDetail, error) {
	var out []models.StatusTransitionDetail
	for _, tr := range m.transitions {
		out = append(out, models.StatusTransitionDetail{StatusTransition: tr})
	}
	return out, nil
}

func (m *mockStatusRepo) CreateTransition(ctx context.Context, transition *models.StatusTransition) error {
	transition.ID = "tr-" + transition.FromStatusID + "-" + transition.ToStatusID
	m.transitions[transitionKey(transition.FromStatusID, transition.ToStatusID)] = *transition
	return nil
}

func (m *mockStatusRepo) DeleteTransition(ctx context.Context, fromID, toID string) error {
	delete(m.transitions, transitionKey(fromID, toID))
	return nil
}

func (m *mockStatusRepo) CountTransitionsReferencing(ctx context.Context, statusID string) (int, error) {
	count := 0
	for _, tr := range m.transitions {
		if tr.FromStatusID == statusID || tr.ToStatusID == statusID {
			count++
		}
	}
	return count, nil
}

type mockStudentCounter struct {
	counts map[string]int
}

func (m *mockStudentCounter) CountByStatus(ctx context.Context, statusID string) (int, error) {
	return m.counts[statusID], nil
}

func newStatusFixture() (*StatusService, *mockStatusRepo, *mockStudentCounter) {
	repo := newMockStatusRepo()
	repo.statuses["st-active"] = models.StudentStatus{ID: "st-active", Name: "Studying"}
	repo.statuses["st-paused"] = models.StudentStatus{ID: "st-paused", Name: "Paused"}
	repo.statuses["st-grad"] = models.StudentStatus{ID: "st-grad", Name: "Graduated"}
	counter := &mockStudentCounter{counts: make(map[string]int)}
	svc := NewStatusService(repo, counter, nil, zap.NewNop())
	return svc, repo, counter
}

func TestStatusServiceCreate(t *testing.T) {
	svc, repo, _ := newStatusFixture()

	status, err := svc.Create(context.Background(), CreateStatusRequest{Name: "Suspended"})
	require.NoError(t, err)
	assert.NotEmpty(t, status.ID)
	assert.Contains(t, repo.statuses, status.ID)

	_, err = svc.Create(context.Background(), CreateStatusRequest{Name: "Studying"})
	assert.True(t, appErrors.Is(err, appErrors.ErrDuplicateName))
}

func TestStatusServiceRename(t *testing.T) {
	svc, repo, _ := newStatusFixture()

	status, err := svc.Rename(context.Background(), "st-paused", CreateStatusRequest{Name: "On Leave"})
	require.NoError(t, err)
	assert.Equal(t, "On Leave", status.Name)
	assert.Equal(t, "On Leave", repo.statuses["st-paused"].Name)

	// Renaming to an existing other status is rejected, renaming to itself is not.
	_, err = svc.Rename(context.Background(), "st-paused", CreateStatusRequest{Name: "Studying"})
	assert.True(t, appErrors.Is(err, appErrors.ErrDuplicateName))
	_, err = svc.Rename(context.Background(), "st-paused", CreateStatusRequest{Name: "On Leave"})
	assert.NoError(t, err)
}

func TestStatusServiceDeleteGuards(t *testing.T) {
	svc, repo, counter := newStatusFixture()

	counter.counts["st-active"] = 3
	err := svc.Delete(context.Background(), "st-active")
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	repo.transitions[transitionKey("st-paused", "st-grad")] = models.StatusTransition{FromStatusID: "st-paused", ToStatusID: "st-grad"}
	err = svc.Delete(context.Background(), "st-paused")
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	err = svc.Delete(context.Background(), "st-grad")
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	delete(repo.transitions, transitionKey("st-paused", "st-grad"))
	err = svc.Delete(context.Background(), "st-paused")
	require.NoError(t, err)
	assert.Equal(t, []string{"st-paused"}, repo.deleted)

	err = svc.Delete(context.Background(), "missing")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestStatusServiceAddTransition(t *testing.T) {
	svc, repo, _ := newStatusFixture()

	tr, err := svc.AddTransition(context.Background(), TransitionRequest{FromStatusID: "st-active", ToStatusID: "st-paused"})
	require.NoError(t, err)
	assert.Contains(t, repo.transitions, transitionKey("st-active", "st-paused"))
	assert.NotEmpty(t, tr.ID)

	_, err = svc.AddTransition(context.Background(), TransitionRequest{FromStatusID: "st-active", ToStatusID: "st-paused"})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	_, err = svc.AddTransition(context.Background(), TransitionRequest{FromStatusID: "st-active", ToStatusID: "st-active"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.AddTransition(context.Background(), TransitionRequest{FromStatusID: "st-active", ToStatusID: "missing"})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestStatusServiceRemoveTransition(t *testing.T) {
	svc, repo, _ := newStatusFixture()
	repo.transitions[transitionKey("st-active", "st-grad")] = models.StatusTransition{FromStatusID: "st-active", ToStatusID: "st-grad"}

	err := svc.RemoveTransition(context.Background(), TransitionRequest{FromStatusID: "st-active", ToStatusID: "st-grad"})
	require.NoError(t, err)
	assert.NotContains(t, repo.transitions, transitionKey("st-active", "st-grad"))

	err = svc.RemoveTransition(context.Background(), TransitionRequest{FromStatusID: "st-active", ToStatusID: "st-grad"})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestStatusServiceIsTransitionAllowed(t *testing.T) {
	svc, repo, _ := newStatusFixture()
	repo.transitions[transitionKey("st-active", "st-paused")] = models.StatusTransition{FromStatusID: "st-active", ToStatusID: "st-paused"}

	allowed, err := svc.IsTransitionAllowed(context.Background(), "st-active", "st-paused")
	require.NoError(t, err)
	assert.True(t, allowed)

	// Identity is always allowed, even without an edge.
	allowed, err = svc.IsTransitionAllowed(context.Background(), "st-grad", "st-grad")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = svc.IsTransitionAllowed(context.Background(), "st-paused", "st-active")
	require.NoError(t, err)
	assert.False(t, allowed)
}
