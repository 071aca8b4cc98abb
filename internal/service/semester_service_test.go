package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bktrung/academic-records-api/internal/models"
	appErrors "github.com/bktrung/academic-records-api/pkg/errors"
)

type mockSemesterRepo struct {
	semesters map[string]models.Semester
}

func newMockSemesterRepo() *mockSemesterRepo {
	return &mockSemesterRepo{semesters: make(map[string]models.Semester)}
}

func termKey(academicYear string, semester int) string {
	return fmt.Sprintf("%s|%d", academicYear, semester)
}

func (m *mockSemesterRepo) List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, int, error) {
	var out []models.Semester
	for _, s := range m.semesters {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *mockSemesterRepo) FindByTerm(ctx context.Context, academicYear string, semester int) (*models.Semester, error) {
	if s, ok := m.semesters[termKey(academicYear, semester)]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSemesterRepo) Create(ctx context.Context, semester *models.Semester) error {
	semester.ID = "sem-" + termKey(semester.AcademicYear, semester.Semester)
	m.semesters[termKey(semester.AcademicYear, semester.Semester)] = *semester
	return nil
}

func (m *mockSemesterRepo) Update(ctx context.Context, semester *models.Semester) error {
	m.semesters[termKey(semester.AcademicYear, semester.Semester)] = *semester
	return nil
}

func validSemesterRequest() UpsertSemesterRequest {
	day := func(month, d int) time.Time {
		return time.Date(2025, time.Month(month), d, 0, 0, 0, 0, time.UTC)
	}
	return UpsertSemesterRequest{
		AcademicYear:      "2025-2026",
		Semester:          1,
		RegistrationStart: day(7, 1),
		RegistrationEnd:   day(8, 15),
		DropDeadline:      day(10, 1),
		StartDate:         day(9, 1),
		EndDate:           day(12, 20),
	}
}

func TestSemesterServiceCreate(t *testing.T) {
	repo := newMockSemesterRepo()
	svc := NewSemesterService(repo, nil, zap.NewNop())

	sem, err := svc.Create(context.Background(), validSemesterRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, sem.ID)
	assert.Contains(t, repo.semesters, termKey("2025-2026", 1))

	_, err = svc.Create(context.Background(), validSemesterRequest())
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestSemesterServiceCreateWindowOrdering(t *testing.T) {
	svc := NewSemesterService(newMockSemesterRepo(), nil, zap.NewNop())

	tests := []struct {
		name   string
		mutate func(*UpsertSemesterRequest)
	}{
		{"registration start after end", func(r *UpsertSemesterRequest) {
			r.RegistrationStart = r.RegistrationEnd.AddDate(0, 0, 1)
		}},
		{"semester start after end", func(r *UpsertSemesterRequest) {
			r.StartDate = r.EndDate.AddDate(0, 0, 1)
		}},
		{"drop deadline before registration end", func(r *UpsertSemesterRequest) {
			r.DropDeadline = r.RegistrationEnd.AddDate(0, 0, -1)
		}},
		{"drop deadline after semester end", func(r *UpsertSemesterRequest) {
			r.DropDeadline = r.EndDate.AddDate(0, 0, 1)
		}},
		{"malformed academic year", func(r *UpsertSemesterRequest) {
			r.AcademicYear = "2025-2028"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validSemesterRequest()
			tt.mutate(&req)
			_, err := svc.Create(context.Background(), req)
			assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
		})
	}
}

func TestSemesterServiceUpdate(t *testing.T) {
	repo := newMockSemesterRepo()
	svc := NewSemesterService(repo, nil, zap.NewNop())
	_, err := svc.Create(context.Background(), validSemesterRequest())
	require.NoError(t, err)

	req := validSemesterRequest()
	req.DropDeadline = req.DropDeadline.AddDate(0, 0, 14)
	sem, err := svc.Update(context.Background(), "2025-2026", 1, req)
	require.NoError(t, err)
	assert.Equal(t, req.DropDeadline, sem.DropDeadline)
	assert.Equal(t, req.DropDeadline, repo.semesters[termKey("2025-2026", 1)].DropDeadline)

	_, err = svc.Update(context.Background(), "2026-2027", 1, req)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestSemesterServiceGetByTerm(t *testing.T) {
	repo := newMockSemesterRepo()
	svc := NewSemesterService(repo, nil, zap.NewNop())
	_, err := svc.Create(context.Background(), validSemesterRequest())
	require.NoError(t, err)

	sem, err := svc.GetByTerm(context.Background(), "2025-2026", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, sem.Semester)

	_, err = svc.GetByTerm(context.Background(), "2025-2026", 2)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
