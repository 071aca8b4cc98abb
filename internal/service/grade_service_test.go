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

type mockGradeRepo struct {
	grades map[string]models.Grade // keyed by enrollment id
}

func (m *mockGradeRepo) FindByEnrollment(ctx context.Context, enrollmentID string) (*models.Grade, error) {
	if g, ok := m.grades[enrollmentID]; ok {
		return &g, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGradeRepo) Create(ctx context.Context, grade *models.Grade) error {
	grade.ID = "grade-" + grade.EnrollmentID
	m.grades[grade.EnrollmentID] = *grade
	return nil
}

func (m *mockGradeRepo) UpdateScores(ctx context.Context, grade *models.Grade) error {
	m.grades[grade.EnrollmentID] = *grade
	return nil
}

type mockGradeEnrollments struct {
	enrollments map[string]models.Enrollment
	completed   []string
}

func (m *mockGradeEnrollments) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGradeEnrollments) SetCompleted(ctx context.Context, id string) error {
	e := m.enrollments[id]
	e.Status = models.EnrollmentStatusCompleted
	m.enrollments[id] = e
	m.completed = append(m.completed, id)
	return nil
}

type mockInvalidator struct {
	invalidated []string
}

func (m *mockInvalidator) Invalidate(ctx context.Context, studentID string) {
	m.invalidated = append(m.invalidated, studentID)
}

func newGradeFixture() (*GradeService, *mockGradeRepo, *mockGradeEnrollments, *mockInvalidator) {
	repo := &mockGradeRepo{grades: make(map[string]models.Grade)}
	enrollments := &mockGradeEnrollments{enrollments: map[string]models.Enrollment{
		"e-1": {ID: "e-1", StudentID: "stu-1", ClassID: "class-1", Status: models.EnrollmentStatusActive},
	}}
	transcripts := &mockInvalidator{}
	svc := NewGradeService(repo, enrollments, transcripts, nil, zap.NewNop())
	return svc, repo, enrollments, transcripts
}

func TestGradeServiceCreate(t *testing.T) {
	svc, repo, enrollments, transcripts := newGradeFixture()

	grade, err := svc.Create(context.Background(), "e-1", GradeScoresRequest{
		MidtermScore: scorePtr(7.0),
		FinalScore:   scorePtr(9.0),
		TotalScore:   8.2,
	})
	require.NoError(t, err)
	assert.Equal(t, "B+", grade.LetterGrade)
	assert.Equal(t, 3.5, grade.GradePoints)
	assert.Contains(t, repo.grades, "e-1")
	assert.Equal(t, []string{"e-1"}, enrollments.completed)
	assert.Equal(t, []string{"stu-1"}, transcripts.invalidated)
}

func TestGradeServiceCreateEnrollmentNotFound(t *testing.T) {
	svc, _, _, _ := newGradeFixture()
	_, err := svc.Create(context.Background(), "missing", GradeScoresRequest{TotalScore: 8})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestGradeServiceCreateDroppedEnrollment(t *testing.T) {
	svc, _, enrollments, _ := newGradeFixture()
	enrollments.enrollments["e-1"] = models.Enrollment{ID: "e-1", StudentID: "stu-1", Status: models.EnrollmentStatusDropped}

	_, err := svc.Create(context.Background(), "e-1", GradeScoresRequest{TotalScore: 8})
	assert.True(t, appErrors.Is(err, appErrors.ErrInactiveEntity))
}

func TestGradeServiceCreateDuplicate(t *testing.T) {
	svc, repo, _, _ := newGradeFixture()
	repo.grades["e-1"] = models.Grade{ID: "grade-e-1", EnrollmentID: "e-1", TotalScore: 7}

	_, err := svc.Create(context.Background(), "e-1", GradeScoresRequest{TotalScore: 8})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestGradeServiceCreateInvalidScore(t *testing.T) {
	svc, _, _, _ := newGradeFixture()
	_, err := svc.Create(context.Background(), "e-1", GradeScoresRequest{TotalScore: 10.5})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestGradeServiceCreateKeepsCompletedStatus(t *testing.T) {
	svc, _, enrollments, _ := newGradeFixture()
	enrollments.enrollments["e-1"] = models.Enrollment{ID: "e-1", StudentID: "stu-1", Status: models.EnrollmentStatusCompleted}

	_, err := svc.Create(context.Background(), "e-1", GradeScoresRequest{TotalScore: 6})
	require.NoError(t, err)
	assert.Empty(t, enrollments.completed)
}

func TestGradeServiceUpdateScores(t *testing.T) {
	svc, repo, _, transcripts := newGradeFixture()
	repo.grades["e-1"] = models.Grade{ID: "grade-e-1", EnrollmentID: "e-1", TotalScore: 4.0, LetterGrade: "D+", GradePoints: 1.5}

	grade, err := svc.UpdateScores(context.Background(), "e-1", GradeScoresRequest{TotalScore: 9.1})
	require.NoError(t, err)
	assert.Equal(t, "A", grade.LetterGrade)
	assert.Equal(t, 4.0, grade.GradePoints)
	assert.Equal(t, 9.1, repo.grades["e-1"].TotalScore)
	assert.Equal(t, []string{"stu-1"}, transcripts.invalidated)
}

func TestGradeServiceUpdateScoresMissingGrade(t *testing.T) {
	svc, _, _, _ := newGradeFixture()
	_, err := svc.UpdateScores(context.Background(), "e-1", GradeScoresRequest{TotalScore: 8})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestGradeServiceGetByEnrollment(t *testing.T) {
	svc, repo, _, _ := newGradeFixture()
	repo.grades["e-1"] = models.Grade{ID: "grade-e-1", EnrollmentID: "e-1", TotalScore: 8.5, LetterGrade: "B+"}

	grade, err := svc.GetByEnrollment(context.Background(), "e-1")
	require.NoError(t, err)
	assert.Equal(t, 8.5, grade.TotalScore)

	_, err = svc.GetByEnrollment(context.Background(), "e-2")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
