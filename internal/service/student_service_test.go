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

type mockStudentRepo struct {
	students      map[string]models.StudentDetail
	statusChanges []string // "id->statusID"
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{students: make(map[string]models.StudentDetail)}
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	var out []models.StudentDetail
	for _, s := range m.students {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) FindByCode(ctx context.Context, code string) (*models.StudentDetail, error) {
	for _, s := range m.students {
		if s.Code == code {
			return &s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) FindByEmail(ctx context.Context, email string) (*models.StudentDetail, error) {
	for _, s := range m.students {
		if s.Email == email {
			return &s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	student.ID = "stu-" + student.Code
	m.students[student.ID] = models.StudentDetail{Student: *student}
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	detail := m.students[student.ID]
	detail.Student = *student
	m.students[student.ID] = detail
	return nil
}

func (m *mockStudentRepo) UpdateStatus(ctx context.Context, id, statusID string) error {
	detail := m.students[id]
	detail.StatusID = statusID
	m.students[id] = detail
	m.statusChanges = append(m.statusChanges, id+"->"+statusID)
	return nil
}

type mockDepartmentReader struct {
	departments map[string]models.Department
}

func (m *mockDepartmentReader) FindByID(ctx context.Context, id string) (*models.Department, error) {
	if d, ok := m.departments[id]; ok {
		return &d, nil
	}
	return nil, sql.ErrNoRows
}

func newStudentFixture() (*StudentService, *mockStudentRepo, *mockStatusRepo) {
	repo := newMockStudentRepo()
	repo.students["stu-1"] = models.StudentDetail{
		Student: models.Student{
			ID: "stu-1", Code: "SV001", FullName: "Tran Van A", Email: "a@univ.edu",
			StatusID: "st-active", DepartmentID: "dep-1", EnrolledYear: 2023,
		},
		StatusName:     "Studying",
		DepartmentName: "Computer Science",
	}

	statusRepo := newMockStatusRepo()
	statusRepo.statuses["st-active"] = models.StudentStatus{ID: "st-active", Name: "Studying"}
	statusRepo.statuses["st-paused"] = models.StudentStatus{ID: "st-paused", Name: "Paused"}
	statusRepo.statuses["st-grad"] = models.StudentStatus{ID: "st-grad", Name: "Graduated"}
	statusRepo.transitions[transitionKey("st-active", "st-paused")] = models.StatusTransition{FromStatusID: "st-active", ToStatusID: "st-paused"}
	statusSvc := NewStatusService(statusRepo, &mockStudentCounter{counts: map[string]int{}}, nil, zap.NewNop())

	departments := &mockDepartmentReader{departments: map[string]models.Department{
		"dep-1": {ID: "dep-1", Name: "Computer Science"},
	}}

	svc := NewStudentService(repo, statusRepo, statusSvc, departments, nil, zap.NewNop())
	return svc, repo, statusRepo
}

func TestStudentServiceCreate(t *testing.T) {
	svc, repo, _ := newStudentFixture()

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		Code: "SV002", FullName: "Le Thi B", Email: "b@univ.edu",
		StatusID: "st-active", DepartmentID: "dep-1", EnrolledYear: 2024,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.Contains(t, repo.students, student.ID)
}

func TestStudentServiceCreateConflicts(t *testing.T) {
	svc, _, _ := newStudentFixture()

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		Code: "SV001", FullName: "Dup", Email: "dup@univ.edu",
		StatusID: "st-active", DepartmentID: "dep-1", EnrolledYear: 2024,
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	_, err = svc.Create(context.Background(), CreateStudentRequest{
		Code: "SV003", FullName: "Dup", Email: "a@univ.edu",
		StatusID: "st-active", DepartmentID: "dep-1", EnrolledYear: 2024,
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestStudentServiceCreateUnknownReferences(t *testing.T) {
	svc, _, _ := newStudentFixture()

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		Code: "SV004", FullName: "C", Email: "c@univ.edu",
		StatusID: "missing", DepartmentID: "dep-1", EnrolledYear: 2024,
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Create(context.Background(), CreateStudentRequest{
		Code: "SV004", FullName: "C", Email: "c@univ.edu",
		StatusID: "st-active", DepartmentID: "missing", EnrolledYear: 2024,
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestStudentServiceCreateInvalidEmail(t *testing.T) {
	svc, _, _ := newStudentFixture()
	_, err := svc.Create(context.Background(), CreateStudentRequest{
		Code: "SV005", FullName: "D", Email: "not-an-email",
		StatusID: "st-active", DepartmentID: "dep-1", EnrolledYear: 2024,
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestStudentServiceUpdate(t *testing.T) {
	svc, repo, _ := newStudentFixture()

	student, err := svc.Update(context.Background(), "stu-1", UpdateStudentRequest{
		FullName: "Tran Van A Jr", Email: "a2@univ.edu", DepartmentID: "dep-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Tran Van A Jr", student.FullName)
	assert.Equal(t, "a2@univ.edu", repo.students["stu-1"].Email)
}

func TestStudentServiceChangeStatusAllowed(t *testing.T) {
	svc, repo, _ := newStudentFixture()

	student, err := svc.ChangeStatus(context.Background(), "stu-1", ChangeStatusRequest{StatusID: "st-paused"})
	require.NoError(t, err)
	assert.Equal(t, "st-paused", student.StatusID)
	assert.Equal(t, []string{"stu-1->st-paused"}, repo.statusChanges)
}

func TestStudentServiceChangeStatusNoOp(t *testing.T) {
	svc, repo, _ := newStudentFixture()

	student, err := svc.ChangeStatus(context.Background(), "stu-1", ChangeStatusRequest{StatusID: "st-active"})
	require.NoError(t, err)
	assert.Equal(t, "st-active", student.StatusID)
	assert.Empty(t, repo.statusChanges)
}

func TestStudentServiceChangeStatusRejected(t *testing.T) {
	svc, repo, _ := newStudentFixture()

	// No edge from Studying to Graduated exists.
	_, err := svc.ChangeStatus(context.Background(), "stu-1", ChangeStatusRequest{StatusID: "st-grad"})
	assert.True(t, appErrors.Is(err, appErrors.ErrTransitionNotAllowed))
	assert.Empty(t, repo.statusChanges)
}

func TestStudentServiceGetByID(t *testing.T) {
	svc, _, _ := newStudentFixture()

	detail, err := svc.GetByID(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "Studying", detail.StatusName)

	_, err = svc.GetByID(context.Background(), "missing")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
