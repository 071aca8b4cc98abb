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

type mockCourseRepo struct {
	courses     map[string]models.Course // keyed by id
	deactivated []string
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]models.Course)}
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	var out []models.Course
	for _, c := range m.courses {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	for _, c := range m.courses {
		if c.Code == code {
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) FindByIDs(ctx context.Context, ids []string) ([]models.Course, error) {
	var out []models.Course
	for _, id := range ids {
		if c, ok := m.courses[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	course.ID = "course-" + course.Code
	m.courses[course.ID] = *course
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) error {
	m.courses[course.ID] = *course
	return nil
}

func (m *mockCourseRepo) SetActive(ctx context.Context, id string, active bool) error {
	c := m.courses[id]
	c.IsActive = active
	m.courses[id] = c
	if !active {
		m.deactivated = append(m.deactivated, id)
	}
	return nil
}

type mockClassCounter struct {
	activeByCourse map[string]int
}

func (m *mockClassCounter) CountActiveByCourse(ctx context.Context, courseID string) (int, error) {
	return m.activeByCourse[courseID], nil
}

func newCourseFixture() (*CourseService, *mockCourseRepo, *mockClassCounter) {
	repo := newMockCourseRepo()
	repo.courses["course-1"] = models.Course{ID: "course-1", Code: "CS100", Name: "Basics", Credits: 3, DepartmentID: "dep-1", IsActive: true}
	departments := &mockDepartmentReader{departments: map[string]models.Department{
		"dep-1": {ID: "dep-1", Name: "Computer Science"},
	}}
	classes := &mockClassCounter{activeByCourse: make(map[string]int)}
	svc := NewCourseService(repo, departments, classes, nil, zap.NewNop())
	return svc, repo, classes
}

func TestCourseServiceCreate(t *testing.T) {
	svc, repo, _ := newCourseFixture()

	course, err := svc.Create(context.Background(), CreateCourseRequest{
		Code: "CS101", Name: "Intro", Credits: 3, DepartmentID: "dep-1",
		PrerequisiteIDs: []string{"course-1"},
	})
	require.NoError(t, err)
	assert.True(t, course.IsActive)
	assert.Contains(t, repo.courses, course.ID)
}

func TestCourseServiceCreateDuplicateCode(t *testing.T) {
	svc, _, _ := newCourseFixture()

	_, err := svc.Create(context.Background(), CreateCourseRequest{
		Code: "CS100", Name: "Dup", Credits: 3, DepartmentID: "dep-1",
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestCourseServiceCreateMinimumCredits(t *testing.T) {
	svc, _, _ := newCourseFixture()

	_, err := svc.Create(context.Background(), CreateCourseRequest{
		Code: "CS102", Name: "Tiny", Credits: 1, DepartmentID: "dep-1",
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestCourseServiceCreateUnknownPrerequisite(t *testing.T) {
	svc, _, _ := newCourseFixture()

	_, err := svc.Create(context.Background(), CreateCourseRequest{
		Code: "CS103", Name: "Advanced", Credits: 3, DepartmentID: "dep-1",
		PrerequisiteIDs: []string{"missing"},
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestCourseServiceUpdateSelfPrerequisite(t *testing.T) {
	svc, _, _ := newCourseFixture()

	_, err := svc.Update(context.Background(), "CS100", UpdateCourseRequest{
		Name: "Basics", Credits: 3, DepartmentID: "dep-1",
		PrerequisiteIDs: []string{"course-1"},
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestCourseServiceUpdate(t *testing.T) {
	svc, repo, _ := newCourseFixture()

	course, err := svc.Update(context.Background(), "CS100", UpdateCourseRequest{
		Name: "Foundations", Credits: 4, DepartmentID: "dep-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Foundations", course.Name)
	assert.Equal(t, 4, repo.courses["course-1"].Credits)
}

func TestCourseServiceDeactivate(t *testing.T) {
	svc, repo, _ := newCourseFixture()

	require.NoError(t, svc.Deactivate(context.Background(), "CS100"))
	assert.False(t, repo.courses["course-1"].IsActive)

	err := svc.Deactivate(context.Background(), "CS999")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestCourseServiceDeactivateWithActiveClasses(t *testing.T) {
	svc, repo, classes := newCourseFixture()
	classes.activeByCourse["course-1"] = 2

	err := svc.Deactivate(context.Background(), "CS100")
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.True(t, repo.courses["course-1"].IsActive)
}
