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

type mockClassRepo struct {
	classes     map[string]models.Class
	deactivated []string
}

func newMockClassRepo() *mockClassRepo {
	return &mockClassRepo{classes: make(map[string]models.Class)}
}

func (m *mockClassRepo) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error) {
	var out []models.Class
	for _, c := range m.classes {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (m *mockClassRepo) FindByCode(ctx context.Context, code string) (*models.Class, error) {
	if c, ok := m.classes[code]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) FindActiveSharing(ctx context.Context, days []int, classrooms []string, excludeCode string) ([]models.Class, error) {
	daySet := make(map[int]struct{}, len(days))
	for _, d := range days {
		daySet[d] = struct{}{}
	}
	roomSet := make(map[string]struct{}, len(classrooms))
	for _, r := range classrooms {
		roomSet[r] = struct{}{}
	}
	var out []models.Class
	for _, c := range m.classes {
		if !c.IsActive || c.Code == excludeCode {
			continue
		}
		for _, slot := range c.Schedule {
			_, dayOK := daySet[slot.DayOfWeek]
			_, roomOK := roomSet[slot.Classroom]
			if dayOK && roomOK {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

func (m *mockClassRepo) Create(ctx context.Context, class *models.Class) error {
	class.ID = "class-" + class.Code
	m.classes[class.Code] = *class
	return nil
}

func (m *mockClassRepo) Update(ctx context.Context, class *models.Class) error {
	m.classes[class.Code] = *class
	return nil
}

func (m *mockClassRepo) SetActive(ctx context.Context, id string, active bool) error {
	for code, c := range m.classes {
		if c.ID == id {
			c.IsActive = active
			m.classes[code] = c
		}
	}
	if !active {
		m.deactivated = append(m.deactivated, id)
	}
	return nil
}

func (m *mockClassRepo) CountEnrollments(ctx context.Context, classID string) (int, error) {
	return 0, nil
}

func newClassFixture() (*ClassService, *mockClassRepo) {
	repo := newMockClassRepo()
	courses := &mockEnrollmentCourses{courses: map[string]models.Course{
		"course-1": {ID: "course-1", Code: "CS101", Name: "Intro", Credits: 3, IsActive: true},
		"course-2": {ID: "course-2", Code: "CS900", Name: "Retired", Credits: 3, IsActive: false},
	}}
	svc := NewClassService(repo, courses, nil, zap.NewNop())
	return svc, repo
}

func validCreateClassRequest() CreateClassRequest {
	return CreateClassRequest{
		Code:         "CS101-01",
		CourseID:     "course-1",
		AcademicYear: "2025-2026",
		Semester:     1,
		Instructor:   "Dr. Nguyen",
		MaxCapacity:  40,
		Schedule:     []models.ScheduleSlot{slot(2, 1, 3, "A101")},
	}
}

func TestClassServiceCreate(t *testing.T) {
	svc, repo := newClassFixture()

	class, err := svc.Create(context.Background(), validCreateClassRequest())
	require.NoError(t, err)
	assert.True(t, class.IsActive)
	assert.Equal(t, 0, class.EnrolledCount)
	assert.Contains(t, repo.classes, "CS101-01")
}

func TestClassServiceCreateBadAcademicYear(t *testing.T) {
	svc, _ := newClassFixture()

	for _, year := range []string{"2025", "2025-2027", "abcd-efgh", "25-26"} {
		req := validCreateClassRequest()
		req.AcademicYear = year
		_, err := svc.Create(context.Background(), req)
		assert.True(t, appErrors.Is(err, appErrors.ErrValidation), "year %s", year)
	}
}

func TestClassServiceCreateInternalConflict(t *testing.T) {
	svc, repo := newClassFixture()

	req := validCreateClassRequest()
	req.Schedule = []models.ScheduleSlot{slot(2, 1, 4, "A101"), slot(2, 3, 6, "A101")}
	_, err := svc.Create(context.Background(), req)
	require.True(t, appErrors.Is(err, appErrors.ErrScheduleConflict))
	assert.Empty(t, repo.classes)

	appErr := appErrors.FromError(err)
	conflict, ok := appErr.Details.(models.SlotConflict)
	require.True(t, ok)
	assert.Equal(t, slot(2, 1, 4, "A101"), conflict.CandidateSlot)
}

func TestClassServiceCreateExternalConflict(t *testing.T) {
	svc, repo := newClassFixture()
	repo.classes["CS102-01"] = models.Class{
		ID: "class-CS102-01", Code: "CS102-01", CourseID: "course-1",
		IsActive: true,
		Schedule: []models.ScheduleSlot{slot(2, 2, 5, "A101")},
	}

	_, err := svc.Create(context.Background(), validCreateClassRequest())
	require.True(t, appErrors.Is(err, appErrors.ErrScheduleConflict))

	appErr := appErrors.FromError(err)
	first, ok := appErr.Details.(*models.SlotConflict)
	require.True(t, ok)
	assert.Equal(t, "CS102-01", first.ClassCode)
}

func TestClassServiceCreateDuplicateCode(t *testing.T) {
	svc, _ := newClassFixture()

	_, err := svc.Create(context.Background(), validCreateClassRequest())
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), validCreateClassRequest())
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestClassServiceCreateInactiveCourse(t *testing.T) {
	svc, _ := newClassFixture()

	req := validCreateClassRequest()
	req.CourseID = "course-2"
	_, err := svc.Create(context.Background(), req)
	assert.True(t, appErrors.Is(err, appErrors.ErrInactiveEntity))
}

func TestClassServiceUpdate(t *testing.T) {
	svc, repo := newClassFixture()
	_, err := svc.Create(context.Background(), validCreateClassRequest())
	require.NoError(t, err)

	class, err := svc.Update(context.Background(), "CS101-01", UpdateClassRequest{
		Instructor:  "Dr. Pham",
		MaxCapacity: 50,
		Schedule:    []models.ScheduleSlot{slot(3, 1, 3, "B202")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Dr. Pham", class.Instructor)
	assert.Equal(t, 50, repo.classes["CS101-01"].MaxCapacity)
}

func TestClassServiceUpdateCapacityBelowEnrollment(t *testing.T) {
	svc, repo := newClassFixture()
	_, err := svc.Create(context.Background(), validCreateClassRequest())
	require.NoError(t, err)
	class := repo.classes["CS101-01"]
	class.EnrolledCount = 30
	repo.classes["CS101-01"] = class

	_, err = svc.Update(context.Background(), "CS101-01", UpdateClassRequest{
		Instructor:  "Dr. Pham",
		MaxCapacity: 20,
		Schedule:    []models.ScheduleSlot{slot(2, 1, 3, "A101")},
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestClassServiceUpdateIgnoresOwnSchedule(t *testing.T) {
	svc, _ := newClassFixture()
	_, err := svc.Create(context.Background(), validCreateClassRequest())
	require.NoError(t, err)

	// Re-submitting the same schedule must not conflict with itself.
	_, err = svc.Update(context.Background(), "CS101-01", UpdateClassRequest{
		Instructor:  "Dr. Nguyen",
		MaxCapacity: 40,
		Schedule:    []models.ScheduleSlot{slot(2, 1, 3, "A101")},
	})
	assert.NoError(t, err)
}

func TestClassServiceDeactivate(t *testing.T) {
	svc, repo := newClassFixture()
	_, err := svc.Create(context.Background(), validCreateClassRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), "CS101-01"))
	assert.False(t, repo.classes["CS101-01"].IsActive)

	err = svc.Deactivate(context.Background(), "missing")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
