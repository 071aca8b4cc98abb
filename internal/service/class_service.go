package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bktrung/academic-records-api/internal/models"
	appErrors "github.com/bktrung/academic-records-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error)
	FindByCode(ctx context.Context, code string) (*models.Class, error)
	FindActiveSharing(ctx context.Context, days []int, classrooms []string, excludeCode string) ([]models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	SetActive(ctx context.Context, id string, active bool) error
	CountEnrollments(ctx context.Context, classID string) (int, error)
}

type classCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// CreateClassRequest describes payload for creating a class.
type CreateClassRequest struct {
	Code         string                `json:"code" validate:"required"`
	CourseID     string                `json:"course_id" validate:"required"`
	AcademicYear string                `json:"academic_year" validate:"required"`
	Semester     int                   `json:"semester" validate:"required,min=1,max=3"`
	Instructor   string                `json:"instructor" validate:"required"`
	MaxCapacity  int                   `json:"max_capacity" validate:"required,min=1"`
	Schedule     []models.ScheduleSlot `json:"schedule" validate:"required,min=1,dive"`
}

// UpdateClassRequest updates mutable class fields.
type UpdateClassRequest struct {
	Instructor  string                `json:"instructor" validate:"required"`
	MaxCapacity int                   `json:"max_capacity" validate:"required,min=1"`
	Schedule    []models.ScheduleSlot `json:"schedule" validate:"required,min=1,dive"`
}

// ClassService manages class offerings and guards their schedules against
// classroom conflicts.
type ClassService struct {
	repo      classRepository
	courses   classCourseReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs ClassService.
func NewClassService(repo classRepository, courses classCourseReader, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, courses: courses, validator: validate, logger: logger}
}

// List returns classes with pagination metadata.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, *models.Pagination, error) {
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return classes, pagination, nil
}

// GetByCode returns a single class.
func (s *ClassService) GetByCode(ctx context.Context, code string) (*models.Class, error) {
	class, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// Create registers a new class after internal and external schedule checks.
// The internal check runs first; the external check never runs for a
// schedule that conflicts with itself.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	if err := validateAcademicYear(req.AcademicYear); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if err := ValidateSchedule(req.Schedule); err != nil {
		var conflictErr *models.ScheduleConflictError
		if errors.As(err, &conflictErr) {
			return nil, appErrors.WithDetails(appErrors.ErrScheduleConflict, conflictErr.Message, conflictErr.Conflict)
		}
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	if _, err := s.repo.FindByCode(ctx, req.Code); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("class code %s already exists", req.Code))
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class code")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !course.IsActive {
		return nil, appErrors.Clone(appErrors.ErrInactiveEntity, "course is not active")
	}

	if err := s.ensureNoExternalConflict(ctx, req.Schedule, ""); err != nil {
		return nil, err
	}

	class := &models.Class{
		Code:         req.Code,
		CourseID:     req.CourseID,
		AcademicYear: req.AcademicYear,
		Semester:     req.Semester,
		Instructor:   req.Instructor,
		MaxCapacity:  req.MaxCapacity,
		IsActive:     true,
		Schedule:     req.Schedule,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	s.logger.Info("class created", zap.String("code", class.Code), zap.String("course_id", class.CourseID))
	return class, nil
}

// Update modifies instructor, capacity, and schedule of an existing class.
func (s *ClassService) Update(ctx context.Context, code string, req UpdateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	class, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	if req.MaxCapacity < class.EnrolledCount {
		return nil, appErrors.Clone(appErrors.ErrValidation, "max capacity cannot fall below current enrollment")
	}

	if err := ValidateSchedule(req.Schedule); err != nil {
		var conflictErr *models.ScheduleConflictError
		if errors.As(err, &conflictErr) {
			return nil, appErrors.WithDetails(appErrors.ErrScheduleConflict, conflictErr.Message, conflictErr.Conflict)
		}
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if err := s.ensureNoExternalConflict(ctx, req.Schedule, class.Code); err != nil {
		return nil, err
	}

	class.Instructor = req.Instructor
	class.MaxCapacity = req.MaxCapacity
	class.Schedule = req.Schedule
	if err := s.repo.Update(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	return class, nil
}

// Deactivate closes a class for further enrollment. Classes are never
// deleted once created.
func (s *ClassService) Deactivate(ctx context.Context, code string) error {
	class, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if err := s.repo.SetActive(ctx, class.ID, false); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate class")
	}
	return nil
}

func (s *ClassService) ensureNoExternalConflict(ctx context.Context, schedule []models.ScheduleSlot, excludeCode string) error {
	days := make([]int, 0, len(schedule))
	classrooms := make([]string, 0, len(schedule))
	seenDay := make(map[int]struct{})
	seenRoom := make(map[string]struct{})
	for _, slot := range schedule {
		if _, ok := seenDay[slot.DayOfWeek]; !ok {
			seenDay[slot.DayOfWeek] = struct{}{}
			days = append(days, slot.DayOfWeek)
		}
		if _, ok := seenRoom[slot.Classroom]; !ok {
			seenRoom[slot.Classroom] = struct{}{}
			classrooms = append(classrooms, slot.Classroom)
		}
	}

	candidates, err := s.repo.FindActiveSharing(ctx, days, classrooms, excludeCode)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load conflict candidates")
	}

	conflicting, first := FindClassConflicts(schedule, candidates)
	if len(conflicting) > 0 {
		codes := make([]string, 0, len(conflicting))
		for _, c := range conflicting {
			codes = append(codes, c.Code)
		}
		msg := fmt.Sprintf("schedule conflicts with class %s", strings.Join(codes, ", "))
		return appErrors.WithDetails(appErrors.ErrScheduleConflict, msg, first)
	}
	return nil
}

// validateAcademicYear enforces the "YYYY-YYYY" label with consecutive years.
func validateAcademicYear(value string) error {
	parts := strings.Split(value, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 4 {
		return fmt.Errorf("academic year must use the YYYY-YYYY format")
	}
	first, err := strconv.Atoi(parts[0])
	if err != nil {
		return fmt.Errorf("academic year must use the YYYY-YYYY format")
	}
	second, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Errorf("academic year must use the YYYY-YYYY format")
	}
	if second != first+1 {
		return fmt.Errorf("academic year %s must span consecutive years", value)
	}
	return nil
}
