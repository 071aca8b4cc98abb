package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bktrung/academic-records-api/internal/models"
	appErrors "github.com/bktrung/academic-records-api/pkg/errors"
)

type enrollmentRepository interface {
	FindActive(ctx context.Context, studentID, classID string) (*models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	SetDropped(ctx context.Context, id, reason string, droppedAt time.Time) error
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	ListDetailsByStudent(ctx context.Context, studentID string, status models.EnrollmentStatus) ([]models.EnrollmentDetail, error)
}

type enrollmentClassRepository interface {
	FindByCode(ctx context.Context, code string) (*models.Class, error)
	IncrementEnrolledBelowCapacity(ctx context.Context, classID string) (bool, error)
	DecrementEnrolled(ctx context.Context, classID string) error
}

type enrollmentStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

type enrollmentCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Course, error)
}

type enrollmentSemesterReader interface {
	FindByTerm(ctx context.Context, academicYear string, semester int) (*models.Semester, error)
}

// EnrollRequest describes an enrollment attempt.
type EnrollRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	ClassCode string `json:"class_code" validate:"required"`
}

// DropRequest describes a drop attempt.
type DropRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	ClassCode string `json:"class_code" validate:"required"`
	Reason    string `json:"reason" validate:"required"`
}

// MissingPrerequisite identifies an unmet prerequisite for error payloads.
type MissingPrerequisite struct {
	CourseID   string `json:"course_id"`
	CourseCode string `json:"course_code"`
	CourseName string `json:"course_name"`
}

// EnrollmentService decides enrollment eligibility and performs the
// resulting enrollment writes.
type EnrollmentService struct {
	repo          enrollmentRepository
	classes       enrollmentClassRepository
	students      enrollmentStudentReader
	courses       enrollmentCourseReader
	semesters     enrollmentSemesterReader
	prerequisites *PrerequisiteResolver
	validator     *validator.Validate
	logger        *zap.Logger
	now           func() time.Time
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, classes enrollmentClassRepository, students enrollmentStudentReader, courses enrollmentCourseReader, semesters enrollmentSemesterReader, prerequisites *PrerequisiteResolver, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		repo:          repo,
		classes:       classes,
		students:      students,
		courses:       courses,
		semesters:     semesters,
		prerequisites: prerequisites,
		validator:     validate,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// List returns enrollments with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
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
	return enrollments, pagination, nil
}

// Enroll registers a student into a class after the full eligibility check
// sequence. The capacity check is enforced twice: a cheap read for early
// rejection and a conditional increment at write time so concurrent enrolls
// cannot push enrolled_count past max_capacity.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	class, err := s.classes.FindByCode(ctx, req.ClassCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if !class.IsActive {
		return nil, appErrors.Clone(appErrors.ErrInactiveEntity, "class is not active")
	}

	if class.EnrolledCount >= class.MaxCapacity {
		return nil, appErrors.WithDetails(appErrors.ErrCapacityExceeded, "class is full", map[string]interface{}{
			"class_code":   class.Code,
			"max_capacity": class.MaxCapacity,
		})
	}

	existing, err := s.repo.FindActive(ctx, req.StudentID, class.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing enrollment")
	}
	if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrDuplicateEnrollment, "student already has an active enrollment in this class")
	}

	course, err := s.courses.FindByID(ctx, class.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !course.IsActive {
		return nil, appErrors.Clone(appErrors.ErrInactiveEntity, "course is not active")
	}

	completed, err := s.prerequisites.CompletedCourseIDs(ctx, req.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve completed courses")
	}
	if missingIDs := s.prerequisites.Missing(course, completed); len(missingIDs) > 0 {
		missing, err := s.describeMissing(ctx, missingIDs)
		if err != nil {
			return nil, err
		}
		return nil, appErrors.WithDetails(appErrors.ErrMissingPrerequisites, "student has not completed required prerequisites", missing)
	}

	ok, err := s.classes.IncrementEnrolledBelowCapacity(ctx, class.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reserve class seat")
	}
	if !ok {
		return nil, appErrors.WithDetails(appErrors.ErrCapacityExceeded, "class is full", map[string]interface{}{
			"class_code":   class.Code,
			"max_capacity": class.MaxCapacity,
		})
	}

	enrollment := &models.Enrollment{
		StudentID:  req.StudentID,
		ClassID:    class.ID,
		Status:     models.EnrollmentStatusActive,
		EnrolledAt: s.now(),
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		// Release the reserved seat so the counter stays consistent.
		if derr := s.classes.DecrementEnrolled(ctx, class.ID); derr != nil {
			s.logger.Error("failed to release reserved seat", zap.String("class_id", class.ID), zap.Error(derr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	s.logger.Info("student enrolled",
		zap.String("student_id", req.StudentID),
		zap.String("class_code", class.Code),
	)
	return enrollment, nil
}

// Drop withdraws an active enrollment before the semester drop deadline.
func (s *EnrollmentService) Drop(ctx context.Context, req DropRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid drop payload")
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	class, err := s.classes.FindByCode(ctx, req.ClassCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	enrollment, err := s.repo.FindActive(ctx, req.StudentID, class.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "active enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	semester, err := s.semesters.FindByTerm(ctx, class.AcademicYear, class.Semester)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found for class term")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}

	now := s.now()
	if now.After(semester.DropDeadline) {
		return nil, appErrors.WithDetails(appErrors.ErrDeadlinePassed, "drop deadline has passed", map[string]interface{}{
			"drop_deadline": semester.DropDeadline,
		})
	}

	if err := s.repo.SetDropped(ctx, enrollment.ID, req.Reason, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to drop enrollment")
	}
	if err := s.classes.DecrementEnrolled(ctx, class.ID); err != nil {
		s.logger.Error("failed to decrement enrolled count", zap.String("class_id", class.ID), zap.Error(err))
	}

	enrollment.Status = models.EnrollmentStatusDropped
	enrollment.DroppedAt = &now
	enrollment.DropReason = &req.Reason

	s.logger.Info("student dropped class",
		zap.String("student_id", req.StudentID),
		zap.String("class_code", class.Code),
	)
	return enrollment, nil
}

func (s *EnrollmentService) describeMissing(ctx context.Context, ids []string) ([]MissingPrerequisite, error) {
	courses, err := s.courses.FindByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve prerequisite courses")
	}
	byID := make(map[string]models.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}
	missing := make([]MissingPrerequisite, 0, len(ids))
	for _, id := range ids {
		entry := MissingPrerequisite{CourseID: id}
		if c, ok := byID[id]; ok {
			entry.CourseCode = c.Code
			entry.CourseName = c.Name
		}
		missing = append(missing, entry)
	}
	return missing, nil
}
