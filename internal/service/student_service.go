package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bktrung/academic-records-api/internal/models"
	appErrors "github.com/bktrung/academic-records-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	FindByCode(ctx context.Context, code string) (*models.StudentDetail, error)
	FindByEmail(ctx context.Context, email string) (*models.StudentDetail, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	UpdateStatus(ctx context.Context, id, statusID string) error
}

type studentStatusReader interface {
	FindStatusByID(ctx context.Context, id string) (*models.StudentStatus, error)
}

type transitionChecker interface {
	IsTransitionAllowed(ctx context.Context, fromID, toID string) (bool, error)
}

type studentDepartmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

// CreateStudentRequest describes payload for registering a student.
type CreateStudentRequest struct {
	Code         string `json:"code" validate:"required"`
	FullName     string `json:"full_name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	StatusID     string `json:"status_id" validate:"required"`
	DepartmentID string `json:"department_id" validate:"required"`
	EnrolledYear int    `json:"enrolled_year" validate:"required,min=1990"`
}

// UpdateStudentRequest updates mutable student fields.
type UpdateStudentRequest struct {
	FullName     string `json:"full_name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	DepartmentID string `json:"department_id" validate:"required"`
}

// ChangeStatusRequest moves a student to a new status.
type ChangeStatusRequest struct {
	StatusID string `json:"status_id" validate:"required"`
}

// StudentService manages students. Status changes to a different value are
// gated by the status transition graph.
type StudentService struct {
	repo        studentRepository
	statuses    studentStatusReader
	transitions transitionChecker
	departments studentDepartmentReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(repo studentRepository, statuses studentStatusReader, transitions transitionChecker, departments studentDepartmentReader, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, statuses: statuses, transitions: transitions, departments: departments, validator: validate, logger: logger}
}

// List returns students with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
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
	return students, pagination, nil
}

// GetByID returns a single student with status and department names.
func (s *StudentService) GetByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a student.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	if _, err := s.repo.FindByCode(ctx, req.Code); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("student code %s already exists", req.Code))
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student code")
	}
	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already in use")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student email")
	}

	if _, err := s.statuses.FindStatusByID(ctx, req.StatusID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "status not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load status")
	}
	if _, err := s.departments.FindByID(ctx, req.DepartmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}

	student := &models.Student{
		Code:         req.Code,
		FullName:     req.FullName,
		Email:        req.Email,
		StatusID:     req.StatusID,
		DepartmentID: req.DepartmentID,
		EnrolledYear: req.EnrolledYear,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.logger.Info("student created", zap.String("code", student.Code))
	return student, nil
}

// Update modifies mutable student fields.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if existing, err := s.repo.FindByEmail(ctx, req.Email); err == nil && existing.ID != id {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already in use")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student email")
	}
	if _, err := s.departments.FindByID(ctx, req.DepartmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}

	student := detail.Student
	student.FullName = req.FullName
	student.Email = req.Email
	student.DepartmentID = req.DepartmentID
	if err := s.repo.Update(ctx, &student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return &student, nil
}

// ChangeStatus moves a student to a different status when the transition
// graph allows it. Setting the current status again is a no-op.
func (s *StudentService) ChangeStatus(ctx context.Context, id string, req ChangeStatusRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if detail.StatusID == req.StatusID {
		student := detail.Student
		return &student, nil
	}

	target, err := s.statuses.FindStatusByID(ctx, req.StatusID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "status not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load status")
	}

	allowed, err := s.transitions.IsTransitionAllowed(ctx, detail.StatusID, req.StatusID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, appErrors.WithDetails(appErrors.ErrTransitionNotAllowed,
			fmt.Sprintf("transition from %q to %q is not allowed", detail.StatusName, target.Name),
			map[string]interface{}{"from_status_id": detail.StatusID, "to_status_id": req.StatusID},
		)
	}

	if err := s.repo.UpdateStatus(ctx, id, req.StatusID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student status")
	}

	student := detail.Student
	student.StatusID = req.StatusID
	s.logger.Info("student status changed",
		zap.String("student_id", id),
		zap.String("to_status", target.Name),
	)
	return &student, nil
}
