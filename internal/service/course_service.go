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

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindByCode(ctx context.Context, code string) (*models.Course, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	SetActive(ctx context.Context, id string, active bool) error
}

type courseDepartmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

type courseClassCounter interface {
	CountActiveByCourse(ctx context.Context, courseID string) (int, error)
}

// CreateCourseRequest describes payload for creating a course.
type CreateCourseRequest struct {
	Code            string   `json:"code" validate:"required"`
	Name            string   `json:"name" validate:"required"`
	Credits         int      `json:"credits" validate:"required,min=2"`
	DepartmentID    string   `json:"department_id" validate:"required"`
	Description     *string  `json:"description"`
	PrerequisiteIDs []string `json:"prerequisite_ids"`
}

// UpdateCourseRequest updates mutable course fields.
type UpdateCourseRequest struct {
	Name            string   `json:"name" validate:"required"`
	Credits         int      `json:"credits" validate:"required,min=2"`
	DepartmentID    string   `json:"department_id" validate:"required"`
	Description     *string  `json:"description"`
	PrerequisiteIDs []string `json:"prerequisite_ids"`
}

// CourseService manages the course catalog. Prerequisites may chain
// transitively; no cycle check is applied.
type CourseService struct {
	repo        courseRepository
	departments courseDepartmentReader
	classes     courseClassCounter
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, departments courseDepartmentReader, classes courseClassCounter, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, departments: departments, classes: classes, validator: validate, logger: logger}
}

// List returns courses with pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
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
	return courses, pagination, nil
}

// GetByCode returns a single course.
func (s *CourseService) GetByCode(ctx context.Context, code string) (*models.Course, error) {
	course, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create adds a course to the catalog.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	if _, err := s.repo.FindByCode(ctx, req.Code); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("course code %s already exists", req.Code))
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course code")
	}

	if err := s.checkReferences(ctx, req.DepartmentID, req.PrerequisiteIDs); err != nil {
		return nil, err
	}

	course := &models.Course{
		Code:            req.Code,
		Name:            req.Name,
		Credits:         req.Credits,
		DepartmentID:    req.DepartmentID,
		Description:     req.Description,
		IsActive:        true,
		PrerequisiteIDs: req.PrerequisiteIDs,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.logger.Info("course created", zap.String("code", course.Code))
	return course, nil
}

// Update modifies an existing course.
func (s *CourseService) Update(ctx context.Context, code string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	for _, prereqID := range req.PrerequisiteIDs {
		if prereqID == course.ID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "course cannot be its own prerequisite")
		}
	}
	if err := s.checkReferences(ctx, req.DepartmentID, req.PrerequisiteIDs); err != nil {
		return nil, err
	}

	course.Name = req.Name
	course.Credits = req.Credits
	course.DepartmentID = req.DepartmentID
	course.Description = req.Description
	course.PrerequisiteIDs = req.PrerequisiteIDs
	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return course, nil
}

// Deactivate removes a course from active enrollment without deleting it.
// Refused while active classes still offer the course.
func (s *CourseService) Deactivate(ctx context.Context, code string) error {
	course, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	active, err := s.classes.CountActiveByCourse(ctx, course.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count active classes")
	}
	if active > 0 {
		return appErrors.WithDetails(appErrors.ErrConflict, "course has active classes", map[string]interface{}{"class_count": active})
	}
	if err := s.repo.SetActive(ctx, course.ID, false); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate course")
	}
	return nil
}

func (s *CourseService) checkReferences(ctx context.Context, departmentID string, prerequisiteIDs []string) error {
	if _, err := s.departments.FindByID(ctx, departmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	if len(prerequisiteIDs) == 0 {
		return nil
	}
	found, err := s.repo.FindByIDs(ctx, prerequisiteIDs)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prerequisites")
	}
	if len(found) != len(uniqueStrings(prerequisiteIDs)) {
		return appErrors.Clone(appErrors.ErrNotFound, "one or more prerequisite courses not found")
	}
	return nil
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
