package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bktrung/academic-records-api/internal/models"
	appErrors "github.com/bktrung/academic-records-api/pkg/errors"
)

type semesterRepository interface {
	List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, int, error)
	FindByTerm(ctx context.Context, academicYear string, semester int) (*models.Semester, error)
	Create(ctx context.Context, semester *models.Semester) error
	Update(ctx context.Context, semester *models.Semester) error
}

// UpsertSemesterRequest defines the calendar windows for a term.
type UpsertSemesterRequest struct {
	AcademicYear      string    `json:"academic_year" validate:"required"`
	Semester          int       `json:"semester" validate:"required,min=1,max=3"`
	RegistrationStart time.Time `json:"registration_start" validate:"required"`
	RegistrationEnd   time.Time `json:"registration_end" validate:"required"`
	DropDeadline      time.Time `json:"drop_deadline" validate:"required"`
	StartDate         time.Time `json:"start_date" validate:"required"`
	EndDate           time.Time `json:"end_date" validate:"required"`
}

// SemesterService manages term calendars.
type SemesterService struct {
	repo      semesterRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSemesterService constructs SemesterService.
func NewSemesterService(repo semesterRepository, validate *validator.Validate, logger *zap.Logger) *SemesterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemesterService{repo: repo, validator: validate, logger: logger}
}

// List returns semesters with pagination metadata.
func (s *SemesterService) List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, *models.Pagination, error) {
	semesters, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semesters")
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
	return semesters, pagination, nil
}

// GetByTerm returns the semester for an academic year and term number.
func (s *SemesterService) GetByTerm(ctx context.Context, academicYear string, semester int) (*models.Semester, error) {
	sem, err := s.repo.FindByTerm(ctx, academicYear, semester)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}
	return sem, nil
}

// Create registers a new term calendar.
func (s *SemesterService) Create(ctx context.Context, req UpsertSemesterRequest) (*models.Semester, error) {
	if err := s.validateWindows(req); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByTerm(ctx, req.AcademicYear, req.Semester); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("semester %d of %s already exists", req.Semester, req.AcademicYear))
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check semester")
	}

	semester := &models.Semester{
		AcademicYear:      req.AcademicYear,
		Semester:          req.Semester,
		RegistrationStart: req.RegistrationStart,
		RegistrationEnd:   req.RegistrationEnd,
		DropDeadline:      req.DropDeadline,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
	}
	if err := s.repo.Create(ctx, semester); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create semester")
	}
	return semester, nil
}

// Update replaces the calendar windows for an existing term.
func (s *SemesterService) Update(ctx context.Context, academicYear string, semesterNo int, req UpsertSemesterRequest) (*models.Semester, error) {
	if err := s.validateWindows(req); err != nil {
		return nil, err
	}

	semester, err := s.repo.FindByTerm(ctx, academicYear, semesterNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}

	semester.RegistrationStart = req.RegistrationStart
	semester.RegistrationEnd = req.RegistrationEnd
	semester.DropDeadline = req.DropDeadline
	semester.StartDate = req.StartDate
	semester.EndDate = req.EndDate
	if err := s.repo.Update(ctx, semester); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update semester")
	}
	return semester, nil
}

// validateWindows enforces the ordering invariants: registration precedes
// the semester, and the drop deadline falls between registration end and
// semester end.
func (s *SemesterService) validateWindows(req UpsertSemesterRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}
	if err := validateAcademicYear(req.AcademicYear); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if !req.RegistrationStart.Before(req.RegistrationEnd) {
		return appErrors.Clone(appErrors.ErrValidation, "registration start must precede registration end")
	}
	if !req.StartDate.Before(req.EndDate) {
		return appErrors.Clone(appErrors.ErrValidation, "semester start must precede semester end")
	}
	if req.DropDeadline.Before(req.RegistrationEnd) || req.DropDeadline.After(req.EndDate) {
		return appErrors.Clone(appErrors.ErrValidation, "drop deadline must fall between registration end and semester end")
	}
	return nil
}
