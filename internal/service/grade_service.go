package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bktrung/academic-records-api/internal/models"
	appErrors "github.com/bktrung/academic-records-api/pkg/errors"
)

type gradeRepository interface {
	FindByEnrollment(ctx context.Context, enrollmentID string) (*models.Grade, error)
	Create(ctx context.Context, grade *models.Grade) error
	UpdateScores(ctx context.Context, grade *models.Grade) error
}

type gradeEnrollmentStore interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	SetCompleted(ctx context.Context, id string) error
}

type transcriptInvalidator interface {
	Invalidate(ctx context.Context, studentID string)
}

// GradeScoresRequest carries the scores for a grade entry. Total score is
// on the 10-point scale; letter grade and grade points are derived.
type GradeScoresRequest struct {
	MidtermScore *float64 `json:"midterm_score" validate:"omitempty,min=0,max=10"`
	FinalScore   *float64 `json:"final_score" validate:"omitempty,min=0,max=10"`
	TotalScore   float64  `json:"total_score" validate:"min=0,max=10"`
}

// GradeService records and updates grades, one per enrollment.
type GradeService struct {
	repo        gradeRepository
	enrollments gradeEnrollmentStore
	transcripts transcriptInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewGradeService constructs GradeService. transcripts may be nil.
func NewGradeService(repo gradeRepository, enrollments gradeEnrollmentStore, transcripts transcriptInvalidator, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{repo: repo, enrollments: enrollments, transcripts: transcripts, validator: validate, logger: logger}
}

// GetByEnrollment returns the grade for an enrollment.
func (s *GradeService) GetByEnrollment(ctx context.Context, enrollmentID string) (*models.Grade, error) {
	grade, err := s.repo.FindByEnrollment(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	return grade, nil
}

// Create records a grade for an enrollment and marks the enrollment
// completed. An enrollment can hold at most one grade.
func (s *GradeService) Create(ctx context.Context, enrollmentID string, req GradeScoresRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status == models.EnrollmentStatusDropped {
		return nil, appErrors.Clone(appErrors.ErrInactiveEntity, "cannot grade a dropped enrollment")
	}

	if _, err := s.repo.FindByEnrollment(ctx, enrollmentID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "enrollment already has a grade")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing grade")
	}

	letter, points := CalculateGrade(req.TotalScore)
	grade := &models.Grade{
		EnrollmentID: enrollmentID,
		MidtermScore: req.MidtermScore,
		FinalScore:   req.FinalScore,
		TotalScore:   req.TotalScore,
		LetterGrade:  letter,
		GradePoints:  points,
	}
	if err := s.repo.Create(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grade")
	}

	if enrollment.Status == models.EnrollmentStatusActive {
		if err := s.enrollments.SetCompleted(ctx, enrollmentID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete enrollment")
		}
	}
	if s.transcripts != nil {
		s.transcripts.Invalidate(ctx, enrollment.StudentID)
	}

	s.logger.Info("grade recorded",
		zap.String("enrollment_id", enrollmentID),
		zap.Float64("total_score", req.TotalScore),
		zap.String("letter_grade", letter),
	)
	return grade, nil
}

// UpdateScores replaces the scores of an existing grade and re-derives the
// letter grade and grade points.
func (s *GradeService) UpdateScores(ctx context.Context, enrollmentID string, req GradeScoresRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	grade, err := s.repo.FindByEnrollment(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}

	letter, points := CalculateGrade(req.TotalScore)
	grade.MidtermScore = req.MidtermScore
	grade.FinalScore = req.FinalScore
	grade.TotalScore = req.TotalScore
	grade.LetterGrade = letter
	grade.GradePoints = points

	if err := s.repo.UpdateScores(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grade")
	}

	if s.transcripts != nil {
		if enrollment, err := s.enrollments.FindByID(ctx, enrollmentID); err == nil {
			s.transcripts.Invalidate(ctx, enrollment.StudentID)
		}
	}
	return grade, nil
}
