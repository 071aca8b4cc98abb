package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bktrung/academic-records-api/internal/models"
	"github.com/bktrung/academic-records-api/pkg/cache"
	"github.com/bktrung/academic-records-api/pkg/config"
	appErrors "github.com/bktrung/academic-records-api/pkg/errors"
)

type transcriptEnrollmentReader interface {
	ListGradedByStudent(ctx context.Context, studentID string) ([]models.GradedEnrollment, error)
}

type transcriptStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

type transcriptCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// TranscriptService assembles per-course latest-grade transcripts with
// weighted GPA on the 10-point and 4-point scales.
type TranscriptService struct {
	enrollments transcriptEnrollmentReader
	students    transcriptStudentReader
	cache       transcriptCache
	cfg         config.TranscriptConfig
	logger      *zap.Logger
}

// NewTranscriptService constructs TranscriptService. The cache may be nil.
func NewTranscriptService(enrollments transcriptEnrollmentReader, students transcriptStudentReader, cacheStore transcriptCache, cfg config.TranscriptConfig, logger *zap.Logger) *TranscriptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SelectionPolicy == "" {
		cfg.SelectionPolicy = config.TranscriptSelectLatestAny
	}
	return &TranscriptService{enrollments: enrollments, students: students, cache: cacheStore, cfg: cfg, logger: logger}
}

// Build produces the transcript for a student. Results are cached per
// student and selection policy for the configured TTL.
func (s *TranscriptService) Build(ctx context.Context, studentID string) (*models.Transcript, error) {
	key := s.cacheKey(studentID)
	if s.cache != nil {
		var cached models.Transcript
		if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("transcript cache read failed", zap.String("student_id", studentID), zap.Error(err))
		}
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	enrollments, err := s.enrollments.ListGradedByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment history")
	}

	transcript := s.assemble(student, enrollments)

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, transcript, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("transcript cache write failed", zap.String("student_id", studentID), zap.Error(err))
		}
	}
	return transcript, nil
}

// Invalidate drops the cached transcript for a student, for callers that
// mutate grades or enrollments.
func (s *TranscriptService) Invalidate(ctx context.Context, studentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.cacheKey(studentID)); err != nil {
		s.logger.Warn("transcript cache invalidation failed", zap.String("student_id", studentID), zap.Error(err))
	}
}

func (s *TranscriptService) cacheKey(studentID string) string {
	return fmt.Sprintf("transcript:%s:%s", s.cfg.SelectionPolicy, studentID)
}

// assemble groups enrollments by course, keeps the representative attempt
// per the selection policy, and aggregates credit-weighted GPA. A course
// only appears when the selected enrollment carries a grade.
func (s *TranscriptService) assemble(student *models.StudentDetail, enrollments []models.GradedEnrollment) *models.Transcript {
	latest := make(map[string]models.GradedEnrollment)
	var order []string
	for _, e := range enrollments {
		if s.cfg.SelectionPolicy == config.TranscriptSelectLatestCompleted && e.Status != models.EnrollmentStatusCompleted {
			continue
		}
		current, ok := latest[e.CourseID]
		if !ok {
			latest[e.CourseID] = e
			order = append(order, e.CourseID)
			continue
		}
		if e.EnrolledAt.After(current.EnrolledAt) {
			latest[e.CourseID] = e
		}
	}

	transcript := &models.Transcript{
		StudentID:   student.ID,
		StudentCode: student.Code,
		StudentName: student.FullName,
		Entries:     []models.TranscriptEntry{},
	}

	var weightedScore, weightedPoints float64
	for _, courseID := range order {
		e := latest[courseID]
		if e.TotalScore == nil {
			continue
		}
		letter, points := CalculateGrade(*e.TotalScore)
		if e.GradePoints != nil {
			points = *e.GradePoints
		}
		transcript.Entries = append(transcript.Entries, models.TranscriptEntry{
			CourseCode:  e.CourseCode,
			CourseName:  e.CourseName,
			Credits:     e.Credits,
			TotalScore:  *e.TotalScore,
			LetterGrade: letter,
			GradePoints: points,
		})
		transcript.TotalCredits += e.Credits
		weightedScore += float64(e.Credits) * *e.TotalScore
		weightedPoints += float64(e.Credits) * points
	}

	if transcript.TotalCredits > 0 {
		transcript.GPA10 = round2(weightedScore / float64(transcript.TotalCredits))
		transcript.GPA4 = round2(weightedPoints / float64(transcript.TotalCredits))
	}
	return transcript
}
