package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bktrung/academic-records-api/internal/models"
)

// GradeRepository handles persistence of grades.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// FindByEnrollment returns the grade recorded for an enrollment.
func (r *GradeRepository) FindByEnrollment(ctx context.Context, enrollmentID string) (*models.Grade, error) {
	const query = `SELECT id, enrollment_id, midterm_score, final_score, total_score, letter_grade, grade_points,
        created_at, updated_at
        FROM grades WHERE enrollment_id = $1`
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, enrollmentID); err != nil {
		return nil, err
	}
	return &grade, nil
}

// Create inserts a grade record.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	grade.CreatedAt = now
	grade.UpdatedAt = now

	const query = `INSERT INTO grades (id, enrollment_id, midterm_score, final_score, total_score, letter_grade, grade_points, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.db.ExecContext(ctx, query, grade.ID, grade.EnrollmentID, grade.MidtermScore, grade.FinalScore,
		grade.TotalScore, grade.LetterGrade, grade.GradePoints, grade.CreatedAt, grade.UpdatedAt); err != nil {
		return fmt.Errorf("insert grade: %w", err)
	}
	return nil
}

// UpdateScores rewrites the scores and derived fields of an existing grade.
func (r *GradeRepository) UpdateScores(ctx context.Context, grade *models.Grade) error {
	grade.UpdatedAt = time.Now().UTC()
	const query = `UPDATE grades SET midterm_score = $1, final_score = $2, total_score = $3,
        letter_grade = $4, grade_points = $5, updated_at = $6
        WHERE id = $7`
	if _, err := r.db.ExecContext(ctx, query, grade.MidtermScore, grade.FinalScore, grade.TotalScore,
		grade.LetterGrade, grade.GradePoints, grade.UpdatedAt, grade.ID); err != nil {
		return fmt.Errorf("update grade scores: %w", err)
	}
	return nil
}
