package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bktrung/academic-records-api/internal/models"
)

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, class_id, status, enrolled_at, dropped_at, drop_reason
        FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindActive returns the active enrollment for a student and class, if any.
func (r *EnrollmentRepository) FindActive(ctx context.Context, studentID, classID string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, class_id, status, enrolled_at, dropped_at, drop_reason
        FROM enrollments WHERE student_id = $1 AND class_id = $2 AND status = $3`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, classID, models.EnrollmentStatusActive); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Create inserts a new enrollment.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	const query = `INSERT INTO enrollments (id, student_id, class_id, status, enrolled_at)
        VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query, enrollment.ID, enrollment.StudentID, enrollment.ClassID,
		enrollment.Status, enrollment.EnrolledAt); err != nil {
		return fmt.Errorf("insert enrollment: %w", err)
	}
	return nil
}

// SetDropped marks an enrollment dropped with the withdrawal metadata.
func (r *EnrollmentRepository) SetDropped(ctx context.Context, id, reason string, droppedAt time.Time) error {
	const query = `UPDATE enrollments SET status = $1, dropped_at = $2, drop_reason = $3 WHERE id = $4`
	if _, err := r.db.ExecContext(ctx, query, models.EnrollmentStatusDropped, droppedAt, reason, id); err != nil {
		return fmt.Errorf("set enrollment dropped: %w", err)
	}
	return nil
}

// SetCompleted marks an enrollment completed.
func (r *EnrollmentRepository) SetCompleted(ctx context.Context, id string) error {
	const query = `UPDATE enrollments SET status = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, models.EnrollmentStatusCompleted, id); err != nil {
		return fmt.Errorf("set enrollment completed: %w", err)
	}
	return nil
}

// List returns enrollments with class and course context.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `FROM enrollments e
JOIN classes c ON c.id = e.class_id
JOIN courses co ON co.id = c.course_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("e.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT e.id, e.student_id, e.class_id, e.status, e.enrolled_at, e.dropped_at, e.drop_reason,
        c.code AS class_code, co.id AS course_id, co.code AS course_code, co.name AS course_name, co.credits
        %s ORDER BY e.enrolled_at DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// ListDetailsByStudent returns a student's enrollments with course context,
// optionally filtered by status.
func (r *EnrollmentRepository) ListDetailsByStudent(ctx context.Context, studentID string, status models.EnrollmentStatus) ([]models.EnrollmentDetail, error) {
	query := `SELECT e.id, e.student_id, e.class_id, e.status, e.enrolled_at, e.dropped_at, e.drop_reason,
        c.code AS class_code, co.id AS course_id, co.code AS course_code, co.name AS course_name, co.credits
        FROM enrollments e
        JOIN classes c ON c.id = e.class_id
        JOIN courses co ON co.id = c.course_id
        WHERE e.student_id = $1`
	args := []interface{}{studentID}
	if status != "" {
		query += " AND e.status = $2"
		args = append(args, status)
	}
	query += " ORDER BY e.enrolled_at ASC"

	var details []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &details, query, args...); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return details, nil
}

// ListGradedByStudent returns a student's full enrollment history joined
// with grades for transcript assembly. Grade columns are NULL when no grade
// record exists for the enrollment.
func (r *EnrollmentRepository) ListGradedByStudent(ctx context.Context, studentID string) ([]models.GradedEnrollment, error) {
	const query = `SELECT e.id AS enrollment_id, e.status, e.enrolled_at,
        co.id AS course_id, co.code AS course_code, co.name AS course_name, co.credits,
        g.total_score, g.grade_points
        FROM enrollments e
        JOIN classes c ON c.id = e.class_id
        JOIN courses co ON co.id = c.course_id
        LEFT JOIN grades g ON g.enrollment_id = e.id
        WHERE e.student_id = $1
        ORDER BY e.enrolled_at ASC`
	var rows []models.GradedEnrollment
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list graded enrollments: %w", err)
	}
	return rows, nil
}
