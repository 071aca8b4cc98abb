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

// SemesterRepository handles persistence of term calendars.
type SemesterRepository struct {
	db *sqlx.DB
}

// NewSemesterRepository constructs the repository.
func NewSemesterRepository(db *sqlx.DB) *SemesterRepository {
	return &SemesterRepository{db: db}
}

// List returns semesters filtered by the provided criteria.
func (r *SemesterRepository) List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, int, error) {
	base := "FROM semesters"
	var conditions []string
	var args []interface{}

	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}
	if filter.Semester != 0 {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
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

	query := fmt.Sprintf(`SELECT id, academic_year, semester, registration_start, registration_end,
        drop_deadline, start_date, end_date, created_at, updated_at
        %s ORDER BY academic_year DESC, semester DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var semesters []models.Semester
	if err := r.db.SelectContext(ctx, &semesters, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list semesters: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count semesters: %w", err)
	}
	return semesters, total, nil
}

// FindByTerm returns the semester for an academic year and term number.
func (r *SemesterRepository) FindByTerm(ctx context.Context, academicYear string, semester int) (*models.Semester, error) {
	const query = `SELECT id, academic_year, semester, registration_start, registration_end,
        drop_deadline, start_date, end_date, created_at, updated_at
        FROM semesters WHERE academic_year = $1 AND semester = $2`
	var sem models.Semester
	if err := r.db.GetContext(ctx, &sem, query, academicYear, semester); err != nil {
		return nil, err
	}
	return &sem, nil
}

// Create inserts a term calendar.
func (r *SemesterRepository) Create(ctx context.Context, semester *models.Semester) error {
	if semester.ID == "" {
		semester.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	semester.CreatedAt = now
	semester.UpdatedAt = now

	const query = `INSERT INTO semesters (id, academic_year, semester, registration_start, registration_end,
        drop_deadline, start_date, end_date, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := r.db.ExecContext(ctx, query, semester.ID, semester.AcademicYear, semester.Semester,
		semester.RegistrationStart, semester.RegistrationEnd, semester.DropDeadline,
		semester.StartDate, semester.EndDate, semester.CreatedAt, semester.UpdatedAt); err != nil {
		return fmt.Errorf("insert semester: %w", err)
	}
	return nil
}

// Update rewrites the calendar windows of an existing term.
func (r *SemesterRepository) Update(ctx context.Context, semester *models.Semester) error {
	semester.UpdatedAt = time.Now().UTC()
	const query = `UPDATE semesters SET registration_start = $1, registration_end = $2, drop_deadline = $3,
        start_date = $4, end_date = $5, updated_at = $6
        WHERE id = $7`
	if _, err := r.db.ExecContext(ctx, query, semester.RegistrationStart, semester.RegistrationEnd,
		semester.DropDeadline, semester.StartDate, semester.EndDate, semester.UpdatedAt, semester.ID); err != nil {
		return fmt.Errorf("update semester: %w", err)
	}
	return nil
}
