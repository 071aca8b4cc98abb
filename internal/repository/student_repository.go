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

// StudentRepository handles persistence of students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentDetailColumns = `s.id, s.code, s.full_name, s.email, s.status_id, s.department_id,
        s.enrolled_year, s.created_at, s.updated_at,
        st.name AS status_name, d.name AS department_name`

const studentDetailJoins = `FROM students s
JOIN student_statuses st ON st.id = s.status_id
JOIN departments d ON d.id = s.department_id`

// List returns students filtered by the provided criteria with status and
// department names resolved.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.StatusID != "" {
		conditions = append(conditions, fmt.Sprintf("s.status_id = $%d", len(args)+1))
		args = append(args, filter.StatusID)
	}
	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("s.department_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(s.code ILIKE $%d OR s.full_name ILIKE $%d OR s.email ILIKE $%d)",
			len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	orderColumn := "s.code"
	switch filter.SortBy {
	case "full_name":
		orderColumn = "s.full_name"
	case "enrolled_year":
		orderColumn = "s.enrolled_year"
	case "created_at":
		orderColumn = "s.created_at"
	}
	direction := "ASC"
	if strings.EqualFold(filter.SortOrder, "desc") {
		direction = "DESC"
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

	query := fmt.Sprintf(`SELECT %s %s%s ORDER BY %s %s LIMIT %d OFFSET %d`,
		studentDetailColumns, studentDetailJoins, clause, orderColumn, direction, size, offset)

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s%s", studentDetailJoins, clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID returns a student with status and department names.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE s.id = $1", studentDetailColumns, studentDetailJoins)
	return r.findOne(ctx, query, id)
}

// FindByCode returns a student with status and department names.
func (r *StudentRepository) FindByCode(ctx context.Context, code string) (*models.StudentDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE s.code = $1", studentDetailColumns, studentDetailJoins)
	return r.findOne(ctx, query, code)
}

// FindByEmail returns a student with status and department names.
func (r *StudentRepository) FindByEmail(ctx context.Context, email string) (*models.StudentDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE s.email = $1", studentDetailColumns, studentDetailJoins)
	return r.findOne(ctx, query, email)
}

// Create inserts a student.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now

	const query = `INSERT INTO students (id, code, full_name, email, status_id, department_id, enrolled_year, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.db.ExecContext(ctx, query, student.ID, student.Code, student.FullName, student.Email,
		student.StatusID, student.DepartmentID, student.EnrolledYear, student.CreatedAt, student.UpdatedAt); err != nil {
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

// Update rewrites mutable student fields.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET full_name = $1, email = $2, department_id = $3, updated_at = $4 WHERE id = $5`
	if _, err := r.db.ExecContext(ctx, query, student.FullName, student.Email, student.DepartmentID,
		student.UpdatedAt, student.ID); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// UpdateStatus moves a student to a new status.
func (r *StudentRepository) UpdateStatus(ctx context.Context, id, statusID string) error {
	const query = `UPDATE students SET status_id = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, statusID, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update student status: %w", err)
	}
	return nil
}

// CountByStatus counts students holding a status.
func (r *StudentRepository) CountByStatus(ctx context.Context, statusID string) (int, error) {
	const query = `SELECT COUNT(*) FROM students WHERE status_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, statusID); err != nil {
		return 0, fmt.Errorf("count students by status: %w", err)
	}
	return count, nil
}

func (r *StudentRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.StudentDetail, error) {
	var student models.StudentDetail
	if err := r.db.GetContext(ctx, &student, query, arg); err != nil {
		return nil, err
	}
	return &student, nil
}
