package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/bktrung/academic-records-api/internal/models"
)

// CourseRepository handles persistence of the course catalog.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses filtered by the provided criteria.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	base := "FROM courses c"
	var conditions []string
	var args []interface{}

	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("c.department_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("c.is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(c.code ILIKE $%d OR c.name ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
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

	query := fmt.Sprintf(`SELECT c.id, c.code, c.name, c.credits, c.department_id, c.description,
        c.is_active, c.created_at, c.updated_at
        %s ORDER BY c.code ASC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}

	for i := range courses {
		prereqs, err := r.loadPrerequisites(ctx, courses[i].ID)
		if err != nil {
			return nil, 0, err
		}
		courses[i].PrerequisiteIDs = prereqs
	}
	return courses, total, nil
}

// FindByID returns a course with its prerequisite list.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, code, name, credits, department_id, description, is_active, created_at, updated_at
        FROM courses WHERE id = $1`
	return r.findOne(ctx, query, id)
}

// FindByCode returns a course with its prerequisite list.
func (r *CourseRepository) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	const query = `SELECT id, code, name, credits, department_id, description, is_active, created_at, updated_at
        FROM courses WHERE code = $1`
	return r.findOne(ctx, query, code)
}

// FindByIDs returns the courses matching the given ids.
func (r *CourseRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT id, code, name, credits, department_id, description, is_active, created_at, updated_at
        FROM courses WHERE id = ANY($1)`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find courses by ids: %w", err)
	}
	return courses, nil
}

// Create inserts a course and its prerequisite list in one transaction.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create course: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertCourse = `INSERT INTO courses (id, code, name, credits, department_id, description, is_active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := tx.ExecContext(ctx, insertCourse, course.ID, course.Code, course.Name, course.Credits,
		course.DepartmentID, course.Description, course.IsActive, course.CreatedAt, course.UpdatedAt); err != nil {
		return fmt.Errorf("insert course: %w", err)
	}

	if err := insertPrerequisites(ctx, tx, course.ID, course.PrerequisiteIDs); err != nil {
		return err
	}
	return tx.Commit()
}

// Update rewrites course fields and replaces the prerequisite list.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update course: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const updateCourse = `UPDATE courses SET name = $1, credits = $2, department_id = $3, description = $4, updated_at = $5
        WHERE id = $6`
	if _, err := tx.ExecContext(ctx, updateCourse, course.Name, course.Credits, course.DepartmentID,
		course.Description, time.Now().UTC(), course.ID); err != nil {
		return fmt.Errorf("update course: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM course_prerequisites WHERE course_id = $1`, course.ID); err != nil {
		return fmt.Errorf("clear prerequisites: %w", err)
	}
	if err := insertPrerequisites(ctx, tx, course.ID, course.PrerequisiteIDs); err != nil {
		return err
	}
	return tx.Commit()
}

// SetActive toggles the course activity flag.
func (r *CourseRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE courses SET is_active = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, active, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("set course active: %w", err)
	}
	return nil
}

func (r *CourseRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.Course, error) {
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, arg); err != nil {
		return nil, err
	}
	prereqs, err := r.loadPrerequisites(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	course.PrerequisiteIDs = prereqs
	return &course, nil
}

func (r *CourseRepository) loadPrerequisites(ctx context.Context, courseID string) ([]string, error) {
	const query = `SELECT prerequisite_id FROM course_prerequisites WHERE course_id = $1 ORDER BY position ASC`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, courseID); err != nil {
		return nil, fmt.Errorf("load prerequisites: %w", err)
	}
	return ids, nil
}

func insertPrerequisites(ctx context.Context, tx *sqlx.Tx, courseID string, prerequisiteIDs []string) error {
	const insert = `INSERT INTO course_prerequisites (course_id, prerequisite_id, position) VALUES ($1, $2, $3)`
	for i, prereqID := range prerequisiteIDs {
		if _, err := tx.ExecContext(ctx, insert, courseID, prereqID, i); err != nil {
			return fmt.Errorf("insert prerequisite: %w", err)
		}
	}
	return nil
}
