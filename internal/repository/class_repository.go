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

// ClassRepository handles persistence of classes and their schedule slots.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns classes filtered by the provided criteria.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error) {
	base := "FROM classes c"
	var conditions []string
	var args []interface{}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("c.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("c.academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}
	if filter.Semester != 0 {
		conditions = append(conditions, fmt.Sprintf("c.semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("c.is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
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

	query := fmt.Sprintf(`SELECT c.id, c.code, c.course_id, c.academic_year, c.semester, c.instructor,
        c.max_capacity, c.enrolled_count, c.is_active, c.created_at, c.updated_at
        %s ORDER BY c.code ASC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}

	for i := range classes {
		schedule, err := r.loadSchedule(ctx, classes[i].ID)
		if err != nil {
			return nil, 0, err
		}
		classes[i].Schedule = schedule
	}
	return classes, total, nil
}

// FindByCode returns a class with its schedule slots.
func (r *ClassRepository) FindByCode(ctx context.Context, code string) (*models.Class, error) {
	const query = `SELECT id, code, course_id, academic_year, semester, instructor,
        max_capacity, enrolled_count, is_active, created_at, updated_at
        FROM classes WHERE code = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, code); err != nil {
		return nil, err
	}
	schedule, err := r.loadSchedule(ctx, class.ID)
	if err != nil {
		return nil, err
	}
	class.Schedule = schedule
	return &class, nil
}

// FindActiveSharing returns active classes with at least one slot on any of
// the given days in any of the given classrooms. It is a coarse candidate
// set for conflict checking; the exact decision is made by the caller.
func (r *ClassRepository) FindActiveSharing(ctx context.Context, days []int, classrooms []string, excludeCode string) ([]models.Class, error) {
	query := `SELECT DISTINCT c.id, c.code, c.course_id, c.academic_year, c.semester, c.instructor,
        c.max_capacity, c.enrolled_count, c.is_active, c.created_at, c.updated_at
        FROM classes c
        JOIN class_schedule_slots s ON s.class_id = c.id
        WHERE c.is_active = TRUE AND s.day_of_week = ANY($1) AND s.classroom = ANY($2)`
	args := []interface{}{pq.Array(days), pq.Array(classrooms)}
	if excludeCode != "" {
		query += " AND c.code <> $3"
		args = append(args, excludeCode)
	}

	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, fmt.Errorf("find classes sharing schedule: %w", err)
	}
	for i := range classes {
		schedule, err := r.loadSchedule(ctx, classes[i].ID)
		if err != nil {
			return nil, err
		}
		classes[i].Schedule = schedule
	}
	return classes, nil
}

// Create inserts a class and its schedule slots in one transaction.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	class.CreatedAt = now
	class.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create class: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertClass = `INSERT INTO classes (id, code, course_id, academic_year, semester, instructor,
        max_capacity, enrolled_count, is_active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	if _, err := tx.ExecContext(ctx, insertClass, class.ID, class.Code, class.CourseID, class.AcademicYear,
		class.Semester, class.Instructor, class.MaxCapacity, class.EnrolledCount, class.IsActive,
		class.CreatedAt, class.UpdatedAt); err != nil {
		return fmt.Errorf("insert class: %w", err)
	}

	if err := insertSlots(ctx, tx, class.ID, class.Schedule); err != nil {
		return err
	}
	return tx.Commit()
}

// Update rewrites mutable class fields and replaces the schedule slots.
func (r *ClassRepository) Update(ctx context.Context, class *models.Class) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update class: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const updateClass = `UPDATE classes SET instructor = $1, max_capacity = $2, updated_at = $3 WHERE id = $4`
	if _, err := tx.ExecContext(ctx, updateClass, class.Instructor, class.MaxCapacity, time.Now().UTC(), class.ID); err != nil {
		return fmt.Errorf("update class: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM class_schedule_slots WHERE class_id = $1`, class.ID); err != nil {
		return fmt.Errorf("clear schedule slots: %w", err)
	}
	if err := insertSlots(ctx, tx, class.ID, class.Schedule); err != nil {
		return err
	}
	return tx.Commit()
}

// SetActive toggles the class activity flag.
func (r *ClassRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE classes SET is_active = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, active, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("set class active: %w", err)
	}
	return nil
}

// CountActiveByCourse counts active classes offering a course.
func (r *ClassRepository) CountActiveByCourse(ctx context.Context, courseID string) (int, error) {
	const query = `SELECT COUNT(*) FROM classes WHERE course_id = $1 AND is_active = TRUE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, courseID); err != nil {
		return 0, fmt.Errorf("count active classes: %w", err)
	}
	return count, nil
}

// CountEnrollments returns the number of enrollments recorded for a class.
func (r *ClassRepository) CountEnrollments(ctx context.Context, classID string) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE class_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, classID); err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return count, nil
}

// IncrementEnrolledBelowCapacity reserves one seat with a conditional
// update so concurrent enrolls cannot exceed max_capacity. Returns false
// when the class is already full.
func (r *ClassRepository) IncrementEnrolledBelowCapacity(ctx context.Context, classID string) (bool, error) {
	const query = `UPDATE classes SET enrolled_count = enrolled_count + 1, updated_at = $1
        WHERE id = $2 AND enrolled_count < max_capacity`
	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), classID)
	if err != nil {
		return false, fmt.Errorf("increment enrolled count: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("increment enrolled count: %w", err)
	}
	return affected > 0, nil
}

// DecrementEnrolled releases one seat, never dropping below zero.
func (r *ClassRepository) DecrementEnrolled(ctx context.Context, classID string) error {
	const query = `UPDATE classes SET enrolled_count = enrolled_count - 1, updated_at = $1
        WHERE id = $2 AND enrolled_count > 0`
	if _, err := r.db.ExecContext(ctx, query, time.Now().UTC(), classID); err != nil {
		return fmt.Errorf("decrement enrolled count: %w", err)
	}
	return nil
}

func (r *ClassRepository) loadSchedule(ctx context.Context, classID string) ([]models.ScheduleSlot, error) {
	const query = `SELECT day_of_week, start_period, end_period, classroom
        FROM class_schedule_slots WHERE class_id = $1 ORDER BY position ASC`
	var slots []models.ScheduleSlot
	if err := r.db.SelectContext(ctx, &slots, query, classID); err != nil {
		return nil, fmt.Errorf("load schedule slots: %w", err)
	}
	return slots, nil
}

func insertSlots(ctx context.Context, tx *sqlx.Tx, classID string, slots []models.ScheduleSlot) error {
	const insertSlot = `INSERT INTO class_schedule_slots (id, class_id, day_of_week, start_period, end_period, classroom, position)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for i, slot := range slots {
		if _, err := tx.ExecContext(ctx, insertSlot, uuid.NewString(), classID, slot.DayOfWeek,
			slot.StartPeriod, slot.EndPeriod, slot.Classroom, i); err != nil {
			return fmt.Errorf("insert schedule slot: %w", err)
		}
	}
	return nil
}
