package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bktrung/academic-records-api/internal/models"
)

// DepartmentRepository handles persistence of departments.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository constructs the repository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// List returns all departments ordered by name.
func (r *DepartmentRepository) List(ctx context.Context) ([]models.Department, error) {
	const query = `SELECT id, name, created_at, updated_at FROM departments ORDER BY name ASC`
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, query); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// FindByID returns a department by its ID.
func (r *DepartmentRepository) FindByID(ctx context.Context, id string) (*models.Department, error) {
	const query = `SELECT id, name, created_at, updated_at FROM departments WHERE id = $1`
	var department models.Department
	if err := r.db.GetContext(ctx, &department, query, id); err != nil {
		return nil, err
	}
	return &department, nil
}

// FindByName returns a department by its name.
func (r *DepartmentRepository) FindByName(ctx context.Context, name string) (*models.Department, error) {
	const query = `SELECT id, name, created_at, updated_at FROM departments WHERE name = $1`
	var department models.Department
	if err := r.db.GetContext(ctx, &department, query, name); err != nil {
		return nil, err
	}
	return &department, nil
}

// Create inserts a department.
func (r *DepartmentRepository) Create(ctx context.Context, department *models.Department) error {
	if department.ID == "" {
		department.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	department.CreatedAt = now
	department.UpdatedAt = now

	const query = `INSERT INTO departments (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, department.ID, department.Name,
		department.CreatedAt, department.UpdatedAt); err != nil {
		return fmt.Errorf("insert department: %w", err)
	}
	return nil
}

// Rename updates a department name.
func (r *DepartmentRepository) Rename(ctx context.Context, id, name string) error {
	const query = `UPDATE departments SET name = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, name, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("rename department: %w", err)
	}
	return nil
}

// Delete removes a department.
func (r *DepartmentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM departments WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete department: %w", err)
	}
	return nil
}

// CountCourses counts courses belonging to a department.
func (r *DepartmentRepository) CountCourses(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM courses WHERE department_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count department courses: %w", err)
	}
	return count, nil
}

// CountStudents counts students belonging to a department.
func (r *DepartmentRepository) CountStudents(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM students WHERE department_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count department students: %w", err)
	}
	return count, nil
}
