package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bktrung/academic-records-api/internal/models"
)

// StatusRepository handles persistence of student statuses and the status
// transition graph.
type StatusRepository struct {
	db *sqlx.DB
}

// NewStatusRepository constructs the repository.
func NewStatusRepository(db *sqlx.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

// ListStatuses returns all statuses ordered by name.
func (r *StatusRepository) ListStatuses(ctx context.Context) ([]models.StudentStatus, error) {
	const query = `SELECT id, name, created_at, updated_at FROM student_statuses ORDER BY name ASC`
	var statuses []models.StudentStatus
	if err := r.db.SelectContext(ctx, &statuses, query); err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	return statuses, nil
}

// FindStatusByID returns a status by its ID.
func (r *StatusRepository) FindStatusByID(ctx context.Context, id string) (*models.StudentStatus, error) {
	const query = `SELECT id, name, created_at, updated_at FROM student_statuses WHERE id = $1`
	var status models.StudentStatus
	if err := r.db.GetContext(ctx, &status, query, id); err != nil {
		return nil, err
	}
	return &status, nil
}

// FindStatusByName returns a status by its name.
func (r *StatusRepository) FindStatusByName(ctx context.Context, name string) (*models.StudentStatus, error) {
	const query = `SELECT id, name, created_at, updated_at FROM student_statuses WHERE name = $1`
	var status models.StudentStatus
	if err := r.db.GetContext(ctx, &status, query, name); err != nil {
		return nil, err
	}
	return &status, nil
}

// CreateStatus inserts a status node.
func (r *StatusRepository) CreateStatus(ctx context.Context, status *models.StudentStatus) error {
	if status.ID == "" {
		status.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	status.CreatedAt = now
	status.UpdatedAt = now

	const query = `INSERT INTO student_statuses (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, status.ID, status.Name, status.CreatedAt, status.UpdatedAt); err != nil {
		return fmt.Errorf("insert status: %w", err)
	}
	return nil
}

// RenameStatus updates a status name.
func (r *StatusRepository) RenameStatus(ctx context.Context, id, name string) error {
	const query = `UPDATE student_statuses SET name = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, name, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("rename status: %w", err)
	}
	return nil
}

// DeleteStatus removes a status node.
func (r *StatusRepository) DeleteStatus(ctx context.Context, id string) error {
	const query = `DELETE FROM student_statuses WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete status: %w", err)
	}
	return nil
}

// FindTransition returns the edge between two statuses, if declared.
func (r *StatusRepository) FindTransition(ctx context.Context, fromID, toID string) (*models.StatusTransition, error) {
	const query = `SELECT id, from_status_id, to_status_id, created_at
        FROM status_transitions WHERE from_status_id = $1 AND to_status_id = $2`
	var transition models.StatusTransition
	if err := r.db.GetContext(ctx, &transition, query, fromID, toID); err != nil {
		return nil, err
	}
	return &transition, nil
}

// ListTransitions returns all edges with status names.
func (r *StatusRepository) ListTransitions(ctx context.Context) ([]models.StatusTransitionDetail, error) {
	const query = `SELECT t.id, t.from_status_id, t.to_status_id, t.created_at,
        f.name AS from_status_name, s.name AS to_status_name
        FROM status_transitions t
        JOIN student_statuses f ON f.id = t.from_status_id
        JOIN student_statuses s ON s.id = t.to_status_id
        ORDER BY f.name ASC, s.name ASC`
	var transitions []models.StatusTransitionDetail
	if err := r.db.SelectContext(ctx, &transitions, query); err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	return transitions, nil
}

// CreateTransition inserts a directed edge.
func (r *StatusRepository) CreateTransition(ctx context.Context, transition *models.StatusTransition) error {
	if transition.ID == "" {
		transition.ID = uuid.NewString()
	}
	transition.CreatedAt = time.Now().UTC()

	const query = `INSERT INTO status_transitions (id, from_status_id, to_status_id, created_at)
        VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, transition.ID, transition.FromStatusID,
		transition.ToStatusID, transition.CreatedAt); err != nil {
		return fmt.Errorf("insert transition: %w", err)
	}
	return nil
}

// DeleteTransition removes a directed edge.
func (r *StatusRepository) DeleteTransition(ctx context.Context, fromID, toID string) error {
	const query = `DELETE FROM status_transitions WHERE from_status_id = $1 AND to_status_id = $2`
	if _, err := r.db.ExecContext(ctx, query, fromID, toID); err != nil {
		return fmt.Errorf("delete transition: %w", err)
	}
	return nil
}

// CountTransitionsReferencing counts edges touching a status on either side.
func (r *StatusRepository) CountTransitionsReferencing(ctx context.Context, statusID string) (int, error) {
	const query = `SELECT COUNT(*) FROM status_transitions WHERE from_status_id = $1 OR to_status_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, statusID); err != nil {
		return 0, fmt.Errorf("count transitions: %w", err)
	}
	return count, nil
}
