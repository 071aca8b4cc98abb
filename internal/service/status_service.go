package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bktrung/academic-records-api/internal/models"
	appErrors "github.com/bktrung/academic-records-api/pkg/errors"
)

type statusRepository interface {
	ListStatuses(ctx context.Context) ([]models.StudentStatus, error)
	FindStatusByID(ctx context.Context, id string) (*models.StudentStatus, error)
	FindStatusByName(ctx context.Context, name string) (*models.StudentStatus, error)
	CreateStatus(ctx context.Context, status *models.StudentStatus) error
	RenameStatus(ctx context.Context, id, name string) error
	DeleteStatus(ctx context.Context, id string) error
	FindTransition(ctx context.Context, fromID, toID string) (*models.StatusTransition, error)
	ListTransitions(ctx context.Context) ([]models.StatusTransitionDetail, error)
	CreateTransition(ctx context.Context, transition *models.StatusTransition) error
	DeleteTransition(ctx context.Context, fromID, toID string) error
	CountTransitionsReferencing(ctx context.Context, statusID string) (int, error)
}

type statusStudentCounter interface {
	CountByStatus(ctx context.Context, statusID string) (int, error)
}

// CreateStatusRequest names a new student status.
type CreateStatusRequest struct {
	Name string `json:"name" validate:"required"`
}

// TransitionRequest identifies a directed status transition edge.
type TransitionRequest struct {
	FromStatusID string `json:"from_status_id" validate:"required"`
	ToStatusID   string `json:"to_status_id" validate:"required"`
}

// StatusService manages student statuses and the directed transition graph
// gating status changes.
type StatusService struct {
	repo      statusRepository
	students  statusStudentCounter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStatusService constructs StatusService.
func NewStatusService(repo statusRepository, students statusStudentCounter, validate *validator.Validate, logger *zap.Logger) *StatusService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusService{repo: repo, students: students, validator: validate, logger: logger}
}

// List returns all statuses.
func (s *StatusService) List(ctx context.Context) ([]models.StudentStatus, error) {
	statuses, err := s.repo.ListStatuses(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list statuses")
	}
	return statuses, nil
}

// Create adds a new status node.
func (s *StatusService) Create(ctx context.Context, req CreateStatusRequest) (*models.StudentStatus, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if _, err := s.repo.FindStatusByName(ctx, req.Name); err == nil {
		return nil, appErrors.Clone(appErrors.ErrDuplicateName, fmt.Sprintf("status name %q already exists", req.Name))
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check status name")
	}
	status := &models.StudentStatus{Name: req.Name}
	if err := s.repo.CreateStatus(ctx, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create status")
	}
	return status, nil
}

// Rename changes a status name, keeping names unique.
func (s *StatusService) Rename(ctx context.Context, id string, req CreateStatusRequest) (*models.StudentStatus, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	status, err := s.repo.FindStatusByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "status not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load status")
	}
	if existing, err := s.repo.FindStatusByName(ctx, req.Name); err == nil && existing.ID != id {
		return nil, appErrors.Clone(appErrors.ErrDuplicateName, fmt.Sprintf("status name %q already exists", req.Name))
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check status name")
	}
	if err := s.repo.RenameStatus(ctx, id, req.Name); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rename status")
	}
	status.Name = req.Name
	return status, nil
}

// Delete removes a status node. Deletion is refused while any student holds
// the status or any transition edge references it.
func (s *StatusService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindStatusByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "status not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load status")
	}

	studentCount, err := s.students.CountByStatus(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students referencing status")
	}
	if studentCount > 0 {
		return appErrors.WithDetails(appErrors.ErrConflict, "status is referenced by students", map[string]interface{}{"student_count": studentCount})
	}

	edgeCount, err := s.repo.CountTransitionsReferencing(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count transitions referencing status")
	}
	if edgeCount > 0 {
		return appErrors.WithDetails(appErrors.ErrConflict, "status is referenced by transitions", map[string]interface{}{"transition_count": edgeCount})
	}

	if err := s.repo.DeleteStatus(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete status")
	}
	return nil
}

// ListTransitions returns all transition edges with status names.
func (s *StatusService) ListTransitions(ctx context.Context) ([]models.StatusTransitionDetail, error) {
	transitions, err := s.repo.ListTransitions(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list transitions")
	}
	return transitions, nil
}

// AddTransition registers a directed edge. Self-loops and duplicate edges
// are rejected.
func (s *StatusService) AddTransition(ctx context.Context, req TransitionRequest) (*models.StatusTransition, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transition payload")
	}
	if req.FromStatusID == req.ToStatusID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "transition cannot be a self-loop")
	}
	for _, id := range []string{req.FromStatusID, req.ToStatusID} {
		if _, err := s.repo.FindStatusByID(ctx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("status %s not found", id))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load status")
		}
	}
	if _, err := s.repo.FindTransition(ctx, req.FromStatusID, req.ToStatusID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "transition already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check transition")
	}
	transition := &models.StatusTransition{FromStatusID: req.FromStatusID, ToStatusID: req.ToStatusID}
	if err := s.repo.CreateTransition(ctx, transition); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create transition")
	}
	return transition, nil
}

// RemoveTransition deletes a directed edge.
func (s *StatusService) RemoveTransition(ctx context.Context, req TransitionRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transition payload")
	}
	if _, err := s.repo.FindTransition(ctx, req.FromStatusID, req.ToStatusID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "transition not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transition")
	}
	if err := s.repo.DeleteTransition(ctx, req.FromStatusID, req.ToStatusID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete transition")
	}
	return nil
}

// IsTransitionAllowed reports whether a status change is legal. Identity
// transitions are always allowed; any other change requires an edge.
func (s *StatusService) IsTransitionAllowed(ctx context.Context, fromID, toID string) (bool, error) {
	if fromID == toID {
		return true, nil
	}
	if _, err := s.repo.FindTransition(ctx, fromID, toID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check transition")
	}
	return true, nil
}
