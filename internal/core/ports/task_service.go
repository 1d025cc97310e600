package ports

import (
	"context"

	"github.com/99minutos/task-api/internal/core/domain"
)

// CreateTaskInput is the DTO passed from the transport layer to TaskService.
type CreateTaskInput struct {
	OwnerEmail  string
	Title       string
	Description string
}

// UpdateTaskInput replaces the mutable fields of a task.
type UpdateTaskInput struct {
	ID          string
	OwnerEmail  string
	Title       string
	Description string
	Done        bool
}

type TaskService interface {
	List(ctx context.Context, ownerEmail string) ([]domain.Task, error)
	Create(ctx context.Context, in CreateTaskInput) (*domain.Task, error)
	Update(ctx context.Context, in UpdateTaskInput) (*domain.Task, error)
	Delete(ctx context.Context, ownerEmail, id string) error
}
