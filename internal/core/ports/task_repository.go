package ports

import (
	"context"

	"github.com/99minutos/task-api/internal/core/domain"
)

// TaskRepository persists tasks. Lookups by ID return domain.ErrTaskNotFound
// when nothing matches.
type TaskRepository interface {
	FindByOwner(ctx context.Context, ownerEmail string) ([]domain.Task, error)
	FindByID(ctx context.Context, id string) (*domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error
}
