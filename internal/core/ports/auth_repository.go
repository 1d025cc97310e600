package ports

import (
	"context"

	"github.com/99minutos/task-api/internal/core/domain"
)

// AuthRepository is the Identity Store. Implementations must enforce email
// uniqueness and report a violation as domain.ErrUserExists.
type AuthRepository interface {
	// FindByEmail returns domain.ErrUserNotFound when no identity matches.
	FindByEmail(ctx context.Context, email string) (*domain.Identity, error)
	Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error)
	List(ctx context.Context) ([]domain.Identity, error)
}
