package ports

import (
	"context"

	"github.com/99minutos/task-api/internal/core/domain"
)

// CredentialVerifier checks an email and plaintext password against the
// Identity Store. It fails with domain.ErrUserNotFound or
// domain.ErrInvalidCredentials.
type CredentialVerifier interface {
	Verify(ctx context.Context, email, password string) (*domain.Identity, error)
}
