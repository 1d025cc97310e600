package ports

import "context"

// AuthService issues tokens for new and returning identities.
type AuthService interface {
	Register(ctx context.Context, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
}
