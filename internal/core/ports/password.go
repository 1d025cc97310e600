package ports

import "context"

// PasswordHasher hashes and verifies passwords. Compare returns
// domain.ErrInvalidCredentials on mismatch.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Compare(ctx context.Context, hash, password string) error
}
