package ports

import "github.com/99minutos/task-api/internal/core/domain"

// TokenCodec signs and verifies bearer tokens. Implementations are stateless
// and safe for concurrent use.
type TokenCodec interface {
	Issue(identity *domain.Identity) (string, error)
	// Parse fails with domain.ErrTokenMalformed, domain.ErrTokenBadSignature
	// or domain.ErrTokenExpired.
	Parse(token string) (*domain.TokenClaims, error)
	// IsValid reports whether token parses and was issued to expectedSubject.
	IsValid(token, expectedSubject string) bool
}
