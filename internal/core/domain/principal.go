package domain

import (
	"context"
	"time"
)

// TokenClaims is the verified content of a token.
type TokenClaims struct {
	Subject   string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Principal is the authorization context bound to a single request after
// its bearer token has been verified.
type Principal struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// HasRole reports an exact role match. There is no role hierarchy.
func (p *Principal) HasRole(r Role) bool {
	return p != nil && p.Role == r
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p. An already bound principal
// is kept: the first binding for a request wins.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	if _, ok := PrincipalFrom(ctx); ok {
		return ctx
	}
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal bound to ctx, if any.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	if !ok {
		return nil, false
	}
	return &p, true
}
