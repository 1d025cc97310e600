// Package security holds the cryptographic adapters: the HS256 token codec
// and the bcrypt password hasher.
package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/99minutos/task-api/internal/core/domain"
	"github.com/99minutos/task-api/internal/core/ports"
)

// DefaultTokenTTL is used when the configuration does not override it.
const DefaultTokenTTL = time.Hour

var _ ports.TokenCodec = (*JWTCodec)(nil)

// tokenClaims is the JSON payload: {"role", "sub", "iat", "exp"}.
type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTCodec issues and verifies HS256 compact JWS tokens. All fields are set
// at construction and never mutated, so one codec serves every request.
type JWTCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// CodecOption customises a JWTCodec.
type CodecOption func(*JWTCodec)

// WithClock replaces time.Now for issuance and expiry checks.
func WithClock(now func() time.Time) CodecOption {
	return func(c *JWTCodec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewJWTCodec builds a codec signing with secret. The secret is copied.
func NewJWTCodec(secret []byte, ttl time.Duration, opts ...CodecOption) (*JWTCodec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token codec: empty signing secret")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token codec: ttl must be positive, got %s", ttl)
	}

	c := &JWTCodec{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	)
	return c, nil
}

// TTL returns the configured token lifetime.
func (c *JWTCodec) TTL() time.Duration { return c.ttl }

// Issue signs {sub, role, iat, exp} for identity. Timestamps are whole
// seconds and exp is exactly iat+ttl.
func (c *JWTCodec) Issue(identity *domain.Identity) (string, error) {
	if identity == nil || identity.Email == "" {
		return "", fmt.Errorf("issue token: %w", domain.ErrInvalidInput)
	}

	iat := c.now().Truncate(time.Second)
	claims := &tokenClaims{
		Role: identity.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Email,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(iat.Add(c.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature and expiry of token and returns its claims.
func (c *JWTCodec) Parse(token string) (*domain.TokenClaims, error) {
	if err := c.checkStructure(token); err != nil {
		return nil, err
	}

	claims := &tokenClaims{}
	parsed, err := c.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, domain.ErrTokenMalformed
	}

	role, ok := domain.ParseRole(claims.Role)
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrTokenMalformed, claims.Role)
	}

	out := &domain.TokenClaims{Subject: claims.Subject, Role: role}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	out.ExpiresAt = claims.ExpiresAt.Time
	return out, nil
}

// Validate parses token and checks that it was issued to expectedSubject.
func (c *JWTCodec) Validate(token, expectedSubject string) error {
	claims, err := c.Parse(token)
	if err != nil {
		return err
	}
	if claims.Subject != expectedSubject {
		return domain.ErrTokenSubjectMismatch
	}
	return nil
}

func (c *JWTCodec) IsValid(token, expectedSubject string) bool {
	return c.Validate(token, expectedSubject) == nil
}

// checkStructure rejects anything that is not three base64url segments
// before the jwt parser sees it. An undecodable signature segment counts as
// a signature failure rather than a malformed token.
func (c *JWTCodec) checkStructure(token string) error {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return fmt.Errorf("%w: expected 3 segments, got %d", domain.ErrTokenMalformed, len(parts))
	}
	for _, seg := range parts[:2] {
		if seg == "" {
			return fmt.Errorf("%w: empty segment", domain.ErrTokenMalformed)
		}
		if _, err := c.parser.DecodeSegment(seg); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrTokenMalformed, err)
		}
	}
	if _, err := c.parser.DecodeSegment(parts[2]); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTokenBadSignature, err)
	}
	return nil
}

// classify maps jwt errors onto the domain token errors. Signature failures
// win over expiry so a forged expired token reports as forged.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", domain.ErrTokenBadSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", domain.ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", domain.ErrTokenMalformed, err)
	}
}
