package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/task-api/internal/api/metrics"
	"github.com/99minutos/task-api/internal/core/domain"
	"github.com/99minutos/task-api/internal/core/ports"
)

const bearerPrefix = "Bearer "

// IdentityFinder is the part of the Identity Store the authenticator needs.
type IdentityFinder interface {
	FindByEmail(ctx context.Context, email string) (*domain.Identity, error)
}

// Auth resolves the bearer token of a request into a domain.Principal bound
// to the request context. It never rejects a request: anything short of a
// valid token for an existing identity leaves the request anonymous, and the
// AccessControl middleware decides what anonymous callers may reach.
func Auth(codec ports.TokenCodec, identities IdentityFinder, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := req.Context()

			// Bound earlier in this request; keep the first binding.
			if _, ok := domain.PrincipalFrom(ctx); ok {
				return next(c)
			}

			header := req.Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, bearerPrefix) {
				metrics.TokenChecksTotal.WithLabelValues("anonymous").Inc()
				return next(c)
			}
			token := strings.TrimSpace(header[len(bearerPrefix):])

			claims, err := codec.Parse(token)
			if err != nil {
				metrics.TokenChecksTotal.WithLabelValues(tokenFailure(err)).Inc()
				log.Debug().Err(err).Str("path", req.URL.Path).Msg("bearer token rejected")
				return next(c)
			}

			identity, err := identities.FindByEmail(ctx, claims.Subject)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					metrics.TokenChecksTotal.WithLabelValues("unknown_subject").Inc()
				} else {
					metrics.TokenChecksTotal.WithLabelValues("lookup_error").Inc()
					log.Warn().Err(err).Msg("identity lookup failed during authentication")
				}
				return next(c)
			}

			if !codec.IsValid(token, identity.Email) {
				metrics.TokenChecksTotal.WithLabelValues("subject_mismatch").Inc()
				return next(c)
			}

			principal := domain.Principal{Email: identity.Email, Role: claims.Role}
			c.SetRequest(req.WithContext(domain.WithPrincipal(ctx, principal)))
			metrics.TokenChecksTotal.WithLabelValues("authenticated").Inc()
			return next(c)
		}
	}
}

func tokenFailure(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrTokenBadSignature):
		return "bad_signature"
	default:
		return "malformed"
	}
}
