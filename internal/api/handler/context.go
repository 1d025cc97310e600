package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/task-api/internal/core/domain"
)

// principalFrom returns the principal bound by the Auth middleware. Handlers
// behind AccessControl always have one; the check keeps a misrouted handler
// from running anonymously.
func principalFrom(c echo.Context) (*domain.Principal, error) {
	p, ok := domain.PrincipalFrom(c.Request().Context())
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return p, nil
}
