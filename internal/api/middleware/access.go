package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/task-api/internal/api/metrics"
	"github.com/99minutos/task-api/internal/core/access"
	"github.com/99minutos/task-api/internal/core/domain"
)

// AccessControl enforces policy on every request after Auth has run. A
// denied request ends with domain.ErrUnauthenticated or domain.ErrForbidden,
// which the HTTP error handler turns into 401 and 403.
func AccessControl(policy *access.Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			principal, _ := domain.PrincipalFrom(req.Context())

			if err := policy.Evaluate(req.Method, req.URL.Path, principal); err != nil {
				outcome := "unauthenticated"
				if errors.Is(err, domain.ErrForbidden) {
					outcome = "forbidden"
				}
				metrics.AccessDecisionsTotal.WithLabelValues(outcome).Inc()
				return err
			}
			metrics.AccessDecisionsTotal.WithLabelValues("allowed").Inc()
			return next(c)
		}
	}
}
