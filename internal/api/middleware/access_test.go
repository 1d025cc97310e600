package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/task-api/internal/core/access"
	"github.com/99minutos/task-api/internal/core/domain"
)

func runAccess(t *testing.T, method, path string, p *domain.Principal) (called bool, err error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	if p != nil {
		req = req.WithContext(domain.WithPrincipal(req.Context(), *p))
	}
	c := e.NewContext(req, httptest.NewRecorder())

	handler := AccessControl(access.MustPolicy(access.DefaultRules()...))(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	err = handler(c)
	return called, err
}

func TestAccessControl_Allows(t *testing.T) {
	user := &domain.Principal{Email: "alice@example.com", Role: domain.RoleUser}
	admin := &domain.Principal{Email: "root@example.com", Role: domain.RoleAdmin}

	cases := []struct {
		method, path string
		p            *domain.Principal
	}{
		{http.MethodPost, "/auth/login", nil},
		{http.MethodGet, "/health", nil},
		{http.MethodGet, "/api/tasks", user},
		{http.MethodGet, "/api/admin/users", admin},
	}
	for _, tc := range cases {
		called, err := runAccess(t, tc.method, tc.path, tc.p)
		if err != nil {
			t.Fatalf("%s %s: unexpected error %v", tc.method, tc.path, err)
		}
		if !called {
			t.Fatalf("%s %s: next handler not called", tc.method, tc.path)
		}
	}
}

func TestAccessControl_Unauthenticated(t *testing.T) {
	called, err := runAccess(t, http.MethodGet, "/api/admin/users", nil)
	if called {
		t.Fatalf("should not reach next handler")
	}
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestAccessControl_Forbids(t *testing.T) {
	user := &domain.Principal{Email: "alice@example.com", Role: domain.RoleUser}

	called, err := runAccess(t, http.MethodGet, "/api/admin/users", user)
	if called {
		t.Fatalf("should not reach next handler")
	}
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
