package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/99minutos/task-api/internal/core/domain"
)

type stubLister struct {
	users []domain.Identity
	err   error
}

func (s stubLister) List(context.Context) ([]domain.Identity, error) { return s.users, s.err }

func TestAdminHandler_ListUsers(t *testing.T) {
	e := newTestEcho()
	handler := NewAdminHandler(stubLister{users: []domain.Identity{
		{ID: "1", Email: "admin@example.com", PasswordHash: "$2a$10$secret", Role: domain.RoleAdmin},
		{ID: "2", Email: "alice@example.com", PasswordHash: "$2a$10$secret", Role: domain.RoleUser},
	}})

	c, rec := jsonContext(e, http.MethodGet, "/api/admin/users", "")
	if err := handler.ListUsers(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "$2a$") {
		t.Fatalf("password hash leaked: %s", rec.Body.String())
	}

	var resp []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp) != 2 || resp[0]["role"] != "ADMIN" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAdminHandler_ListUsers_StoreError(t *testing.T) {
	e := newTestEcho()
	boom := errors.New("boom")
	handler := NewAdminHandler(stubLister{err: boom})

	c, _ := jsonContext(e, http.MethodGet, "/api/admin/users", "")
	if err := handler.ListUsers(c); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}
