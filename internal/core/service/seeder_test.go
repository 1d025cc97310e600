package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/task-api/internal/core/domain"
	"github.com/99minutos/task-api/internal/infrastructure/security"
)

func TestSeedAdmin_CreatesAdmin(t *testing.T) {
	repo := newStubAuthRepo()
	hasher := security.NewBcryptHasher(bcrypt.MinCost)

	if err := SeedAdmin(context.Background(), repo, hasher, "admin@example.com", "admin123", zerolog.Nop()); err != nil {
		t.Fatalf("SeedAdmin returned error: %v", err)
	}

	admin := repo.users["admin@example.com"]
	if admin == nil || admin.Role != domain.RoleAdmin {
		t.Fatalf("expected seeded ADMIN, got %+v", admin)
	}
	if err := hasher.Compare(context.Background(), admin.PasswordHash, "admin123"); err != nil {
		t.Fatalf("seeded hash does not match: %v", err)
	}
}

func TestSeedAdmin_IsIdempotent(t *testing.T) {
	repo := newStubAuthRepo()
	hasher := security.NewBcryptHasher(bcrypt.MinCost)

	for i := 0; i < 2; i++ {
		if err := SeedAdmin(context.Background(), repo, hasher, "admin@example.com", "admin123", zerolog.Nop()); err != nil {
			t.Fatalf("SeedAdmin run %d returned error: %v", i, err)
		}
	}
	if repo.creates != 1 {
		t.Fatalf("expected a single admin, got %d creates", repo.creates)
	}
}

func TestSeedAdmin_SkipsWithoutPassword(t *testing.T) {
	repo := newStubAuthRepo()

	if err := SeedAdmin(context.Background(), repo, security.NewBcryptHasher(bcrypt.MinCost), "admin@example.com", "", zerolog.Nop()); err != nil {
		t.Fatalf("SeedAdmin returned error: %v", err)
	}
	if len(repo.users) != 0 {
		t.Fatalf("expected no identities, got %d", len(repo.users))
	}
}
