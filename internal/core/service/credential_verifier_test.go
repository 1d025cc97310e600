package service

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/task-api/internal/core/domain"
	"github.com/99minutos/task-api/internal/infrastructure/security"
)

// countingHasher counts Compare calls on top of real bcrypt.
type countingHasher struct {
	security.BcryptHasher
	compares int
}

func (h *countingHasher) Compare(ctx context.Context, hash, password string) error {
	h.compares++
	return h.BcryptHasher.Compare(ctx, hash, password)
}

func seededRepo(t *testing.T, email, password string) *stubAuthRepo {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	repo := newStubAuthRepo()
	repo.users[email] = &domain.Identity{ID: "1", Email: email, PasswordHash: string(hash), Role: domain.RoleUser}
	return repo
}

func TestCredentialVerifier_Verify(t *testing.T) {
	repo := seededRepo(t, "gina@example.com", "correct")
	v := NewCredentialVerifier(repo, security.NewBcryptHasher(bcrypt.MinCost))

	identity, err := v.Verify(context.Background(), "gina@example.com", "correct")
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if identity.Email != "gina@example.com" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestCredentialVerifier_WrongPassword(t *testing.T) {
	repo := seededRepo(t, "gina@example.com", "correct")
	v := NewCredentialVerifier(repo, security.NewBcryptHasher(bcrypt.MinCost))

	if _, err := v.Verify(context.Background(), "gina@example.com", "incorrect"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestCredentialVerifier_EmailIsCaseSensitive(t *testing.T) {
	repo := seededRepo(t, "gina@example.com", "correct")
	v := NewCredentialVerifier(repo, security.NewBcryptHasher(bcrypt.MinCost))

	if _, err := v.Verify(context.Background(), "Gina@example.com", "correct"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestCredentialVerifier_UnknownEmailStillCompares(t *testing.T) {
	hasher := &countingHasher{BcryptHasher: security.NewBcryptHasher(bcrypt.MinCost)}
	v := NewCredentialVerifier(newStubAuthRepo(), hasher)

	if _, err := v.Verify(context.Background(), "nobody@example.com", "pw"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if hasher.compares != 1 {
		t.Fatalf("expected one bcrypt comparison for an unknown email, got %d", hasher.compares)
	}
}

// ctxHasher fails when the caller's context is already done, as the hash
// pool does.
type ctxHasher struct {
	countingHasher
}

func (h *ctxHasher) Hash(ctx context.Context, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return h.BcryptHasher.Hash(ctx, password)
}

func (h *ctxHasher) Compare(ctx context.Context, hash, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return h.countingHasher.Compare(ctx, hash, password)
}

func TestCredentialVerifier_DummyHashSurvivesCancelledFirstCall(t *testing.T) {
	hasher := &ctxHasher{countingHasher{BcryptHasher: security.NewBcryptHasher(bcrypt.MinCost)}}
	v := NewCredentialVerifier(newStubAuthRepo(), hasher)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := v.Verify(cancelled, "nobody@example.com", "pw"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := v.Verify(context.Background(), "nobody@example.com", "pw"); !errors.Is(err, domain.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	}
	if hasher.compares != 3 {
		t.Fatalf("expected a comparison on every later unknown-email login, got %d", hasher.compares)
	}
}

func TestCredentialVerifier_StoreError(t *testing.T) {
	repo := newStubAuthRepo()
	repo.findErr = errors.New("timeout")
	v := NewCredentialVerifier(repo, security.NewBcryptHasher(bcrypt.MinCost))

	_, err := v.Verify(context.Background(), "gina@example.com", "correct")
	if err == nil || errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected a store error, got %v", err)
	}
}
