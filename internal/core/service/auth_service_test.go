package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/task-api/internal/core/domain"
	"github.com/99minutos/task-api/internal/infrastructure/security"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type stubAuthRepo struct {
	mu      sync.Mutex
	users   map[string]*domain.Identity
	creates int
	findErr error
}

func newStubAuthRepo() *stubAuthRepo {
	return &stubAuthRepo{users: make(map[string]*domain.Identity)}
}

func cloneIdentity(u *domain.Identity) *domain.Identity {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubAuthRepo) Create(_ context.Context, identity *domain.Identity) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[identity.Email]; exists {
		return nil, domain.ErrUserExists
	}
	copy := cloneIdentity(identity)
	if copy.ID == "" {
		copy.ID = identity.Email
	}
	r.users[copy.Email] = cloneIdentity(copy)
	r.creates++
	return cloneIdentity(copy), nil
}

func (r *stubAuthRepo) FindByEmail(_ context.Context, email string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	if u, ok := r.users[email]; ok {
		return cloneIdentity(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubAuthRepo) List(_ context.Context) ([]domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Identity, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

type stubThrottle struct {
	blocked  bool
	err      error
	failures map[string]int
	resets   int
}

func (t *stubThrottle) Allowed(context.Context, string) (bool, error) {
	return !t.blocked, t.err
}

func (t *stubThrottle) RecordFailure(_ context.Context, email string) error {
	if t.failures == nil {
		t.failures = make(map[string]int)
	}
	t.failures[email]++
	return t.err
}

func (t *stubThrottle) Reset(context.Context, string) error {
	t.resets++
	return t.err
}

func newTestAuthService(t *testing.T, repo *stubAuthRepo, opts ...AuthOption) (*AuthService, *security.JWTCodec) {
	t.Helper()
	codec, err := security.NewJWTCodec(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewJWTCodec: %v", err)
	}
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	verifier := NewCredentialVerifier(repo, hasher)
	return NewAuthService(repo, verifier, hasher, codec, zerolog.Nop(), opts...), codec
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubAuthRepo()
	svc, codec := newTestAuthService(t, repo)

	token, err := svc.Register(context.Background(), "alice@example.com", "pass123")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	claims, err := codec.Parse(token)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.Subject != "alice@example.com" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.Role != domain.RoleUser {
		t.Fatalf("unexpected role: %s", claims.Role)
	}

	stored := repo.users["alice@example.com"]
	if stored == nil {
		t.Fatalf("identity was not persisted")
	}
	if stored.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc, _ := newTestAuthService(t, newStubAuthRepo())

	if _, err := svc.Register(context.Background(), "", "pass"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "bob@example.com", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty password, got %v", err)
	}
}

func TestAuthService_Register_PasswordTooLong(t *testing.T) {
	repo := newStubAuthRepo()
	svc, _ := newTestAuthService(t, repo)

	_, err := svc.Register(context.Background(), "long@example.com", strings.Repeat("a", 80))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if repo.creates != 0 {
		t.Fatalf("expected nothing persisted, got %d", repo.creates)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	repo := newStubAuthRepo()
	svc, _ := newTestAuthService(t, repo)

	_, _ = svc.Register(context.Background(), "bob@example.com", "pass")
	if _, err := svc.Register(context.Background(), "bob@example.com", "pass2"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if repo.creates != 1 {
		t.Fatalf("expected 1 persisted identity, got %d", repo.creates)
	}
}

func TestAuthService_Register_ConcurrentDuplicates(t *testing.T) {
	repo := newStubAuthRepo()
	svc, _ := newTestAuthService(t, repo)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Register(context.Background(), "race@example.com", "pass")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrUserExists):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if successes != 1 || conflicts != attempts-1 {
		t.Fatalf("expected 1 success and %d conflicts, got %d and %d", attempts-1, successes, conflicts)
	}
	if repo.creates != 1 {
		t.Fatalf("expected exactly one persisted identity, got %d", repo.creates)
	}
}

func TestAuthService_Register_StoreError(t *testing.T) {
	repo := newStubAuthRepo()
	repo.findErr = errors.New("connection refused")
	svc, _ := newTestAuthService(t, repo)

	_, err := svc.Register(context.Background(), "err@example.com", "pass")
	if err == nil || errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected a store error, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	repo := newStubAuthRepo()
	svc, codec := newTestAuthService(t, repo)

	if _, err := svc.Register(context.Background(), "carol@example.com", "s3cret"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, err := svc.Login(context.Background(), "carol@example.com", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !codec.IsValid(token, "carol@example.com") {
		t.Fatalf("expected token issued to carol@example.com")
	}
}

func TestAuthService_Login_FailsUniformly(t *testing.T) {
	repo := newStubAuthRepo()
	svc, _ := newTestAuthService(t, repo)

	_, _ = svc.Register(context.Background(), "dave@example.com", "goodpass")

	_, wrongPassword := svc.Login(context.Background(), "dave@example.com", "badpass")
	_, unknownEmail := svc.Login(context.Background(), "ghost@example.com", "badpass")

	if !errors.Is(wrongPassword, domain.ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed for wrong password, got %v", wrongPassword)
	}
	if !errors.Is(unknownEmail, domain.ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed for unknown email, got %v", unknownEmail)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatalf("failures are distinguishable: %q vs %q", wrongPassword, unknownEmail)
	}
}

func TestAuthService_Login_Throttle(t *testing.T) {
	repo := newStubAuthRepo()
	throttle := &stubThrottle{}
	svc, _ := newTestAuthService(t, repo, WithLoginThrottle(throttle))

	_, _ = svc.Register(context.Background(), "erin@example.com", "right")

	_, _ = svc.Login(context.Background(), "erin@example.com", "wrong")
	if throttle.failures["erin@example.com"] != 1 {
		t.Fatalf("expected one recorded failure, got %d", throttle.failures["erin@example.com"])
	}

	if _, err := svc.Login(context.Background(), "erin@example.com", "right"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if throttle.resets != 1 {
		t.Fatalf("expected failures to be reset after success")
	}

	throttle.blocked = true
	if _, err := svc.Login(context.Background(), "erin@example.com", "right"); !errors.Is(err, domain.ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
}

func TestAuthService_Login_ThrottleFailsOpen(t *testing.T) {
	repo := newStubAuthRepo()
	throttle := &stubThrottle{err: errors.New("redis down")}
	svc, _ := newTestAuthService(t, repo, WithLoginThrottle(throttle))

	_, _ = svc.Register(context.Background(), "fay@example.com", "right")
	if _, err := svc.Login(context.Background(), "fay@example.com", "right"); err != nil {
		t.Fatalf("expected login to succeed while throttle is down, got %v", err)
	}
}
