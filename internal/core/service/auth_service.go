package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/task-api/internal/api/metrics"
	"github.com/99minutos/task-api/internal/core/domain"
	"github.com/99minutos/task-api/internal/core/ports"
)

var _ ports.AuthService = (*AuthService)(nil)

// AuthService implements registration and login.
type AuthService struct {
	repo     ports.AuthRepository
	verifier ports.CredentialVerifier
	hasher   ports.PasswordHasher
	codec    ports.TokenCodec
	throttle ports.LoginThrottle
	log      zerolog.Logger
	now      func() time.Time
}

// AuthOption customises an AuthService.
type AuthOption func(*AuthService)

// WithLoginThrottle locks emails out after repeated failed logins.
func WithLoginThrottle(t ports.LoginThrottle) AuthOption {
	return func(s *AuthService) { s.throttle = t }
}

func NewAuthService(
	repo ports.AuthRepository,
	verifier ports.CredentialVerifier,
	hasher ports.PasswordHasher,
	codec ports.TokenCodec,
	log zerolog.Logger,
	opts ...AuthOption,
) *AuthService {
	s := &AuthService{
		repo:     repo,
		verifier: verifier,
		hasher:   hasher,
		codec:    codec,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a USER identity and returns a token for it. The store's
// unique index decides races between concurrent registrations of one email.
func (s *AuthService) Register(ctx context.Context, email, password string) (string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return "", domain.ErrInvalidInput
	}

	_, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
		return "", domain.ErrUserExists
	case !errors.Is(err, domain.ErrUserNotFound):
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("register: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("register: %w", err)
	}

	created, err := s.repo.Create(ctx, &domain.Identity{
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		CreatedAt:    s.now().UTC(),
	})
	if errors.Is(err, domain.ErrUserExists) {
		metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
		return "", domain.ErrUserExists
	}
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("register: %w", err)
	}

	token, err := s.codec.Issue(created)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("email", created.Email).Msg("identity registered")
	return token, nil
}

// Login returns a token when the credentials match. An unknown email and a
// wrong password both fail with domain.ErrAuthenticationFailed.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return "", domain.ErrAuthenticationFailed
	}

	if !s.allowed(ctx, email) {
		metrics.LoginsTotal.WithLabelValues("throttled").Inc()
		return "", domain.ErrTooManyAttempts
	}

	identity, err := s.verifier.Verify(ctx, email, password)
	if errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrInvalidCredentials) {
		s.recordFailure(ctx, email)
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return "", domain.ErrAuthenticationFailed
	}
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("login: %w", err)
	}

	token, err := s.codec.Issue(identity)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return "", err
	}

	s.resetFailures(ctx, email)
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return token, nil
}

// Throttle backend failures never block a login.
func (s *AuthService) allowed(ctx context.Context, email string) bool {
	if s.throttle == nil {
		return true
	}
	ok, err := s.throttle.Allowed(ctx, email)
	if err != nil {
		s.log.Warn().Err(err).Msg("login throttle unavailable")
		return true
	}
	return ok
}

func (s *AuthService) recordFailure(ctx context.Context, email string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.RecordFailure(ctx, email); err != nil {
		s.log.Warn().Err(err).Msg("record login failure")
	}
}

func (s *AuthService) resetFailures(ctx context.Context, email string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.Reset(ctx, email); err != nil {
		s.log.Warn().Err(err).Msg("reset login failures")
	}
}
