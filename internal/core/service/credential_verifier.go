package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/99minutos/task-api/internal/core/domain"
	"github.com/99minutos/task-api/internal/core/ports"
)

// dummyPassword is hashed once and compared against when an email is
// unknown, so both failure paths spend one bcrypt comparison.
const dummyPassword = "timing-equaliser-not-a-real-password"

var _ ports.CredentialVerifier = (*CredentialVerifier)(nil)

// CredentialVerifier checks a plaintext password against the stored bcrypt
// hash of an identity. It never logs either value.
type CredentialVerifier struct {
	repo   ports.AuthRepository
	hasher ports.PasswordHasher

	dummyMu   sync.Mutex
	dummyHash string
}

func NewCredentialVerifier(repo ports.AuthRepository, hasher ports.PasswordHasher) *CredentialVerifier {
	return &CredentialVerifier{repo: repo, hasher: hasher}
}

// Verify returns the identity registered under email when password matches.
// It fails with domain.ErrUserNotFound or domain.ErrInvalidCredentials;
// other errors come from the store or the hasher.
func (v *CredentialVerifier) Verify(ctx context.Context, email, password string) (*domain.Identity, error) {
	identity, err := v.repo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		v.burnComparison(ctx, password)
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("verify credentials: %w", err)
	}

	if err := v.hasher.Compare(ctx, identity.PasswordHash, password); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("verify credentials: %w", err)
	}
	return identity, nil
}

func (v *CredentialVerifier) burnComparison(ctx context.Context, password string) {
	hash, err := v.dummy(ctx)
	if err != nil {
		return
	}
	_ = v.hasher.Compare(ctx, hash, password)
}

// dummy returns the dummy hash, computing it on first use. A failed attempt
// is not remembered, so the next unknown-email login tries again.
func (v *CredentialVerifier) dummy(ctx context.Context) (string, error) {
	v.dummyMu.Lock()
	defer v.dummyMu.Unlock()
	if v.dummyHash != "" {
		return v.dummyHash, nil
	}
	hash, err := v.hasher.Hash(ctx, dummyPassword)
	if err != nil {
		return "", err
	}
	v.dummyHash = hash
	return hash, nil
}
