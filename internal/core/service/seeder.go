package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/task-api/internal/core/domain"
	"github.com/99minutos/task-api/internal/core/ports"
)

// SeedAdmin makes sure an ADMIN identity exists for email. An existing
// identity is left untouched whatever its role, and an empty password skips
// seeding entirely.
func SeedAdmin(ctx context.Context, repo ports.AuthRepository, hasher ports.PasswordHasher, email, password string, log zerolog.Logger) error {
	if email == "" || password == "" {
		log.Info().Msg("admin seeding skipped: no credentials configured")
		return nil
	}

	_, err := repo.FindByEmail(ctx, email)
	if err == nil {
		log.Debug().Str("email", email).Msg("admin identity already present")
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("seed admin: %w", err)
	}

	hash, err := hasher.Hash(ctx, password)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	_, err = repo.Create(ctx, &domain.Identity{
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	})
	// Another replica seeded it first.
	if errors.Is(err, domain.ErrUserExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	log.Info().Str("email", email).Msg("admin identity seeded")
	return nil
}
