// Package cache holds read-through caches in front of the stores.
package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/99minutos/task-api/internal/api/metrics"
	"github.com/99minutos/task-api/internal/core/domain"
	"github.com/99minutos/task-api/internal/core/ports"
)

const minEntries = 16

var _ ports.AuthRepository = (*IdentityCache)(nil)

// IdentityCache answers FindByEmail from an expirable LRU so the request
// authenticator does not hit the store on every call. Misses are not cached:
// an identity registered a moment ago is found on its first request. A
// deleted identity stays resolvable for at most ttl.
type IdentityCache struct {
	inner ports.AuthRepository
	cache *lru.LRU[string, domain.Identity]
}

func NewIdentityCache(inner ports.AuthRepository, size int, ttl time.Duration) *IdentityCache {
	if size < minEntries {
		size = minEntries
	}
	return &IdentityCache{
		inner: inner,
		cache: lru.NewLRU[string, domain.Identity](size, nil, ttl),
	}
}

func (c *IdentityCache) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	if identity, ok := c.cache.Get(email); ok {
		metrics.IdentityCacheTotal.WithLabelValues("hit").Inc()
		return &identity, nil
	}
	metrics.IdentityCacheTotal.WithLabelValues("miss").Inc()

	identity, err := c.inner.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	c.cache.Add(email, *identity)
	return identity, nil
}

func (c *IdentityCache) Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error) {
	created, err := c.inner.Create(ctx, identity)
	if err != nil {
		return nil, err
	}
	c.cache.Remove(created.Email)
	return created, nil
}

func (c *IdentityCache) List(ctx context.Context) ([]domain.Identity, error) {
	return c.inner.List(ctx)
}

// Invalidate drops email from the cache.
func (c *IdentityCache) Invalidate(email string) {
	c.cache.Remove(email)
}

func (c *IdentityCache) Len() int { return c.cache.Len() }
