package resolver

import (
	"context"
	"sync"
	"time"

	"github.com/silentoaq/zuvi-auth/core"
	"github.com/silentoaq/zuvi-auth/ports"
)

// DefaultCacheTTL bounds how stale a cached credential status may get before
// the next resolve goes back to the issuer.
const DefaultCacheTTL = 10 * time.Minute

type cached struct {
	status    core.CredentialStatus
	expiresAt time.Time
}

// Cache decorates a CredentialResolver with a per-address TTL cache, keeping
// attestation issuer round-trips off the login hot path.
type Cache struct {
	next ports.CredentialResolver
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]cached
}

var _ ports.CredentialResolver = (*Cache)(nil)

// NewCache wraps next with a TTL cache.
func NewCache(next ports.CredentialResolver, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cached),
	}
}

// Resolve serves from cache when fresh, otherwise asks the wrapped resolver.
// Errors are never cached.
func (c *Cache) Resolve(ctx context.Context, publicKey string) (core.CredentialStatus, error) {
	c.mu.Lock()
	if e, ok := c.entries[publicKey]; ok && c.now().Before(e.expiresAt) {
		status := e.status.Clone()
		c.mu.Unlock()
		return status, nil
	}
	c.mu.Unlock()

	status, err := c.next.Resolve(ctx, publicKey)
	if err != nil {
		return core.CredentialStatus{}, err
	}

	c.mu.Lock()
	c.entries[publicKey] = cached{status: status.Clone(), expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return status, nil
}

// Invalidate drops the cached entry for a public key, forcing the next
// resolve to hit the issuer.
func (c *Cache) Invalidate(publicKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, publicKey)
}
