package authstore

import (
	"context"
	"sync"
	"time"

	"github.com/silentoaq/zuvi-auth/ports"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is an in-memory implementation of ChallengeStore and
// RevocationStore for tests and single-instance deployments. Expired entries
// are dropped lazily on access.
type MemoryStore struct {
	mu         sync.Mutex
	challenges map[string]entry
	revoked    map[string]entry
	now        func() time.Time
}

var (
	_ ports.ChallengeStore  = (*MemoryStore)(nil)
	_ ports.RevocationStore = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		challenges: make(map[string]entry),
		revoked:    make(map[string]entry),
		now:        time.Now,
	}
}

func (s *MemoryStore) Put(ctx context.Context, nonce, publicKey string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[nonce] = entry{value: publicKey, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Consume(ctx context.Context, nonce string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.challenges[nonce]
	if !ok {
		return "", false, nil
	}
	delete(s.challenges, nonce)
	if s.now().After(e.expiresAt) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *MemoryStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[tokenID] = entry{expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if s.now().After(e.expiresAt) {
		delete(s.revoked, tokenID)
		return false, nil
	}
	return true, nil
}
