package envelope

import (
	"context"
	"sync"

	"github.com/silentoaq/zuvi-auth/core"
	"github.com/silentoaq/zuvi-auth/ports"
)

// MemoryStore keeps the envelope in memory. Primarily intended for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	env     core.Envelope
	present bool
}

var _ ports.EnvelopeStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Seed sets the stored envelope directly, simulating state left by a previous
// process.
func (s *MemoryStore) Seed(env core.Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.env = env
	s.present = true
}

func (s *MemoryStore) Save(ctx context.Context, env core.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.env = env
	s.present = true
	return nil
}

func (s *MemoryStore) Load(ctx context.Context) (core.Envelope, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.env, s.present, nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.env = core.Envelope{}
	s.present = false
	return nil
}
