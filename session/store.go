package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/silentoaq/zuvi-auth/core"
	"github.com/silentoaq/zuvi-auth/ports"
)

// Store holds the process-wide session state. All mutations are synchronous,
// total, and atomic with respect to observers: a snapshot never exposes a
// partially updated (user, token, authenticated) combination.
//
// Every mutation persists the durable subset through the envelope store.
// Persistence failures are logged, not propagated; the in-memory state is the
// source of truth for the current process.
type Store struct {
	envelope ports.EnvelopeStore
	log      *slog.Logger

	mu       sync.Mutex
	user     *core.User
	token    string
	authed   bool
	loading  bool
	hydrated bool

	hydrateOnce sync.Once
	subs        []func(core.Session)
}

// NewStore creates an empty, unhydrated store backed by the envelope store.
func NewStore(envelope ports.EnvelopeStore, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		envelope: envelope,
		log:      logger,
	}
}

// Subscribe registers an observer invoked with a consistent snapshot after
// every mutation. Observers must not call back into the store.
func (s *Store) Subscribe(fn func(core.Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Snapshot returns a consistent copy of the current session.
func (s *Store) Snapshot() core.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Loading reports whether an authentication attempt is marked in progress.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Hydrated reports whether the one-time envelope load has completed. Once
// true it stays true for the lifetime of the store.
func (s *Store) Hydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrated
}

// SetUser replaces the user wholesale and marks the session authenticated.
// Callers performing the two-step login must pair it with SetToken without
// yielding control in between, or use SetAuthenticated.
func (s *Store) SetUser(ctx context.Context, user core.User) {
	s.mu.Lock()
	s.user = user.Clone()
	s.authed = true
	s.finishMutationLocked(ctx)
}

// SetToken sets the token only. It does not by itself imply an authenticated
// session.
func (s *Store) SetToken(ctx context.Context, token string) {
	s.mu.Lock()
	s.token = token
	s.finishMutationLocked(ctx)
}

// SetAuthenticated performs the two-step login update as one logical
// operation: token and user become visible together.
func (s *Store) SetAuthenticated(ctx context.Context, user core.User, token string) {
	s.mu.Lock()
	s.user = user.Clone()
	s.token = token
	s.authed = true
	s.loading = false
	s.finishMutationLocked(ctx)
}

// PatchCredentialStatus merges the non-nil facts of patch into the current
// user's credential status. No-op when no user is present.
func (s *Store) PatchCredentialStatus(ctx context.Context, patch core.CredentialStatus) {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return
	}
	s.user.CredentialStatus = s.user.CredentialStatus.Merge(patch)
	s.finishMutationLocked(ctx)
}

// Logout clears user, token, authenticated and loading to their defaults and
// removes the durable envelope. The hydrated flag is never reset.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.authed = false
	s.loading = false
	snap := s.snapshotLocked()
	subs := make([]func(core.Session), len(s.subs))
	copy(subs, s.subs)

	if err := s.envelope.Clear(ctx); err != nil {
		s.log.Warn("failed to clear session envelope", "error", err)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// SetLoading sets the loading flag only.
func (s *Store) SetLoading(ctx context.Context, loading bool) {
	s.mu.Lock()
	s.loading = loading
	snap := s.snapshotLocked()
	subs := make([]func(core.Session), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// Hydrate loads the durable envelope and merges it in. It runs at most once
// per store; later calls return immediately. A missing or malformed envelope
// leaves the store empty and unauthenticated. After Hydrate returns, Hydrated
// reports true permanently.
func (s *Store) Hydrate(ctx context.Context) {
	s.hydrateOnce.Do(func() {
		env, ok, err := s.envelope.Load(ctx)
		if err != nil {
			s.log.Warn("failed to load session envelope", "error", err)
			ok = false
		}
		if ok && !env.Valid() {
			s.log.Warn("discarding malformed session envelope")
			ok = false
		}

		s.mu.Lock()
		if ok {
			s.user = env.User.Clone()
			s.token = env.Token
			s.authed = env.Authenticated
		}
		s.hydrated = true
		snap := s.snapshotLocked()
		subs := make([]func(core.Session), len(s.subs))
		copy(subs, s.subs)
		s.mu.Unlock()

		for _, fn := range subs {
			fn(snap)
		}
	})
}

// snapshotLocked builds a consistent copy. Callers must hold mu.
func (s *Store) snapshotLocked() core.Session {
	return core.Session{
		Token:         s.token,
		User:          s.user.Clone(),
		Authenticated: s.authed,
	}
}

// finishMutationLocked persists the durable subset and notifies observers.
// It must be entered with mu held and releases it. The save happens under
// the lock so overlapping mutations cannot persist out of order; the durable
// envelope always matches the last in-memory state.
func (s *Store) finishMutationLocked(ctx context.Context) {
	env := core.Envelope{
		User:          s.user.Clone(),
		Token:         s.token,
		Authenticated: s.authed,
	}
	snap := s.snapshotLocked()
	subs := make([]func(core.Session), len(s.subs))
	copy(subs, s.subs)

	if err := s.envelope.Save(ctx, env); err != nil {
		s.log.Warn("failed to persist session envelope", "error", err)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
