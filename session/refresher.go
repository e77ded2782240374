package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/silentoaq/zuvi-auth/ports"
)

// Refresher updates the credential status of an already-authenticated
// session. A refresh failure is not an authentication failure: errors are
// logged and returned, but the session is never cleared.
type Refresher struct {
	svc   ports.ChallengeService
	store *Store
	log   *slog.Logger
}

// NewRefresher creates a refresher over the challenge service and store.
func NewRefresher(svc ports.ChallengeService, store *Store, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{svc: svc, store: store, log: logger}
}

// Refresh fetches the current credential status and patches it into the
// store. No-op when the session is not authenticated.
func (r *Refresher) Refresh(ctx context.Context) error {
	snap := r.store.Snapshot()
	if !snap.Authenticated {
		return nil
	}

	status, err := r.svc.RefreshCredentialStatus(ctx, snap.Token)
	if err != nil {
		r.log.Warn("credential refresh failed", "error", err)
		return fmt.Errorf("refresh credential status: %w", err)
	}

	r.store.PatchCredentialStatus(ctx, status)
	return nil
}

// Run refreshes on the given interval until ctx is cancelled.
func (r *Refresher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				r.log.Warn("periodic credential refresh failed", "error", err)
			}
		}
	}
}
