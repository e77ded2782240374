package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mr-tron/base58"

	"github.com/silentoaq/zuvi-auth/core"
	"github.com/silentoaq/zuvi-auth/ports"
)

// DefaultDebounce is the delay between a wallet connect event and the first
// automatic authentication attempt. The window lets rehydration of a stored
// session finish first, so an already-valid token never triggers a duplicate
// login.
const DefaultDebounce = 300 * time.Millisecond

// State is the coordinator's position in the authentication lifecycle.
type State int

const (
	StateDisconnected State = iota
	StateAwaitingHydration
	StateAuthenticating
	StateAuthenticated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateAwaitingHydration:
		return "awaiting-hydration"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Coordinator decides when to run the challenge-response protocol, serializes
// concurrent attempts, and reacts to wallet connection transitions.
//
// The in-flight guard and the one-time stored-token check are fields of the
// coordinator, created once per process alongside it: the guard is set and
// cleared on every attempt, the stored-token check runs at most once for the
// coordinator's lifetime. Independent coordinators in a test harness do not
// share state.
type Coordinator struct {
	wallet ports.Wallet
	svc    ports.ChallengeService
	store  *Store
	log    *slog.Logger

	debounce time.Duration

	mu             sync.Mutex
	state          State
	authenticating bool
	debounceTimer  *time.Timer
	debounceGen    uint64

	hydrationCheck sync.Once
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDebounce overrides the connect-event debounce window.
func WithDebounce(d time.Duration) Option {
	return func(c *Coordinator) { c.debounce = d }
}

// NewCoordinator creates a coordinator over the wallet capability, challenge
// service and session store.
func NewCoordinator(wallet ports.Wallet, svc ports.ChallengeService, store *Store, logger *slog.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{
		wallet:   wallet,
		svc:      svc,
		store:    store,
		log:      logger,
		debounce: DefaultDebounce,
		state:    StateDisconnected,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the coordinator's current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// HandleConnect reacts to a wallet connect event. The automatic
// authentication attempt is deferred by the debounce window; if rehydration
// surfaces a valid session before the timer fires, the attempt is cancelled.
// A second connect event within the window resets the timer, so overlapping
// events still produce at most one attempt.
func (c *Coordinator) HandleConnect(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopDebounceLocked()
	if c.authenticating || c.state == StateAuthenticated {
		return
	}
	c.state = StateAwaitingHydration
	gen := c.debounceGen
	c.debounceTimer = time.AfterFunc(c.debounce, func() {
		c.afterDebounce(ctx, gen)
	})
}

// HandleDisconnect reacts to a wallet disconnect event. A pending debounce
// timer is cancelled so a stale trigger cannot fire; an in-flight attempt is
// left to complete or fail on its own. The session is cleared only when no
// durable envelope remains.
func (c *Coordinator) HandleDisconnect(ctx context.Context) {
	c.mu.Lock()
	c.stopDebounceLocked()
	c.state = StateDisconnected
	c.mu.Unlock()

	env, ok, err := c.store.envelope.Load(ctx)
	if err != nil || !ok || env.Token == "" {
		c.store.Logout(ctx)
	}
}

// Logout explicitly ends the session: the wallet is disconnected and the
// store, including its durable envelope, is cleared.
func (c *Coordinator) Logout(ctx context.Context) {
	c.mu.Lock()
	c.stopDebounceLocked()
	c.state = StateDisconnected
	c.mu.Unlock()

	if err := c.wallet.Disconnect(ctx); err != nil {
		c.log.Warn("wallet disconnect failed", "error", err)
	}
	c.store.Logout(ctx)
}

// afterDebounce runs once the debounce window elapses: rehydration is given
// its one chance to produce a session before any fresh attempt is made. A
// stale generation means a disconnect or reconnect raced the timer firing;
// the trigger is abandoned and the one-time stored-session check is saved
// for a later connect.
func (c *Coordinator) afterDebounce(ctx context.Context, gen uint64) {
	if c.cancelled(gen) {
		return
	}

	restored := false
	c.hydrationCheck.Do(func() {
		restored = c.checkStoredSession(ctx, gen)
	})
	if restored {
		return
	}

	if c.store.Snapshot().Authenticated {
		c.mu.Lock()
		if gen == c.debounceGen && c.state == StateAwaitingHydration {
			c.state = StateAuthenticated
		}
		c.mu.Unlock()
		return
	}

	if c.cancelled(gen) {
		return
	}
	if err := c.Authenticate(ctx); err != nil {
		c.log.Warn("automatic authentication failed", "error", err)
	}
}

// checkStoredSession hydrates the store and, when a durable token is present,
// verifies it against the challenge service. A valid token restores the
// session without a login round-trip; an invalid one clears the store
// silently and does not trigger a fresh attempt by itself.
func (c *Coordinator) checkStoredSession(ctx context.Context, gen uint64) bool {
	c.store.Hydrate(ctx)

	snap := c.store.Snapshot()
	if snap.Token == "" {
		return false
	}

	res, err := c.svc.Verify(ctx, snap.Token)
	if err != nil {
		// Transport trouble: keep the stored session, skip the automatic
		// attempt. The user can retry manually.
		c.log.Warn("stored token verification unavailable", "error", err)
		return true
	}
	if !res.Valid {
		c.log.Info("stored token rejected, clearing session", "reason", core.ErrStaleToken)
		c.store.Logout(ctx)
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		return true
	}

	if res.User != nil {
		c.store.SetAuthenticated(ctx, *res.User, snap.Token)
	}
	c.mu.Lock()
	if gen == c.debounceGen {
		c.state = StateAuthenticated
	}
	c.mu.Unlock()
	return true
}

// Authenticate runs one guarded challenge-response attempt. Exactly one
// attempt may be in flight per coordinator; re-entry while one is running is
// a no-op, not an error. Any failure disconnects the wallet and clears the
// session so no half-authenticated state survives.
func (c *Coordinator) Authenticate(ctx context.Context) error {
	c.mu.Lock()
	if c.authenticating {
		c.mu.Unlock()
		return nil
	}
	c.authenticating = true
	c.state = StateAuthenticating
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.authenticating = false
		c.mu.Unlock()
	}()

	err := c.authenticate(ctx)
	if err != nil {
		c.fail(ctx, err)
		return err
	}

	c.mu.Lock()
	c.state = StateAuthenticated
	c.mu.Unlock()
	return nil
}

func (c *Coordinator) authenticate(ctx context.Context) error {
	if !c.wallet.Connected() {
		return core.ErrWalletNotConnected
	}
	signer, ok := c.wallet.(ports.MessageSigner)
	if !ok {
		return core.ErrUnsupportedWallet
	}
	publicKey := c.wallet.PublicKey()
	if publicKey == "" {
		return core.ErrWalletNotConnected
	}

	c.store.SetLoading(ctx, true)
	defer c.store.SetLoading(ctx, false)

	challenge, err := c.svc.RequestChallenge(ctx, publicKey)
	if err != nil {
		return fmt.Errorf("request challenge: %w", err)
	}

	// May suspend indefinitely awaiting user approval in the wallet UI.
	sig, err := signer.SignMessage(ctx, []byte(challenge.Message))
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrAuthRejected, err)
	}

	res, err := c.svc.Login(ctx, publicKey, core.DeriveDID(publicKey), base58.Encode(sig), challenge.Message)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	c.store.SetAuthenticated(ctx, res.User, res.Token)
	c.log.Info("wallet authenticated", "publicKey", publicKey)
	return nil
}

// fail applies the corrective path: disconnect the wallet, clear the session.
func (c *Coordinator) fail(ctx context.Context, cause error) {
	c.mu.Lock()
	c.state = StateFailed
	c.mu.Unlock()

	c.log.Warn("authentication failed", "error", cause)
	if err := c.wallet.Disconnect(ctx); err != nil {
		c.log.Warn("wallet disconnect failed", "error", err)
	}
	c.store.Logout(ctx)

	c.mu.Lock()
	c.state = StateDisconnected
	c.mu.Unlock()
}

// stopDebounceLocked cancels a pending debounce timer and advances the
// generation counter. Stop does not prevent an already-started timer
// function from running, so afterDebounce re-checks the generation before
// committing anything. Callers must hold mu.
func (c *Coordinator) stopDebounceLocked() {
	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
		c.debounceTimer = nil
	}
	c.debounceGen++
}

// cancelled reports whether the debounce generation has moved past gen,
// meaning the connection state changed after the timer was armed.
func (c *Coordinator) cancelled(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen != c.debounceGen
}
