package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silentoaq/zuvi-auth/adapters/envelope"
	"github.com/silentoaq/zuvi-auth/core"
)

// fakeWallet implements ports.Wallet and ports.MessageSigner.
type fakeWallet struct {
	mu          sync.Mutex
	connected   bool
	publicKey   string
	signErr     error
	disconnects int
}

func newFakeWallet(publicKey string) *fakeWallet {
	return &fakeWallet{connected: true, publicKey: publicKey}
}

func (w *fakeWallet) Connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.connected = true
	return nil
}

func (w *fakeWallet) Disconnect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.connected = false
	w.disconnects++
	return nil
}

func (w *fakeWallet) Connected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.connected
}

func (w *fakeWallet) PublicKey() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.connected {
		return ""
	}
	return w.publicKey
}

func (w *fakeWallet) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.signErr != nil {
		return nil, w.signErr
	}
	return []byte("signed:" + string(message)), nil
}

func (w *fakeWallet) disconnectCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.disconnects
}

// sealedWallet implements ports.Wallet without the message-signing
// capability.
type sealedWallet struct{ inner *fakeWallet }

func (w *sealedWallet) Connect(ctx context.Context) error    { return w.inner.Connect(ctx) }
func (w *sealedWallet) Disconnect(ctx context.Context) error { return w.inner.Disconnect(ctx) }
func (w *sealedWallet) Connected() bool                      { return w.inner.Connected() }
func (w *sealedWallet) PublicKey() string                    { return w.inner.PublicKey() }

// fakeChallengeService counts calls and returns canned results.
type fakeChallengeService struct {
	challengeCalls atomic.Int32
	loginCalls     atomic.Int32
	verifyCalls    atomic.Int32

	loginErr     error
	verifyErr    error
	verifyResult core.VerifyResult

	loginGate chan struct{} // when non-nil, Login blocks until closed
}

func (f *fakeChallengeService) RequestChallenge(ctx context.Context, publicKey string) (core.Challenge, error) {
	f.challengeCalls.Add(1)
	return core.Challenge{Message: `{"action":"Connect to Zuvi","nonce":"n1"}`}, nil
}

func (f *fakeChallengeService) Login(ctx context.Context, publicKey, did, signature, message string) (core.LoginResult, error) {
	f.loginCalls.Add(1)
	if f.loginGate != nil {
		<-f.loginGate
	}
	if f.loginErr != nil {
		return core.LoginResult{}, f.loginErr
	}
	return core.LoginResult{
		Token: "fresh-token",
		User:  core.User{PublicKey: publicKey, DID: did},
	}, nil
}

func (f *fakeChallengeService) Verify(ctx context.Context, token string) (core.VerifyResult, error) {
	f.verifyCalls.Add(1)
	if f.verifyErr != nil {
		return core.VerifyResult{}, f.verifyErr
	}
	return f.verifyResult, nil
}

func (f *fakeChallengeService) RefreshCredentialStatus(ctx context.Context, token string) (core.CredentialStatus, error) {
	return core.CredentialStatus{}, nil
}

const testDebounce = 5 * time.Millisecond

func TestCoordinator_AuthenticateSuccess(t *testing.T) {
	ctx := context.Background()
	wallet := newFakeWallet("pk1")
	svc := &fakeChallengeService{}
	store := NewStore(envelope.NewMemoryStore(), nil)
	coord := NewCoordinator(wallet, svc, store, nil)

	require.NoError(t, coord.Authenticate(ctx))

	snap := store.Snapshot()
	assert.True(t, snap.Authenticated)
	assert.Equal(t, "fresh-token", snap.Token)
	assert.Equal(t, "pk1", snap.User.PublicKey)
	assert.Equal(t, core.DeriveDID("pk1"), snap.User.DID)
	assert.Equal(t, StateAuthenticated, coord.State())
	assert.False(t, store.Loading())
}

func TestCoordinator_ConnectTriggersAuthenticationAfterDebounce(t *testing.T) {
	ctx := context.Background()
	wallet := newFakeWallet("pk1")
	svc := &fakeChallengeService{}
	store := NewStore(envelope.NewMemoryStore(), nil)
	coord := NewCoordinator(wallet, svc, store, nil, WithDebounce(testDebounce))

	coord.HandleConnect(ctx)
	assert.Equal(t, StateAwaitingHydration, coord.State())

	require.Eventually(t, func() bool {
		return store.Snapshot().Authenticated
	}, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), svc.loginCalls.Load())
}

func TestCoordinator_StoredValidTokenSkipsLogin(t *testing.T) {
	ctx := context.Background()
	wallet := newFakeWallet("pk1")
	user := core.User{PublicKey: "pk1"}
	svc := &fakeChallengeService{
		verifyResult: core.VerifyResult{Valid: true, User: &user},
	}
	env := envelope.NewMemoryStore()
	env.Seed(core.Envelope{User: &user, Token: "stored-token", Authenticated: true})
	store := NewStore(env, nil)
	coord := NewCoordinator(wallet, svc, store, nil, WithDebounce(testDebounce))

	coord.HandleConnect(ctx)

	require.Eventually(t, func() bool {
		return coord.State() == StateAuthenticated
	}, time.Second, time.Millisecond)

	snap := store.Snapshot()
	assert.Equal(t, "stored-token", snap.Token)
	assert.Equal(t, int32(0), svc.loginCalls.Load())
	assert.Equal(t, int32(0), svc.challengeCalls.Load())
}

func TestCoordinator_StoredInvalidTokenClearsSilently(t *testing.T) {
	ctx := context.Background()
	wallet := newFakeWallet("pk1")
	svc := &fakeChallengeService{
		verifyResult: core.VerifyResult{Valid: false},
	}
	env := envelope.NewMemoryStore()
	user := core.User{PublicKey: "pk1"}
	env.Seed(core.Envelope{User: &user, Token: "stale-token", Authenticated: true})
	store := NewStore(env, nil)
	coord := NewCoordinator(wallet, svc, store, nil, WithDebounce(testDebounce))

	coord.HandleConnect(ctx)

	require.Eventually(t, func() bool {
		return svc.verifyCalls.Load() == 1 && !store.Snapshot().Authenticated
	}, time.Second, time.Millisecond)

	// The rejected stored token clears the session but does not by itself
	// start a fresh attempt.
	time.Sleep(5 * testDebounce)
	assert.Equal(t, int32(0), svc.loginCalls.Load())
	assert.Equal(t, StateDisconnected, coord.State())
}

func TestCoordinator_VerifyOutageKeepsStoredSession(t *testing.T) {
	ctx := context.Background()
	wallet := newFakeWallet("pk1")
	svc := &fakeChallengeService{verifyErr: core.ErrNetwork}
	env := envelope.NewMemoryStore()
	user := core.User{PublicKey: "pk1"}
	env.Seed(core.Envelope{User: &user, Token: "stored-token", Authenticated: true})
	store := NewStore(env, nil)
	coord := NewCoordinator(wallet, svc, store, nil, WithDebounce(testDebounce))

	coord.HandleConnect(ctx)

	require.Eventually(t, func() bool {
		return svc.verifyCalls.Load() == 1
	}, time.Second, time.Millisecond)

	time.Sleep(5 * testDebounce)
	assert.Equal(t, "stored-token", store.Snapshot().Token)
	assert.Equal(t, int32(0), svc.loginCalls.Load())
}

func TestCoordinator_SingleAttemptInFlight(t *testing.T) {
	ctx := context.Background()
	wallet := newFakeWallet("pk1")
	svc := &fakeChallengeService{loginGate: make(chan struct{})}
	store := NewStore(envelope.NewMemoryStore(), nil)
	coord := NewCoordinator(wallet, svc, store, nil)

	done := make(chan error, 1)
	go func() { done <- coord.Authenticate(ctx) }()

	require.Eventually(t, func() bool {
		return svc.loginCalls.Load() == 1
	}, time.Second, time.Millisecond)

	// Re-entry while the first attempt is in flight is a no-op.
	require.NoError(t, coord.Authenticate(ctx))
	assert.Equal(t, int32(1), svc.challengeCalls.Load())

	close(svc.loginGate)
	require.NoError(t, <-done)

	// The guard is cleared once the attempt finishes.
	require.NoError(t, coord.Authenticate(ctx))
	assert.Equal(t, int32(2), svc.challengeCalls.Load())
}

func TestCoordinator_DisconnectCancelsPendingAttempt(t *testing.T) {
	ctx := context.Background()
	wallet := newFakeWallet("pk1")
	svc := &fakeChallengeService{}
	store := NewStore(envelope.NewMemoryStore(), nil)
	coord := NewCoordinator(wallet, svc, store, nil, WithDebounce(50*time.Millisecond))

	coord.HandleConnect(ctx)
	coord.HandleDisconnect(ctx)

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(0), svc.challengeCalls.Load())
	assert.Equal(t, StateDisconnected, coord.State())
	assert.False(t, store.Snapshot().Authenticated)
}

func TestCoordinator_ReconnectWithinWindowResetsTimer(t *testing.T) {
	ctx := context.Background()
	wallet := newFakeWallet("pk1")
	svc := &fakeChallengeService{}
	store := NewStore(envelope.NewMemoryStore(), nil)
	coord := NewCoordinator(wallet, svc, store, nil, WithDebounce(20*time.Millisecond))

	coord.HandleConnect(ctx)
	time.Sleep(5 * time.Millisecond)
	coord.HandleConnect(ctx)

	require.Eventually(t, func() bool {
		return store.Snapshot().Authenticated
	}, time.Second, time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), svc.challengeCalls.Load())
	assert.Equal(t, int32(1), svc.loginCalls.Load())
}

func TestCoordinator_StaleTimerFireAfterDisconnect(t *testing.T) {
	ctx := context.Background()
	wallet := newFakeWallet("pk1")
	user := core.User{PublicKey: "pk1"}
	svc := &fakeChallengeService{
		verifyResult: core.VerifyResult{Valid: true, User: &user},
	}
	env := envelope.NewMemoryStore()
	env.Seed(core.Envelope{User: &user, Token: "stored-token", Authenticated: true})
	store := NewStore(env, nil)
	coord := NewCoordinator(wallet, svc, store, nil, WithDebounce(time.Hour))

	coord.HandleConnect(ctx)
	coord.mu.Lock()
	gen := coord.debounceGen
	coord.mu.Unlock()

	coord.HandleDisconnect(ctx)

	// A timer function that had already started when the disconnect stopped
	// the timer still runs; its stale generation must keep it from moving
	// the coordinator out of the disconnected state.
	coord.afterDebounce(ctx, gen)

	assert.Equal(t, StateDisconnected, coord.State())
	assert.Equal(t, int32(0), svc.verifyCalls.Load())
	assert.Equal(t, int32(0), svc.loginCalls.Load())
}

func TestCoordinator_DisconnectKeepsDurableSession(t *testing.T) {
	ctx := context.Background()
	wallet := newFakeWallet("pk1")
	svc := &fakeChallengeService{}
	env := envelope.NewMemoryStore()
	user := core.User{PublicKey: "pk1"}
	env.Seed(core.Envelope{User: &user, Token: "stored-token", Authenticated: true})
	store := NewStore(env, nil)
	store.Hydrate(ctx)
	coord := NewCoordinator(wallet, svc, store, nil)

	coord.HandleDisconnect(ctx)

	// The envelope still holds a token, so the session survives the wallet
	// disconnect.
	assert.Equal(t, "stored-token", store.Snapshot().Token)
	_, ok, err := env.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCoordinator_UnsupportedWallet(t *testing.T) {
	ctx := context.Background()
	wallet := &sealedWallet{inner: newFakeWallet("pk1")}
	svc := &fakeChallengeService{}
	store := NewStore(envelope.NewMemoryStore(), nil)
	coord := NewCoordinator(wallet, svc, store, nil)

	err := coord.Authenticate(ctx)

	require.ErrorIs(t, err, core.ErrUnsupportedWallet)
	assert.Equal(t, int32(0), svc.challengeCalls.Load())
	assert.False(t, wallet.Connected())
	assert.False(t, store.Snapshot().Authenticated)
}

func TestCoordinator_WalletNotConnected(t *testing.T) {
	ctx := context.Background()
	wallet := newFakeWallet("pk1")
	require.NoError(t, wallet.Disconnect(ctx))
	svc := &fakeChallengeService{}
	store := NewStore(envelope.NewMemoryStore(), nil)
	coord := NewCoordinator(wallet, svc, store, nil)

	err := coord.Authenticate(ctx)

	require.ErrorIs(t, err, core.ErrWalletNotConnected)
}

func TestCoordinator_FailureDisconnectsAndClears(t *testing.T) {
	ctx := context.Background()
	wallet := newFakeWallet("pk1")
	svc := &fakeChallengeService{loginErr: core.ErrAuthRejected}
	store := NewStore(envelope.NewMemoryStore(), nil)
	coord := NewCoordinator(wallet, svc, store, nil)

	err := coord.Authenticate(ctx)

	require.ErrorIs(t, err, core.ErrAuthRejected)
	assert.False(t, wallet.Connected())
	assert.Equal(t, 1, wallet.disconnectCount())
	assert.False(t, store.Snapshot().Authenticated)
	assert.False(t, store.Loading())
	assert.Equal(t, StateDisconnected, coord.State())
}

func TestCoordinator_SignRejectionFailsAttempt(t *testing.T) {
	ctx := context.Background()
	wallet := newFakeWallet("pk1")
	wallet.signErr = errors.New("user declined")
	svc := &fakeChallengeService{}
	store := NewStore(envelope.NewMemoryStore(), nil)
	coord := NewCoordinator(wallet, svc, store, nil)

	err := coord.Authenticate(ctx)

	require.ErrorIs(t, err, core.ErrAuthRejected)
	assert.Equal(t, int32(0), svc.loginCalls.Load())
	assert.False(t, store.Snapshot().Authenticated)
}

func TestCoordinator_LogoutDisconnectsWalletAndClearsStore(t *testing.T) {
	ctx := context.Background()
	wallet := newFakeWallet("pk1")
	svc := &fakeChallengeService{}
	env := envelope.NewMemoryStore()
	store := NewStore(env, nil)
	store.SetAuthenticated(ctx, core.User{PublicKey: "pk1"}, "token1")
	coord := NewCoordinator(wallet, svc, store, nil)

	coord.Logout(ctx)

	assert.False(t, wallet.Connected())
	assert.False(t, store.Snapshot().Authenticated)
	_, ok, err := env.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
