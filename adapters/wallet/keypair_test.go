package wallet

import (
	"context"
	"crypto/ed25519"
	"path/filepath"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silentoaq/zuvi-auth/core"
)

func TestKeypair_SignVerifies(t *testing.T) {
	ctx := context.Background()
	kp, err := Generate()
	require.NoError(t, err)
	require.NoError(t, kp.Connect(ctx))

	msg := []byte(`{"action":"Connect to Zuvi","nonce":"n1"}`)
	sig, err := kp.SignMessage(ctx, msg)
	require.NoError(t, err)

	pub, err := base58.Decode(kp.PublicKey())
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(ed25519.PublicKey(pub), msg, sig))
}

func TestKeypair_PublicKeyHiddenWhenDisconnected(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)

	assert.False(t, kp.Connected())
	assert.Empty(t, kp.PublicKey())

	require.NoError(t, kp.Connect(context.Background()))
	assert.True(t, kp.Connected())
	assert.NotEmpty(t, kp.PublicKey())
}

func TestKeypair_SignRequiresConnection(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)

	_, err = kp.SignMessage(context.Background(), []byte("msg"))
	require.ErrorIs(t, err, core.ErrWalletNotConnected)
}

func TestKeypair_SignCancelledContext(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)
	require.NoError(t, kp.Connect(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = kp.SignMessage(ctx, []byte("msg"))
	require.ErrorIs(t, err, core.ErrAuthRejected)
}

func TestKeypair_FileRoundTrip(t *testing.T) {
	ctx := context.Background()
	kp, err := Generate()
	require.NoError(t, err)
	require.NoError(t, kp.Connect(ctx))

	path := filepath.Join(t.TempDir(), "wallet.json")
	require.NoError(t, kp.SaveFile(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, loaded.Connect(ctx))

	assert.Equal(t, kp.PublicKey(), loaded.PublicKey())

	msg := []byte("same key, same signature")
	sig1, err := kp.SignMessage(ctx, msg)
	require.NoError(t, err)
	sig2, err := loaded.SignMessage(ctx, msg)
	require.NoError(t, err)
	assert.Equal(t, sig1, sig2)
}

func TestKeypair_LoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestFromSeed_RejectsBadLength(t *testing.T) {
	_, err := FromSeed([]byte("short"))
	require.Error(t, err)
}
