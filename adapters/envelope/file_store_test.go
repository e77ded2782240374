package envelope

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silentoaq/zuvi-auth/core"
)

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(t.TempDir())

	env := core.Envelope{
		User:          &core.User{PublicKey: "pk1", DID: "did:solana:pk1"},
		Token:         "token1",
		Authenticated: true,
	}
	require.NoError(t, s.Save(ctx, env))

	got, ok, err := s.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, env.Token, got.Token)
	assert.True(t, got.Authenticated)
	require.NotNil(t, got.User)
	assert.Equal(t, "pk1", got.User.PublicKey)
}

func TestFileStore_MissingFileIsAbsent(t *testing.T) {
	s := NewFileStore(t.TempDir())

	_, ok, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStore_MalformedFileIsAbsent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "session.json"), []byte("{not json"), 0o600))

	s := NewFileStore(dir)
	_, ok, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStore_Clear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewFileStore(dir)
	require.NoError(t, s.Save(ctx, core.Envelope{Token: "t"}))

	require.NoError(t, s.Clear(ctx))

	_, err := os.Stat(filepath.Join(dir, "session.json"))
	assert.True(t, os.IsNotExist(err))

	// Clearing again is not an error.
	require.NoError(t, s.Clear(ctx))
}

func TestFileStore_OwnerOnlyPermissions(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewFileStore(dir)
	require.NoError(t, s.Save(ctx, core.Envelope{Token: "t"}))

	info, err := os.Stat(filepath.Join(dir, "session.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(t.TempDir())

	require.NoError(t, s.Save(ctx, core.Envelope{Token: "first"}))
	require.NoError(t, s.Save(ctx, core.Envelope{Token: "second"}))

	got, ok, err := s.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", got.Token)
}
