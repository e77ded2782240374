// Package wallet provides an in-process ed25519 keypair implementation of
// the wallet capability, used by the CLI and tests. Browser-extension and
// hardware wallets stay external; they only need to satisfy ports.Wallet.
package wallet

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/mr-tron/base58"

	"github.com/silentoaq/zuvi-auth/core"
	"github.com/silentoaq/zuvi-auth/ports"
)

// Keypair is a local ed25519 wallet. Its address is the base58 encoding of
// the public key, the convention of the target chain.
type Keypair struct {
	mu        sync.Mutex
	pub       ed25519.PublicKey
	priv      ed25519.PrivateKey
	connected bool
}

var (
	_ ports.Wallet        = (*Keypair)(nil)
	_ ports.MessageSigner = (*Keypair)(nil)
)

// Generate creates a wallet with a fresh random keypair.
func Generate() (*Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	return &Keypair{pub: pub, priv: priv}, nil
}

// FromSeed creates a wallet from a 32-byte ed25519 seed.
func FromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Keypair{pub: priv.Public().(ed25519.PublicKey), priv: priv}, nil
}

type keyFile struct {
	Seed string `json:"seed"` // base58
}

// Load reads a wallet key file written by SaveFile.
func Load(path string) (*Keypair, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var kf keyFile
	if err := json.Unmarshal(b, &kf); err != nil {
		return nil, fmt.Errorf("parse key file: %w", err)
	}
	seed, err := base58.Decode(kf.Seed)
	if err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return FromSeed(seed)
}

// SaveFile writes the wallet seed to path with owner-only permissions.
func (k *Keypair) SaveFile(path string) error {
	kf := keyFile{Seed: base58.Encode(k.priv.Seed())}
	b, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

// Connect marks the wallet connected.
func (k *Keypair) Connect(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.connected = true
	return nil
}

// Disconnect marks the wallet disconnected.
func (k *Keypair) Disconnect(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.connected = false
	return nil
}

// Connected reports the connection state.
func (k *Keypair) Connected() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.connected
}

// PublicKey returns the base58 address, or "" when disconnected.
func (k *Keypair) PublicKey() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.connected {
		return ""
	}
	return base58.Encode(k.pub)
}

// SignMessage signs the message bytes with the wallet key. A cancelled
// context surfaces as an authentication rejection, matching a user declining
// the signing prompt.
func (k *Keypair) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrAuthRejected, err)
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.connected {
		return nil, core.ErrWalletNotConnected
	}
	if k.priv == nil {
		return nil, errors.New("wallet has no private key")
	}
	return ed25519.Sign(k.priv, message), nil
}
