package ports

import "context"

// Wallet is the external key-pair capability. It is not implemented by this
// repository beyond local adapters; the session core only depends on this
// contract.
type Wallet interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error

	// Connected reports the current connection state.
	Connected() bool

	// PublicKey returns the base58 wallet address, or "" when disconnected.
	PublicKey() string
}

// MessageSigner is the optional signing capability of a Wallet. The
// coordinator discovers it by interface assertion; a wallet without it cannot
// complete challenge-response authentication. SignMessage may block
// indefinitely awaiting user approval; a user cancellation is reported as an
// error, not a panic.
type MessageSigner interface {
	SignMessage(ctx context.Context, message []byte) ([]byte, error)
}
