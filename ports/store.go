package ports

import (
	"context"
	"time"

	"github.com/silentoaq/zuvi-auth/core"
)

// EnvelopeStore persists the durable session envelope under a single stable
// key. Load must tolerate a missing or malformed envelope by reporting it as
// absent rather than failing.
type EnvelopeStore interface {
	Save(ctx context.Context, env core.Envelope) error
	Load(ctx context.Context) (env core.Envelope, ok bool, err error)
	Clear(ctx context.Context) error
}

// ChallengeStore records issued challenge nonces, keyed to the public key
// they were issued for, until they are consumed or expire. Consuming a nonce
// removes it, making every challenge strictly single-use.
type ChallengeStore interface {
	Put(ctx context.Context, nonce, publicKey string, ttl time.Duration) error
	Consume(ctx context.Context, nonce string) (publicKey string, ok bool, err error)
}

// RevocationStore marks session token IDs as revoked until their natural
// expiry.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
