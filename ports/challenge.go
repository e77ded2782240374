package ports

import (
	"context"

	"github.com/silentoaq/zuvi-auth/core"
)

// ChallengeService is the client contract for the authentication API
// boundary. The server is the sole verifier of signatures; the client must
// never cache or reuse a challenge message across attempts.
type ChallengeService interface {
	// RequestChallenge issues a short-lived, single-use login message bound
	// server-side to the public key.
	RequestChallenge(ctx context.Context, publicKey string) (core.Challenge, error)

	// Login exchanges a verified signature of message for a session token and
	// the user's current credential status.
	Login(ctx context.Context, publicKey, did, signature, message string) (core.LoginResult, error)

	// Verify is an idempotent, side-effect-free check that a previously issued
	// token is still valid.
	Verify(ctx context.Context, token string) (core.VerifyResult, error)

	// RefreshCredentialStatus fetches the current credential status for the
	// session identified by token.
	RefreshCredentialStatus(ctx context.Context, token string) (core.CredentialStatus, error)
}
