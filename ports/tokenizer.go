package ports

import "github.com/silentoaq/zuvi-auth/core"

// Tokenizer mints and verifies opaque bearer session tokens.
type Tokenizer interface {
	// Issue mints a session token for the public key.
	Issue(publicKey string) (string, error)

	// Parse verifies a token and returns its bound identity. It fails with
	// core.ErrInvalidToken (possibly wrapped) on any verification problem,
	// including expiry.
	Parse(token string) (core.TokenInfo, error)
}
