package ports

import (
	"context"

	"github.com/silentoaq/zuvi-auth/core"
)

// CredentialResolver reports the current credential attestations for a wallet
// address. Attestation issuance itself is external; this boundary only
// consumes its boolean/attribute results.
type CredentialResolver interface {
	Resolve(ctx context.Context, publicKey string) (core.CredentialStatus, error)
}
