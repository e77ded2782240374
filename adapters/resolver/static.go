// Package resolver provides credential status resolvers. Real attestation
// issuers (citizen identity, property ownership) are external services; the
// static resolver serves tests and standalone deployments, the cached
// decorator keeps issuer round-trips off the login path.
package resolver

import (
	"context"
	"sync"

	"github.com/silentoaq/zuvi-auth/core"
	"github.com/silentoaq/zuvi-auth/ports"
)

// Static resolves credential status from a fixed in-memory table. Unknown
// addresses resolve to an empty status, which readers treat as "no
// credentials attested".
type Static struct {
	mu     sync.RWMutex
	status map[string]core.CredentialStatus
}

var _ ports.CredentialResolver = (*Static)(nil)

// NewStatic creates an empty static resolver.
func NewStatic() *Static {
	return &Static{status: make(map[string]core.CredentialStatus)}
}

// Set records the status reported for a public key.
func (r *Static) Set(publicKey string, status core.CredentialStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status[publicKey] = status
}

// Resolve returns the recorded status, or an empty status for unknown keys.
func (r *Static) Resolve(ctx context.Context, publicKey string) (core.CredentialStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status[publicKey].Clone(), nil
}
