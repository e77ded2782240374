package core

import "time"

// DIDMethodPrefix is prepended to a wallet address to form its decentralized
// identifier. The DID is a deterministic derivation of the public key and is
// never independently verified by the challenge service.
const DIDMethodPrefix = "did:solana:"

// DeriveDID returns the decentralized identifier for a wallet address.
func DeriveDID(publicKey string) string {
	return DIDMethodPrefix + publicKey
}

// CredentialFact is an immutable snapshot of a single credential attestation.
// Facts are superseded wholesale on refresh, never mutated in place.
type CredentialFact struct {
	Exists     bool           `json:"exists"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Count      int            `json:"count,omitempty"`
	Expiry     int64          `json:"expiry,omitempty"` // unix seconds
}

// Clone returns a deep copy of the fact.
func (f *CredentialFact) Clone() *CredentialFact {
	if f == nil {
		return nil
	}
	c := *f
	if f.Attributes != nil {
		c.Attributes = make(map[string]any, len(f.Attributes))
		for k, v := range f.Attributes {
			c.Attributes[k] = v
		}
	}
	return &c
}

// CredentialStatus holds the per-kind credential facts for a user.
// Twfido is the citizen-identity credential, Twland the property-ownership
// credential. A nil fact means the kind has not been reported yet.
type CredentialStatus struct {
	Twfido *CredentialFact `json:"twfido,omitempty"`
	Twland *CredentialFact `json:"twland,omitempty"`
}

// Merge returns the status with non-nil facts from patch superseding the
// receiver's facts.
func (s CredentialStatus) Merge(patch CredentialStatus) CredentialStatus {
	out := s
	if patch.Twfido != nil {
		out.Twfido = patch.Twfido
	}
	if patch.Twland != nil {
		out.Twland = patch.Twland
	}
	return out
}

// Clone returns a deep copy of the status.
func (s CredentialStatus) Clone() CredentialStatus {
	return CredentialStatus{
		Twfido: s.Twfido.Clone(),
		Twland: s.Twland.Clone(),
	}
}

// User is the authenticated wallet holder as reported by the challenge
// service. It is owned exclusively by the session store: replaced wholesale
// on login, patched field-by-field on credential refresh.
type User struct {
	PublicKey        string           `json:"publicKey"`
	DID              string           `json:"did,omitempty"`
	CredentialStatus CredentialStatus `json:"credentialStatus"`
	IsArbitrator     bool             `json:"isArbitrator,omitempty"`
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.CredentialStatus = u.CredentialStatus.Clone()
	return &c
}

// Session is the observable authentication state.
// Invariant: Authenticated implies User != nil and Token != "".
type Session struct {
	Token         string `json:"token"`
	User          *User  `json:"user"`
	Authenticated bool   `json:"isAuthenticated"`
}

// Envelope is the durable serialization of the session subset that survives
// process restarts. A missing or malformed envelope is treated as absent.
type Envelope struct {
	User          *User  `json:"user"`
	Token         string `json:"token"`
	Authenticated bool   `json:"isAuthenticated"`
}

// Valid reports whether the envelope satisfies the session invariant.
// Envelopes that fail this check are discarded during rehydration.
func (e Envelope) Valid() bool {
	if !e.Authenticated {
		return true
	}
	return e.User != nil && e.Token != ""
}

// TokenInfo is the identity bound to a verified session token.
type TokenInfo struct {
	PublicKey string
	ID        string
	ExpiresAt time.Time
}

// Challenge is a one-time sign-in message issued by the challenge service.
// The message is opaque to the client; it must be signed byte-for-byte and
// never reused across attempts.
type Challenge struct {
	Message      string `json:"message"`
	Instructions string `json:"instructions"`
}

// LoginResult is a successful signature-for-token exchange.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// VerifyResult reports whether a previously issued token is still valid.
type VerifyResult struct {
	Valid bool  `json:"valid"`
	User  *User `json:"user,omitempty"`
}
