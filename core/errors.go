package core

import "errors"

var (
	// ErrUnsupportedWallet is returned when the wallet capability cannot sign
	// messages. Fatal for the attempt; the user must switch wallets.
	ErrUnsupportedWallet = errors.New("wallet does not support message signing")

	// ErrWalletNotConnected is returned when an authentication step requires a
	// connected wallet and none is present.
	ErrWalletNotConnected = errors.New("wallet not connected")

	// ErrAuthRejected is returned when a signature or message is rejected by
	// the challenge service, or the user declined signing. Recoverable.
	ErrAuthRejected = errors.New("authentication rejected")

	// ErrNetwork is returned on transport failure. Recoverable, retry later.
	ErrNetwork = errors.New("network error")

	// ErrService is returned on a non-success response from the challenge
	// service. Recoverable, retry later.
	ErrService = errors.New("service error")

	// ErrStaleToken is returned when a previously stored token no longer
	// verifies. The session is cleared silently.
	ErrStaleToken = errors.New("stored token is no longer valid")

	// ErrInvalidPublicKey is returned when an address is not a valid ed25519
	// public key encoding.
	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrInvalidSignature is returned when a signature does not verify against
	// the challenge message and public key.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrInvalidChallenge is returned when a login message is malformed or
	// bound to a different public key.
	ErrInvalidChallenge = errors.New("invalid challenge message")

	// ErrMessageExpired is returned when a login message is outside its
	// validity window.
	ErrMessageExpired = errors.New("challenge message expired")

	// ErrChallengeConsumed is returned when a login message has already been
	// used. Challenges are strictly single-use.
	ErrChallengeConsumed = errors.New("challenge already consumed")

	// ErrInvalidToken is returned when a session token fails verification.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenRevoked is returned when a session token has been revoked by an
	// explicit logout.
	ErrTokenRevoked = errors.New("token has been revoked")
)
