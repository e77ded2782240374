// Package service implements the server side of the challenge-response
// authentication boundary.
package service

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mr-tron/base58"

	"github.com/silentoaq/zuvi-auth/core"
	"github.com/silentoaq/zuvi-auth/ports"
)

const (
	// MessageAction identifies login messages issued by this service.
	MessageAction = "Connect to Zuvi"

	// Instructions accompanies every issued challenge.
	Instructions = "Please sign this message with your wallet"

	// DefaultChallengeTTL is the validity window of a login message. The
	// message timestamp and the stored nonce both honor it.
	DefaultChallengeTTL = 5 * time.Minute
)

// LoginMessage is the human-readable sign-in challenge. The client treats it
// as opaque bytes; only this service parses it.
type LoginMessage struct {
	Action    string `json:"action"`
	PublicKey string `json:"publicKey"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
	Nonce     string `json:"nonce"`
}

// AuthService issues single-use challenges, verifies wallet signatures, and
// manages session tokens. Every challenge is consumed on login; a message is
// never accepted twice even inside its validity window.
type AuthService struct {
	tokenizer  ports.Tokenizer
	challenges ports.ChallengeStore
	revocation ports.RevocationStore
	resolver   ports.CredentialResolver
	events     ports.EventPublisher
	log        *slog.Logger

	challengeTTL time.Duration
	arbitrators  map[string]bool
	now          func() time.Time
}

// Option configures an AuthService.
type Option func(*AuthService)

// WithChallengeTTL overrides the login message validity window.
func WithChallengeTTL(d time.Duration) Option {
	return func(s *AuthService) { s.challengeTTL = d }
}

// WithClock overrides the service clock.
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

// NewAuthService creates the service. events may be nil when no publisher is
// configured; arbitrators lists the wallet addresses with dispute-resolution
// privileges.
func NewAuthService(
	tokenizer ports.Tokenizer,
	challenges ports.ChallengeStore,
	revocation ports.RevocationStore,
	resolver ports.CredentialResolver,
	events ports.EventPublisher,
	arbitrators []string,
	logger *slog.Logger,
	opts ...Option,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	arb := make(map[string]bool, len(arbitrators))
	for _, a := range arbitrators {
		arb[a] = true
	}
	s := &AuthService{
		tokenizer:    tokenizer,
		challenges:   challenges,
		revocation:   revocation,
		resolver:     resolver,
		events:       events,
		log:          logger,
		challengeTTL: DefaultChallengeTTL,
		arbitrators:  arb,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateChallenge issues a fresh single-use login message bound to the public
// key. The nonce is recorded so login can enforce one use.
func (s *AuthService) CreateChallenge(ctx context.Context, publicKey string) (core.Challenge, error) {
	if _, err := decodePublicKey(publicKey); err != nil {
		return core.Challenge{}, err
	}

	nonceBytes := make([]byte, 16)
	if _, err := rand.Read(nonceBytes); err != nil {
		return core.Challenge{}, fmt.Errorf("failed to generate nonce: %w", err)
	}
	nonce := hex.EncodeToString(nonceBytes)

	msg := LoginMessage{
		Action:    MessageAction,
		PublicKey: publicKey,
		Timestamp: s.now().UnixMilli(),
		Nonce:     nonce,
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return core.Challenge{}, fmt.Errorf("failed to encode message: %w", err)
	}

	if err := s.challenges.Put(ctx, nonce, publicKey, s.challengeTTL); err != nil {
		return core.Challenge{}, fmt.Errorf("failed to record challenge: %w", err)
	}

	return core.Challenge{Message: string(raw), Instructions: Instructions}, nil
}

// Login verifies the signed challenge and exchanges it for a session token.
// The DID is accepted as a deterministic derivation of the public key and is
// not independently verified beyond the signature check.
func (s *AuthService) Login(ctx context.Context, publicKey, did, signature, message string) (core.LoginResult, error) {
	pub, err := decodePublicKey(publicKey)
	if err != nil {
		return core.LoginResult{}, err
	}

	sig, err := base58.Decode(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return core.LoginResult{}, core.ErrInvalidSignature
	}
	if !ed25519.Verify(pub, []byte(message), sig) {
		return core.LoginResult{}, core.ErrInvalidSignature
	}

	var msg LoginMessage
	if err := json.Unmarshal([]byte(message), &msg); err != nil {
		return core.LoginResult{}, core.ErrInvalidChallenge
	}
	if msg.Action != MessageAction || msg.PublicKey != publicKey {
		return core.LoginResult{}, core.ErrInvalidChallenge
	}

	issued := time.UnixMilli(msg.Timestamp)
	age := s.now().Sub(issued)
	if age < -s.challengeTTL || age > s.challengeTTL {
		return core.LoginResult{}, core.ErrMessageExpired
	}

	owner, ok, err := s.challenges.Consume(ctx, msg.Nonce)
	if err != nil {
		return core.LoginResult{}, fmt.Errorf("failed to consume challenge: %w", err)
	}
	if !ok {
		return core.LoginResult{}, core.ErrChallengeConsumed
	}
	if owner != publicKey {
		return core.LoginResult{}, core.ErrInvalidChallenge
	}

	// Credential status is best-effort at login; an unreachable issuer must
	// not block authentication.
	status, err := s.resolver.Resolve(ctx, publicKey)
	if err != nil {
		s.log.Warn("credential status unavailable", "publicKey", publicKey, "error", err)
		status = core.CredentialStatus{}
	}

	token, err := s.tokenizer.Issue(publicKey)
	if err != nil {
		return core.LoginResult{}, fmt.Errorf("failed to issue token: %w", err)
	}

	if did == "" {
		did = core.DeriveDID(publicKey)
	}
	user := core.User{
		PublicKey:        publicKey,
		DID:              did,
		CredentialStatus: status,
		IsArbitrator:     s.arbitrators[publicKey],
	}

	if s.events != nil {
		info, err := s.tokenizer.Parse(token)
		if err == nil {
			if err := s.events.PublishLogin(ctx, publicKey, info.ID); err != nil {
				s.log.Warn("failed to publish login event", "error", err)
			}
		}
	}

	return core.LoginResult{Token: token, User: user}, nil
}

// Authenticate verifies a bearer token and returns the bound identity. Used
// by the transport middleware for protected endpoints.
func (s *AuthService) Authenticate(ctx context.Context, token string) (core.TokenInfo, error) {
	info, err := s.tokenizer.Parse(token)
	if err != nil {
		return core.TokenInfo{}, err
	}
	if info.ID != "" {
		revoked, err := s.revocation.IsRevoked(ctx, info.ID)
		if err != nil {
			return core.TokenInfo{}, fmt.Errorf("failed to check token revocation: %w", err)
		}
		if revoked {
			return core.TokenInfo{}, core.ErrTokenRevoked
		}
	}
	return info, nil
}

// VerifyToken is the idempotent verify endpoint behavior: a bad token is not
// an error, it is a valid=false result. On success the user snapshot carries
// a freshly resolved credential status.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (core.VerifyResult, error) {
	info, err := s.Authenticate(ctx, token)
	if err != nil {
		return core.VerifyResult{Valid: false}, nil
	}

	status, err := s.resolver.Resolve(ctx, info.PublicKey)
	if err != nil {
		s.log.Warn("credential status unavailable", "publicKey", info.PublicKey, "error", err)
		status = core.CredentialStatus{}
	}

	return core.VerifyResult{
		Valid: true,
		User: &core.User{
			PublicKey:        info.PublicKey,
			DID:              core.DeriveDID(info.PublicKey),
			CredentialStatus: status,
			IsArbitrator:     s.arbitrators[info.PublicKey],
		},
	}, nil
}

// CredentialStatus returns the current credential status for a public key.
func (s *AuthService) CredentialStatus(ctx context.Context, publicKey string) (core.CredentialStatus, error) {
	status, err := s.resolver.Resolve(ctx, publicKey)
	if err != nil {
		return core.CredentialStatus{}, fmt.Errorf("failed to resolve credential status: %w", err)
	}
	return status, nil
}

// Logout revokes the session token for the remainder of its lifetime and
// publishes a logout event. Revoking an already-invalid token fails with the
// parse error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	info, err := s.tokenizer.Parse(token)
	if err != nil {
		return err
	}

	ttl := time.Until(info.ExpiresAt)
	if ttl <= 0 {
		// Keep a short revocation record anyway so clock skew cannot revive
		// the token.
		ttl = time.Hour
	}
	if err := s.revocation.Revoke(ctx, info.ID, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	if s.events != nil {
		if err := s.events.PublishLogout(ctx, info.PublicKey, info.ID); err != nil {
			s.log.Warn("failed to publish logout event", "error", err)
		}
	}
	return nil
}

// decodePublicKey decodes a base58 address into an ed25519 public key.
func decodePublicKey(publicKey string) (ed25519.PublicKey, error) {
	raw, err := base58.Decode(publicKey)
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return nil, core.ErrInvalidPublicKey
	}
	return ed25519.PublicKey(raw), nil
}
