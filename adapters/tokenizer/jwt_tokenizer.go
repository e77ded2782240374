// Package tokenizer mints and verifies the HS256 session tokens issued after
// a successful challenge-response login.
package tokenizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/silentoaq/zuvi-auth/core"
	"github.com/silentoaq/zuvi-auth/ports"
)

const (
	// AudienceSession marks tokens issued by this tokenizer.
	AudienceSession = "zuvi:session"

	// DefaultSessionTTL is the session token lifetime.
	DefaultSessionTTL = 7 * 24 * time.Hour
)

// JWTTokenizer implements ports.Tokenizer with HMAC-signed JWTs. Each token
// carries a unique ID so an explicit logout can revoke it before expiry.
type JWTTokenizer struct {
	secret []byte
	ttl    time.Duration
}

var _ ports.Tokenizer = (*JWTTokenizer)(nil)

// NewJWTTokenizer creates a tokenizer signing with secret.
func NewJWTTokenizer(secret []byte) *JWTTokenizer {
	return &JWTTokenizer{secret: secret, ttl: DefaultSessionTTL}
}

// NewJWTTokenizerTTL creates a tokenizer with a caller-chosen token lifetime.
func NewJWTTokenizerTTL(secret []byte, ttl time.Duration) *JWTTokenizer {
	return &JWTTokenizer{secret: secret, ttl: ttl}
}

// Issue mints a session token for the public key.
func (t *JWTTokenizer) Issue(publicKey string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   publicKey,
			ID:        uuid.New().String(),
			Audience:  jwt.ClaimStrings{AudienceSession},
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		PublicKey: publicKey,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Parse verifies a session token and returns its bound identity. Any
// verification problem, including expiry, reports core.ErrInvalidToken.
func (t *JWTTokenizer) Parse(tokenStr string) (core.TokenInfo, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithAudience(AudienceSession))
	if err != nil {
		return core.TokenInfo{}, fmt.Errorf("%w: %v", core.ErrInvalidToken, err)
	}
	if !token.Valid {
		return core.TokenInfo{}, core.ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return core.TokenInfo{}, errors.New("invalid claims type")
	}
	if claims.PublicKey == "" {
		return core.TokenInfo{}, fmt.Errorf("%w: missing publicKey claim", core.ErrInvalidToken)
	}

	info := core.TokenInfo{
		PublicKey: claims.PublicKey,
		ID:        claims.ID,
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}
