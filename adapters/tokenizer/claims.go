package tokenizer

import "github.com/golang-jwt/jwt/v5"

// SessionClaims combines standard claims with the wallet address the session
// was issued for.
type SessionClaims struct {
	jwt.RegisteredClaims
	PublicKey string `json:"publicKey"`
}
