package token

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Fixed claim constants binding tokens to this service and its client class.
const (
	ClaimIssuer   = "trial-balance-api"
	ClaimAudience = "mobile-app"

	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Decode and admission failure kinds. The HTTP layer collapses all of them
// into one uniform 401 message.
var (
	ErrMalformed = errors.New("token malformed")
	ErrSignature = errors.New("token signature invalid")
	ErrExpired   = errors.New("token expired")
	ErrWrongType = errors.New("token type mismatch")
	ErrRevoked   = errors.New("token revoked")
)

// Claims is the signed token payload. Refresh tokens carry no role claim:
// the role is re-resolved from the credential store when the token is
// redeemed, so a stale refresh token cannot assert a role directly.
type Claims struct {
	Role string `json:"role,omitempty"`
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// Hash returns the SHA-256 hex digest of a raw token string. It is
// independent of the signing secret; the revocation ledger stores this
// digest instead of the bearer-usable token.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
