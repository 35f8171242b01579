package models

import "time"

// RevokedToken is a revocation ledger entry. The hash is a SHA-256 digest of
// the raw bearer token; expires_at always equals the token's own expiry so
// that entries become moot exactly when the token itself would expire.
type RevokedToken struct {
	TokenHash string    `db:"token_hash" json:"token_hash"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
}
