package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// RevocationRepository persists revoked token hashes. Entries are never
// mutated; lookups skip entries past their expiry, and a background sweep
// deletes them lazily.
type RevocationRepository struct {
	db *sqlx.DB
}

// NewRevocationRepository creates a new instance of RevocationRepository.
func NewRevocationRepository(db *sqlx.DB) *RevocationRepository {
	return &RevocationRepository{db: db}
}

// Revoke records a token hash with the token's own expiry. Revoking an
// already-revoked hash is a no-op success, so duplicate logout calls cannot
// fail.
func (r *RevocationRepository) Revoke(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	const query = `INSERT INTO revoked_tokens (token_hash, expires_at) VALUES ($1, $2) ON CONFLICT (token_hash) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, tokenHash, expiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether a non-expired revocation entry exists for the
// hash.
func (r *RevocationRepository) IsRevoked(ctx context.Context, tokenHash string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_hash = $1 AND expires_at > NOW())`
	var revoked bool
	if err := r.db.GetContext(ctx, &revoked, query, tokenHash); err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}

// DeleteExpired prunes entries whose expiry has passed. Entries past their
// token's expiry are moot: the token would fail the expiry check anyway.
func (r *RevocationRepository) DeleteExpired(ctx context.Context) (int64, error) {
	const query = `DELETE FROM revoked_tokens WHERE expires_at <= NOW()`
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("delete expired revocations: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted revocations: %w", err)
	}
	return affected, nil
}
