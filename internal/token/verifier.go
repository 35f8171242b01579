package token

import (
	"context"
	"fmt"
	"strconv"

	"github.com/finreach/trial-balance-api/internal/models"
)

// RevocationLedger is the read side of the revocation store consulted during
// admission.
type RevocationLedger interface {
	IsRevoked(ctx context.Context, tokenHash string) (bool, error)
}

// Identity is the authenticated record produced on admission. Role is empty
// for refresh identities; the auth service re-resolves it from the credential
// store before issuing a new access token.
type Identity struct {
	UserID   int64
	Role     models.UserRole
	RawToken string
	Claims   *Claims
}

// Verifier folds decode, claim validation, type binding and the revocation
// lookup into a single admission decision.
type Verifier struct {
	codec  *Codec
	ledger RevocationLedger
}

// NewVerifier constructs a verifier.
func NewVerifier(codec *Codec, ledger RevocationLedger) *Verifier {
	return &Verifier{codec: codec, ledger: ledger}
}

// Verify admits a raw token of the expected type or rejects it with the
// first failing check. The checks run in a fixed order: decode before the
// type check so an unverified type claim is never trusted, and the type
// check before the ledger lookup so structurally wrong tokens skip the
// ledger round trip entirely.
func (v *Verifier) Verify(ctx context.Context, raw, expectedType string) (*Identity, error) {
	claims, err := v.codec.Decode(raw)
	if err != nil {
		return nil, err
	}

	if claims.Type != expectedType {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrWrongType, claims.Type, expectedType)
	}

	revoked, err := v.ledger.IsRevoked(ctx, Hash(raw))
	if err != nil {
		return nil, fmt.Errorf("revocation lookup: %w", err)
	}
	if revoked {
		return nil, ErrRevoked
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: non-numeric subject", ErrMalformed)
	}

	identity := &Identity{UserID: userID, RawToken: raw, Claims: claims}
	if expectedType == TypeAccess {
		identity.Role = models.UserRole(claims.Role)
	}
	return identity, nil
}
