package token

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finreach/trial-balance-api/internal/models"
)

type memoryLedger struct {
	mu      sync.Mutex
	entries map[string]time.Time
	err     error
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{entries: make(map[string]time.Time)}
}

func (m *memoryLedger) Revoke(ctx context.Context, hash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[hash]; !ok {
		m.entries[hash] = expiresAt
	}
	return nil
}

func (m *memoryLedger) IsRevoked(ctx context.Context, hash string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.entries[hash]
	return ok && exp.After(time.Now().UTC()), nil
}

func newTestVerifier(ledger RevocationLedger) (*Codec, *Issuer, *Verifier) {
	codec := NewCodec("test-secret")
	issuer := NewIssuer(codec, 30*time.Minute, 7*24*time.Hour)
	return codec, issuer, NewVerifier(codec, ledger)
}

func encodeWithExpiry(t *testing.T, codec *Codec, typ string, exp time.Time) string {
	t.Helper()
	raw, err := codec.Encode(&Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			Issuer:    ClaimIssuer,
			Audience:  jwt.ClaimStrings{ClaimAudience},
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	require.NoError(t, err)
	return raw
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	codec := NewCodec("test-secret")
	issuer := NewIssuer(codec, 30*time.Minute, 7*24*time.Hour)

	raw, err := issuer.Access(42, models.RoleUser)
	require.NoError(t, err)

	claims, err := codec.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, TypeAccess, claims.Type)
	assert.Equal(t, ClaimIssuer, claims.Issuer)
	assert.Contains(t, claims.Audience, ClaimAudience)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestRefreshTokenHasNoRole(t *testing.T) {
	codec := NewCodec("test-secret")
	issuer := NewIssuer(codec, 30*time.Minute, 7*24*time.Hour)

	raw, err := issuer.Refresh(42)
	require.NoError(t, err)

	claims, err := codec.Decode(raw)
	require.NoError(t, err)
	assert.Empty(t, claims.Role)
	assert.Equal(t, TypeRefresh, claims.Type)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestDecodeBitFlippedSignature(t *testing.T) {
	codec := NewCodec("test-secret")
	issuer := NewIssuer(codec, 30*time.Minute, 7*24*time.Hour)

	raw, err := issuer.Access(42, models.RoleUser)
	require.NoError(t, err)

	// flip one character of the signature segment
	flipped := raw[:len(raw)-1]
	if strings.HasSuffix(raw, "A") {
		flipped += "B"
	} else {
		flipped += "A"
	}

	_, err = codec.Decode(flipped)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSignature)
}

func TestDecodeWrongSecret(t *testing.T) {
	issuer := NewIssuer(NewCodec("test-secret"), 30*time.Minute, 7*24*time.Hour)
	raw, err := issuer.Access(42, models.RoleUser)
	require.NoError(t, err)

	_, err = NewCodec("other-secret").Decode(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSignature)
}

func TestDecodeExpiryBoundary(t *testing.T) {
	codec := NewCodec("test-secret")

	past := encodeWithExpiry(t, codec, TypeAccess, time.Now().Add(-1*time.Second))
	_, err := codec.Decode(past)
	assert.ErrorIs(t, err, ErrExpired)

	future := encodeWithExpiry(t, codec, TypeAccess, time.Now().Add(5*time.Second))
	_, err = codec.Decode(future)
	assert.NoError(t, err)
}

func TestDecodeWrongIssuerAudience(t *testing.T) {
	codec := NewCodec("test-secret")

	raw, err := codec.Encode(&Claims{
		Type: TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			Issuer:    "someone-else",
			Audience:  jwt.ClaimStrings{ClaimAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	require.NoError(t, err)
	_, err = codec.Decode(raw)
	assert.ErrorIs(t, err, ErrMalformed)

	raw, err = codec.Encode(&Claims{
		Type: TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			Issuer:    ClaimIssuer,
			Audience:  jwt.ClaimStrings{"web-app"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	require.NoError(t, err)
	_, err = codec.Decode(raw)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeMissingExpiry(t *testing.T) {
	codec := NewCodec("test-secret")

	raw, err := codec.Encode(&Claims{
		Type: TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  "42",
			Issuer:   ClaimIssuer,
			Audience: jwt.ClaimStrings{ClaimAudience},
		},
	})
	require.NoError(t, err)

	_, err = codec.Decode(raw)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestVerifyAdmitsAccessToken(t *testing.T) {
	ledger := newMemoryLedger()
	_, issuer, verifier := newTestVerifier(ledger)

	raw, err := issuer.Access(42, models.RoleUser)
	require.NoError(t, err)

	identity, err := verifier.Verify(context.Background(), raw, TypeAccess)
	require.NoError(t, err)
	assert.Equal(t, int64(42), identity.UserID)
	assert.Equal(t, models.RoleUser, identity.Role)
	assert.Equal(t, raw, identity.RawToken)
	assert.NotNil(t, identity.Claims)
}

func TestVerifyCrossTypeRejection(t *testing.T) {
	ledger := newMemoryLedger()
	_, issuer, verifier := newTestVerifier(ledger)

	refresh, err := issuer.Refresh(42)
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), refresh, TypeAccess)
	assert.ErrorIs(t, err, ErrWrongType)

	access, err := issuer.Access(42, models.RoleUser)
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), access, TypeRefresh)
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestVerifyRevokedToken(t *testing.T) {
	ledger := newMemoryLedger()
	_, issuer, verifier := newTestVerifier(ledger)

	raw, err := issuer.Access(42, models.RoleUser)
	require.NoError(t, err)

	identity, err := verifier.Verify(context.Background(), raw, TypeAccess)
	require.NoError(t, err)

	require.NoError(t, ledger.Revoke(context.Background(), Hash(raw), identity.Claims.ExpiresAt.Time))

	_, err = verifier.Verify(context.Background(), raw, TypeAccess)
	assert.ErrorIs(t, err, ErrRevoked)
}

func TestVerifyExpiredRevocationEntryIgnored(t *testing.T) {
	ledger := newMemoryLedger()
	_, issuer, verifier := newTestVerifier(ledger)

	raw, err := issuer.Access(42, models.RoleUser)
	require.NoError(t, err)

	// entry already past its expiry must not reject the token
	require.NoError(t, ledger.Revoke(context.Background(), Hash(raw), time.Now().Add(-time.Minute)))

	_, err = verifier.Verify(context.Background(), raw, TypeAccess)
	assert.NoError(t, err)
}

func TestVerifySkipsLedgerOnWrongType(t *testing.T) {
	ledger := newMemoryLedger()
	ledger.err = errors.New("ledger down")
	_, issuer, verifier := newTestVerifier(ledger)

	refresh, err := issuer.Refresh(42)
	require.NoError(t, err)

	// wrong type short-circuits before the ledger is consulted
	_, err = verifier.Verify(context.Background(), refresh, TypeAccess)
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestVerifyLedgerFailureSurfaces(t *testing.T) {
	ledger := newMemoryLedger()
	ledger.err = errors.New("ledger down")
	_, issuer, verifier := newTestVerifier(ledger)

	raw, err := issuer.Access(42, models.RoleUser)
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), raw, TypeAccess)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRevoked)
}

func TestHashDeterministicAndSecretIndependent(t *testing.T) {
	assert.Equal(t, Hash("abc"), Hash("abc"))
	assert.NotEqual(t, Hash("abc"), Hash("abd"))
	assert.Len(t, Hash("abc"), 64)
}
