package token

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/finreach/trial-balance-api/internal/models"
)

// Issuer builds access and refresh tokens with the correct claims and
// expiries. Stateless; safe for concurrent use.
type Issuer struct {
	codec      *Codec
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewIssuer constructs an issuer. accessTTL is expected to be much shorter
// than refreshTTL.
func NewIssuer(codec *Codec, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{codec: codec, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// Access issues a short-lived access token carrying the user's role.
func (i *Issuer) Access(userID int64, role models.UserRole) (string, error) {
	now := time.Now().UTC()
	return i.codec.Encode(&Claims{
		Role: string(role),
		Type: TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    ClaimIssuer,
			Audience:  jwt.ClaimStrings{ClaimAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
}

// Refresh issues a long-lived refresh token without a role claim.
func (i *Issuer) Refresh(userID int64) (string, error) {
	now := time.Now().UTC()
	return i.codec.Encode(&Claims{
		Type: TypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    ClaimIssuer,
			Audience:  jwt.ClaimStrings{ClaimAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(i.refreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
}
