package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/finreach/trial-balance-api/internal/models"
	"github.com/finreach/trial-balance-api/internal/token"
	appErrors "github.com/finreach/trial-balance-api/pkg/errors"
	"github.com/finreach/trial-balance-api/pkg/password"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

type revocationLedger interface {
	Revoke(ctx context.Context, tokenHash string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenHash string) (bool, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

// AuthService orchestrates the login, refresh and logout flows over the
// token issuer/verifier, credential store and revocation ledger.
type AuthService struct {
	repo      authUserRepository
	ledger    revocationLedger
	issuer    *token.Issuer
	verifier  *token.Verifier
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, ledger revocationLedger, issuer *token.Issuer, verifier *token.Verifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{repo: repo, ledger: ledger, issuer: issuer, verifier: verifier, metrics: metrics, validator: validate, logger: logger}
}

// Login authenticates a user and returns an issued token pair. A missing
// account and a wrong password collapse into the same error so the endpoint
// cannot be used as a user-existence oracle.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if !password.Verify(req.Password, user.PasswordHash) {
		return nil, appErrors.ErrInvalidCredentials
	}

	accessToken, err := s.issuer.Access(user.ID, user.Role)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	refreshToken, err := s.issuer.Refresh(user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refresh token")
	}

	return &models.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		User: models.UserInfo{
			ID:       user.ID,
			Email:    user.Email,
			Username: user.Username,
			Role:     user.Role,
		},
	}, nil
}

// Refresh redeems a refresh token for a fresh access+refresh pair. The role
// is re-read from the credential store so the new access token reflects any
// role change since the refresh token was issued.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*models.RefreshResponse, error) {
	identity, err := s.verifier.Verify(ctx, rawToken, token.TypeRefresh)
	if err != nil {
		return nil, asAuthError(err)
	}

	user, err := s.repo.FindByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidToken
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	accessToken, err := s.issuer.Access(user.ID, user.Role)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	refreshToken, err := s.issuer.Refresh(user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refresh token")
	}

	return &models.RefreshResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	}, nil
}

// Logout revokes the presented access token by recording its hash with the
// token's own expiry. A ledger write failure surfaces as a server error:
// silently dropping a revocation would break the logout contract.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	identity, err := s.verifier.Verify(ctx, rawToken, token.TypeAccess)
	if err != nil {
		// an already-revoked or already-expired token leaves nothing to
		// revoke, which is what logout set out to achieve
		if errors.Is(err, token.ErrRevoked) || errors.Is(err, token.ErrExpired) {
			s.logger.Debug("logout of already-invalid token", zap.Error(err))
			return nil
		}
		return asAuthError(err)
	}

	expiresAt := identity.Claims.ExpiresAt.Time
	if err := s.ledger.Revoke(ctx, token.Hash(rawToken), expiresAt); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist revocation")
	}

	s.metrics.RecordRevocation()
	s.logger.Info("token revoked", zap.Int64("user_id", identity.UserID))
	return nil
}

// PruneRevocations removes ledger entries whose tokens have expired on their
// own. Entries past expiry are already ignored by lookups, so this only
// reclaims storage.
func (s *AuthService) PruneRevocations(ctx context.Context) (int64, error) {
	removed, err := s.ledger.DeleteExpired(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to prune revocations")
	}
	return removed, nil
}

// Verify exposes the token verifier to the HTTP middleware.
func (s *AuthService) Verify(ctx context.Context, rawToken, expectedType string) (*token.Identity, error) {
	identity, err := s.verifier.Verify(ctx, rawToken, expectedType)
	if err != nil {
		return nil, asAuthError(err)
	}
	return identity, nil
}

// asAuthError collapses every decode and policy failure into the one uniform
// 401 so callers cannot probe which sub-check rejected the token. Ledger
// lookup failures keep their server-error status.
func asAuthError(err error) error {
	switch {
	case errors.Is(err, token.ErrMalformed),
		errors.Is(err, token.ErrSignature),
		errors.Is(err, token.ErrExpired),
		errors.Is(err, token.ErrWrongType),
		errors.Is(err, token.ErrRevoked):
		return appErrors.Wrap(err, appErrors.ErrInvalidToken.Code, appErrors.ErrInvalidToken.Status, appErrors.ErrInvalidToken.Message)
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
}
