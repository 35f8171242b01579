package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finreach/trial-balance-api/internal/models"
	"github.com/finreach/trial-balance-api/internal/token"
	appErrors "github.com/finreach/trial-balance-api/pkg/errors"
	"github.com/finreach/trial-balance-api/pkg/password"
)

type mockUserRepo struct {
	users map[int64]*models.User
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

type mockLedger struct {
	mu        sync.Mutex
	entries   map[string]time.Time
	revokeErr error
	lookupErr error
	revokes   int
}

func newMockLedger() *mockLedger {
	return &mockLedger{entries: make(map[string]time.Time)}
}

func (m *mockLedger) Revoke(ctx context.Context, hash string, expiresAt time.Time) error {
	if m.revokeErr != nil {
		return m.revokeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revokes++
	if _, ok := m.entries[hash]; !ok {
		m.entries[hash] = expiresAt
	}
	return nil
}

func (m *mockLedger) IsRevoked(ctx context.Context, hash string) (bool, error) {
	if m.lookupErr != nil {
		return false, m.lookupErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.entries[hash]
	return ok && exp.After(time.Now().UTC()), nil
}

func (m *mockLedger) DeleteExpired(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for hash, exp := range m.entries {
		if !exp.After(time.Now().UTC()) {
			delete(m.entries, hash)
			removed++
		}
	}
	return removed, nil
}

func newTestAuthService(t *testing.T, repo *mockUserRepo, ledger *mockLedger) *AuthService {
	t.Helper()
	codec := token.NewCodec("test-secret")
	issuer := token.NewIssuer(codec, 30*time.Minute, 7*24*time.Hour)
	verifier := token.NewVerifier(codec, ledger)
	return NewAuthService(repo, ledger, issuer, verifier, nil, validator.New(), zap.NewNop())
}

func testUser(t *testing.T, id int64, email string, role models.UserRole, plain string) *models.User {
	t.Helper()
	digest, err := password.Hash(plain)
	require.NoError(t, err)
	return &models.User{ID: id, Email: email, Username: "user42", PasswordHash: digest, Role: role}
}

func TestLoginSuccess(t *testing.T) {
	repo := &mockUserRepo{users: map[int64]*models.User{
		42: testUser(t, 42, "user@example.com", models.RoleUser, "password"),
	}}
	svc := newTestAuthService(t, repo, newMockLedger())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, "bearer", res.TokenType)
	assert.Equal(t, int64(42), res.User.ID)
	assert.Equal(t, models.RoleUser, res.User.Role)

	// the issued access token is immediately admissible
	identity, err := svc.Verify(context.Background(), res.AccessToken, token.TypeAccess)
	require.NoError(t, err)
	assert.Equal(t, int64(42), identity.UserID)
}

func TestLoginUniformFailure(t *testing.T) {
	repo := &mockUserRepo{users: map[int64]*models.User{
		42: testUser(t, 42, "user@example.com", models.RoleUser, "password"),
	}}
	svc := newTestAuthService(t, repo, newMockLedger())

	// unknown account and wrong password yield the identical error
	_, unknownErr := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.com", Password: "password"})
	_, wrongErr := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "nope"})

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.Equal(t, appErrors.FromError(unknownErr).Code, appErrors.FromError(wrongErr).Code)
	assert.Equal(t, appErrors.FromError(unknownErr).Message, appErrors.FromError(wrongErr).Message)
	assert.Equal(t, 403, appErrors.FromError(wrongErr).Status)
}

func TestLoginValidation(t *testing.T) {
	svc := newTestAuthService(t, &mockUserRepo{}, newMockLedger())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRefreshRotatesPairWithCurrentRole(t *testing.T) {
	user := testUser(t, 42, "user@example.com", models.RoleUser, "password")
	repo := &mockUserRepo{users: map[int64]*models.User{42: user}}
	svc := newTestAuthService(t, repo, newMockLedger())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password"})
	require.NoError(t, err)

	// role change after issuance must be reflected by the refreshed pair
	user.Role = models.RoleAdmin

	refreshed, err := svc.Refresh(context.Background(), res.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "bearer", refreshed.TokenType)

	identity, err := svc.Verify(context.Background(), refreshed.AccessToken, token.TypeAccess)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, identity.Role)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	repo := &mockUserRepo{users: map[int64]*models.User{
		42: testUser(t, 42, "user@example.com", models.RoleUser, "password"),
	}}
	svc := newTestAuthService(t, repo, newMockLedger())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password"})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), res.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidToken.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 401, appErrors.FromError(err).Status)
}

func TestRefreshDeletedUser(t *testing.T) {
	repo := &mockUserRepo{users: map[int64]*models.User{
		42: testUser(t, 42, "user@example.com", models.RoleUser, "password"),
	}}
	svc := newTestAuthService(t, repo, newMockLedger())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password"})
	require.NoError(t, err)

	delete(repo.users, 42)

	_, err = svc.Refresh(context.Background(), res.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, 401, appErrors.FromError(err).Status)
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	repo := &mockUserRepo{users: map[int64]*models.User{
		42: testUser(t, 42, "user@example.com", models.RoleUser, "password"),
	}}
	ledger := newMockLedger()
	svc := newTestAuthService(t, repo, ledger)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), res.AccessToken))

	// ledger entry carries the token's own expiry
	hash := token.Hash(res.AccessToken)
	exp, ok := ledger.entries[hash]
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), exp, 5*time.Second)

	// subsequent resource access is rejected
	_, err = svc.Verify(context.Background(), res.AccessToken, token.TypeAccess)
	require.Error(t, err)
	assert.Equal(t, 401, appErrors.FromError(err).Status)

	// the refresh token survives the access token's revocation
	_, err = svc.Refresh(context.Background(), res.RefreshToken)
	assert.NoError(t, err)
}

func TestLogoutIdempotent(t *testing.T) {
	repo := &mockUserRepo{users: map[int64]*models.User{
		42: testUser(t, 42, "user@example.com", models.RoleUser, "password"),
	}}
	ledger := newMockLedger()
	svc := newTestAuthService(t, repo, ledger)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), res.AccessToken))

	// the second logout finds the token already revoked; nothing left to
	// revoke, so it reports success without another ledger write
	require.NoError(t, svc.Logout(context.Background(), res.AccessToken))
	assert.Equal(t, 1, ledger.revokes)

	// the token stays rejected for resource access
	_, err = svc.Verify(context.Background(), res.AccessToken, token.TypeAccess)
	require.Error(t, err)
	assert.Equal(t, 401, appErrors.FromError(err).Status)
}

func TestLogoutLedgerWriteFailureIsServerError(t *testing.T) {
	repo := &mockUserRepo{users: map[int64]*models.User{
		42: testUser(t, 42, "user@example.com", models.RoleUser, "password"),
	}}
	ledger := newMockLedger()
	svc := newTestAuthService(t, repo, ledger)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password"})
	require.NoError(t, err)

	ledger.revokeErr = errors.New("disk full")

	err = svc.Logout(context.Background(), res.AccessToken)
	require.Error(t, err)
	assert.Equal(t, 500, appErrors.FromError(err).Status)
}

func TestPruneRevocationsDropsOnlyExpiredEntries(t *testing.T) {
	ledger := newMockLedger()
	ledger.entries["stale"] = time.Now().UTC().Add(-time.Minute)
	ledger.entries["live"] = time.Now().UTC().Add(time.Hour)
	svc := newTestAuthService(t, &mockUserRepo{}, ledger)

	removed, err := svc.PruneRevocations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, staleKept := ledger.entries["stale"]
	_, liveKept := ledger.entries["live"]
	assert.False(t, staleKept)
	assert.True(t, liveKept)
}

func TestLogoutRejectsRefreshToken(t *testing.T) {
	repo := &mockUserRepo{users: map[int64]*models.User{
		42: testUser(t, 42, "user@example.com", models.RoleUser, "password"),
	}}
	svc := newTestAuthService(t, repo, newMockLedger())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password"})
	require.NoError(t, err)

	err = svc.Logout(context.Background(), res.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, 401, appErrors.FromError(err).Status)
}
