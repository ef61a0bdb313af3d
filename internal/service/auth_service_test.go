package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/ojt-portal-api/internal/models"
)

type mockAuthRepo struct {
	users         map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	revokedAll    []string
	revoked       []string
	passwords     map[string]string
	audits        []*models.AuditLog
}

func newMockAuthRepo(users ...*models.User) *mockAuthRepo {
	repo := &mockAuthRepo{
		users:         make(map[string]*models.User),
		refreshTokens: make(map[string]*models.RefreshToken),
		passwords:     make(map[string]string),
	}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	m.passwords[id] = passwordHash
	if u, ok := m.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedAll = append(m.revokedAll, userID)
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := m.refreshTokens[token]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	m.revoked = append(m.revoked, id)
	for _, t := range m.refreshTokens {
		if t.ID == id {
			t.Revoked = true
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.audits = append(m.audits, log)
	return nil
}

func authConfigFixture() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "ojt-portal",
	}
}

func userFixture(t *testing.T) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	program := "p1"
	return &models.User{
		ID:           "u1",
		Email:        "student@example.com",
		PasswordHash: string(hash),
		FullName:     "Test Student",
		Role:         models.RoleStudent,
		ProgramID:    &program,
		Active:       true,
	}
}

func TestAuthServiceLogin(t *testing.T) {
	repo := newMockAuthRepo(userFixture(t))
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), authConfigFixture())

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "student@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "u1", resp.User.ID)
	require.NotNil(t, resp.User.ProgramID)
	assert.Equal(t, "p1", *resp.User.ProgramID)
	require.Len(t, repo.audits, 1)
	assert.Equal(t, models.AuditActionLogin, repo.audits[0].Action)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
	require.NotNil(t, claims.ProgramID)
	assert.Equal(t, "p1", *claims.ProgramID)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := newMockAuthRepo(userFixture(t))
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), authConfigFixture())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "student@example.com", Password: "wrong"})
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, err))
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	repo := newMockAuthRepo()
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), authConfigFixture())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, err))
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	user := userFixture(t)
	user.Active = false
	repo := newMockAuthRepo(user)
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), authConfigFixture())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "student@example.com", Password: "secret123"})
	assert.Equal(t, "ACCOUNT_INACTIVE", errorCode(t, err))
}

func TestAuthServiceRefreshTokenRotation(t *testing.T) {
	repo := newMockAuthRepo(userFixture(t))
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), authConfigFixture())

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "student@example.com", Password: "secret123"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The used token is revoked and cannot be replayed.
	assert.NotEmpty(t, repo.revoked)
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, err))
}

func TestAuthServiceRefreshTokenExpired(t *testing.T) {
	repo := newMockAuthRepo(userFixture(t))
	repo.refreshTokens["stale"] = &models.RefreshToken{
		ID:        "rt-1",
		UserID:    "u1",
		Token:     "stale",
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), authConfigFixture())

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "stale"})
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, err))
}

func TestAuthServiceChangePassword(t *testing.T) {
	repo := newMockAuthRepo(userFixture(t))
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), authConfigFixture())

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{OldPassword: "secret123", NewPassword: "newsecret"})
	require.NoError(t, err)
	assert.Contains(t, repo.revokedAll, "u1")
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.passwords["u1"]), []byte("newsecret")))
}

func TestAuthServiceChangePasswordWrongOld(t *testing.T) {
	repo := newMockAuthRepo(userFixture(t))
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), authConfigFixture())

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newsecret"})
	assert.Equal(t, "FORBIDDEN", errorCode(t, err))
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService(newMockAuthRepo(), validator.New(), zap.NewNop(), authConfigFixture())

	_, err := svc.ValidateToken("not-a-token")
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, err))
}
