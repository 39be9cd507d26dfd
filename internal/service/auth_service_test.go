package service

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serc-portal/recruitment-api/internal/models"
	"github.com/serc-portal/recruitment-api/internal/repository"
	appErrors "github.com/serc-portal/recruitment-api/pkg/errors"
)

type memUsers struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
	logins  int
}

func newMemUsers() *memUsers {
	return &memUsers{byEmail: map[string]*models.User{}}
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *u
	return &clone, nil
}

func (m *memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byEmail {
		if u.ID == id {
			clone := *u
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memUsers) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byEmail[user.Email]; exists {
		return repository.ErrDuplicate
	}
	user.ID = uuid.NewString()
	clone := *user
	m.byEmail[user.Email] = &clone
	return nil
}

func (m *memUsers) UpdateLastLogin(_ context.Context, id string, ts time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logins++
	for _, u := range m.byEmail {
		if u.ID == id {
			u.LastLogin = &ts
		}
	}
	return nil
}

func newTestAuthService(repo *memUsers) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "recruitment-api",
		Audience:          []string{"recruitment-portal"},
	})
}

func TestRegisterLoginAndValidate(t *testing.T) {
	repo := newMemUsers()
	svc := newTestAuthService(repo)
	ctx := context.Background()

	info, err := svc.Register(ctx, models.RegisterRequest{Email: "Asha@Example.com", Mobile: "9876543210", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", info.Email)
	assert.Equal(t, models.RoleApplicant, info.Role)

	resp, err := svc.Login(ctx, models.LoginRequest{Email: "asha@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, 1, repo.logins)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	principal := claims.Principal()
	assert.Equal(t, info.ID, principal.ID)
	assert.Equal(t, models.RoleApplicant, principal.Role)

	me, err := svc.Me(ctx, principal)
	require.NoError(t, err)
	assert.Equal(t, "9876543210", me.Mobile)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestAuthService(newMemUsers())
	req := models.RegisterRequest{Email: "asha@example.com", Password: "s3cret-pass"}
	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.Register(context.Background(), models.RegisterRequest{Email: "not-an-email", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestLoginFailures(t *testing.T) {
	repo := newMemUsers()
	svc := newTestAuthService(repo)
	ctx := context.Background()
	_, err := svc.Register(ctx, models.RegisterRequest{Email: "asha@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "asha@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "nobody@example.com", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	repo.byEmail["asha@example.com"].Active = false
	_, err = svc.Login(ctx, models.LoginRequest{Email: "asha@example.com", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	repo := newMemUsers()
	other := NewAuthService(repo, nil, nil, AuthConfig{AccessTokenSecret: "other-secret", AccessTokenExpiry: time.Hour})
	_, err := other.Register(context.Background(), models.RegisterRequest{Email: "asha@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	resp, err := other.Login(context.Background(), models.LoginRequest{Email: "asha@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	_, err = newTestAuthService(repo).ValidateToken(resp.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
	_, err = newTestAuthService(repo).ValidateToken("garbage")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestSeedAdminIsIdempotent(t *testing.T) {
	repo := newMemUsers()
	svc := newTestAuthService(repo)
	ctx := context.Background()

	require.NoError(t, svc.SeedAdmin(ctx, "admin@serc.res.in", "admin-pass"))
	require.NoError(t, svc.SeedAdmin(ctx, "admin@serc.res.in", "changed-pass"))
	assert.Len(t, repo.byEmail, 1)

	resp, err := svc.Login(ctx, models.LoginRequest{Email: "admin@serc.res.in", Password: "admin-pass"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)

	require.NoError(t, svc.SeedAdmin(ctx, "", ""))
}
