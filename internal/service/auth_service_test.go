package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/soportek/helpdesk-api/internal/config"
	"github.com/soportek/helpdesk-api/internal/domain"
	apperrors "github.com/soportek/helpdesk-api/pkg/util"
)

// fakeUserRepo is an in-memory UserRepository mirroring the SQL semantics the
// services rely on, pgx.ErrNoRows included.
type fakeUserRepo struct {
	users   map[string]*domain.User
	nextID  int
	related int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	f.nextID++
	user.ID = "u" + strconv.Itoa(f.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	stored, ok := f.users[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Username = user.Username
	stored.Name = user.Name
	stored.Email = user.Email
	stored.Role = user.Role
	stored.Active = user.Active
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *user
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			cp := *user
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) List(_ context.Context) ([]domain.User, error) {
	var out []domain.User
	for _, user := range f.users {
		out = append(out, *user)
	}
	return out, nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	user, ok := f.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.PasswordHash = passwordHash
	return nil
}

func (f *fakeUserRepo) SetTwoFactor(_ context.Context, id string, state domain.TwoFactorState, secret string) error {
	user, ok := f.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.TwoFactorState = state
	user.TwoFactorSecret = secret
	return nil
}

func (f *fakeUserRepo) SetResetToken(_ context.Context, id, tokenHash string, expiresAt time.Time) error {
	user, ok := f.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.ResetTokenHash = &tokenHash
	user.ResetExpiresAt = &expiresAt
	return nil
}

func (f *fakeUserRepo) ConsumeResetToken(_ context.Context, tokenHash, newPasswordHash string) error {
	for _, user := range f.users {
		if user.ResetTokenHash == nil || *user.ResetTokenHash != tokenHash {
			continue
		}
		if user.ResetExpiresAt == nil || !user.ResetExpiresAt.After(time.Now()) {
			continue
		}
		user.PasswordHash = newPasswordHash
		user.ResetTokenHash = nil
		user.ResetExpiresAt = nil
		return nil
	}
	return pgx.ErrNoRows
}

func (f *fakeUserRepo) CountRelatedRecords(_ context.Context, _ string) (int64, error) {
	return f.related, nil
}

func testConfig() config.Config {
	return config.Config{
		App: config.AppConfig{Env: "development"},
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 60,
			ResetTokenTTLMinutes:  60,
			BcryptCost:            4,
			TOTPIssuer:            "Helpdesk",
		},
	}
}

func newTestAuthService(t *testing.T) (*AuthService, *fakeUserRepo) {
	t.Helper()
	repo := newFakeUserRepo()
	svc := NewAuthService(testConfig(), AuthDependencies{
		UserRepo: repo,
		Logger:   zap.NewNop(),
	})
	return svc, repo
}

func registerTestUser(t *testing.T, svc *AuthService, email, password string) *domain.User {
	t.Helper()
	user, err := svc.Register(context.Background(), email, "Test User", email, password, domain.RoleEmployee)
	require.NoError(t, err)
	return user
}

func errorCode(err error) string {
	return apperrors.ToDomainError(err).Code
}

func TestLoginHappyPath(t *testing.T) {
	svc, _ := newTestAuthService(t)
	registerTestUser(t, svc, "ana@example.com", "s3cret!pass")

	result, err := svc.Login(context.Background(), "ana@example.com", "s3cret!pass", "")
	require.NoError(t, err)
	assert.False(t, result.SecondFactorRequired)
	assert.NotEmpty(t, result.Token)
	assert.True(t, result.ExpiresAt.After(time.Now()))
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _ := newTestAuthService(t)
	registerTestUser(t, svc, "ana@example.com", "s3cret!pass")

	_, badPassword := svc.Login(context.Background(), "ana@example.com", "wrong", "")
	_, noAccount := svc.Login(context.Background(), "nobody@example.com", "whatever", "")

	require.Error(t, badPassword)
	require.Error(t, noAccount)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(badPassword))
	assert.Equal(t, errorCode(badPassword), errorCode(noAccount))
	assert.Equal(t, badPassword.Error(), noAccount.Error())
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	svc, repo := newTestAuthService(t)
	user := registerTestUser(t, svc, "ana@example.com", "s3cret!pass")
	repo.users[user.ID].Active = false

	_, err := svc.Login(context.Background(), "ana@example.com", "s3cret!pass", "")
	require.Error(t, err)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(err))
}

func TestLoginSecondFactorChallenge(t *testing.T) {
	svc, repo := newTestAuthService(t)
	user := registerTestUser(t, svc, "ana@example.com", "s3cret!pass")

	secret, _, err := svc.EnrollTwoFactor(context.Background(), user.ID)
	require.NoError(t, err)

	at := time.Unix(1700000000, 0)
	svc.now = func() time.Time { return at }

	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period: 30, Digits: otp.DigitsSix, Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)

	// Pending enrollment is inert: login works without a code.
	result, err := svc.Login(context.Background(), "ana@example.com", "s3cret!pass", "")
	require.NoError(t, err)
	assert.False(t, result.SecondFactorRequired)
	assert.NotEmpty(t, result.Token)

	require.NoError(t, svc.VerifyTwoFactor(context.Background(), user.ID, code))
	assert.Equal(t, domain.TwoFactorEnabled, repo.users[user.ID].TwoFactorState)

	// Enabled, no code: challenge, no token.
	result, err = svc.Login(context.Background(), "ana@example.com", "s3cret!pass", "")
	require.NoError(t, err)
	assert.True(t, result.SecondFactorRequired)
	assert.Empty(t, result.Token)

	// Enabled, bad code.
	_, err = svc.Login(context.Background(), "ana@example.com", "s3cret!pass", "000001")
	require.Error(t, err)
	assert.Equal(t, "INVALID_SECOND_FACTOR", errorCode(err))

	// Enabled, valid code.
	result, err = svc.Login(context.Background(), "ana@example.com", "s3cret!pass", code)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
}

func TestDisableTwoFactorRequiresCodeWhenEnabled(t *testing.T) {
	svc, repo := newTestAuthService(t)
	user := registerTestUser(t, svc, "ana@example.com", "s3cret!pass")

	secret, _, err := svc.EnrollTwoFactor(context.Background(), user.ID)
	require.NoError(t, err)

	at := time.Unix(1700000000, 0)
	svc.now = func() time.Time { return at }
	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period: 30, Digits: otp.DigitsSix, Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	require.NoError(t, svc.VerifyTwoFactor(context.Background(), user.ID, code))

	err = svc.DisableTwoFactor(context.Background(), user.ID, "999999")
	require.Error(t, err)
	assert.Equal(t, "INVALID_SECOND_FACTOR", errorCode(err))

	require.NoError(t, svc.DisableTwoFactor(context.Background(), user.ID, code))
	assert.Equal(t, domain.TwoFactorDisabled, repo.users[user.ID].TwoFactorState)
	assert.Empty(t, repo.users[user.ID].TwoFactorSecret)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc, _ := newTestAuthService(t)
	registerTestUser(t, svc, "ana@example.com", "s3cret!pass")

	_, err := svc.Register(context.Background(), "ana2", "Ana", "ana@example.com", "pw12345678", "")
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", errorCode(err))

	_, err = svc.Register(context.Background(), "ana@example.com", "Ana", "other@example.com", "pw12345678", "")
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", errorCode(err))
}

func TestPasswordResetTokenIsSingleUse(t *testing.T) {
	svc, repo := newTestAuthService(t)
	user := registerTestUser(t, svc, "ana@example.com", "s3cret!pass")

	result, err := svc.RequestPasswordReset(context.Background(), "ana@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token, "without a mailer the raw token is surfaced")
	assert.False(t, result.Emailed)

	// Only the hash is stored.
	stored := repo.users[user.ID]
	require.NotNil(t, stored.ResetTokenHash)
	assert.NotEqual(t, result.Token, *stored.ResetTokenHash)

	require.NoError(t, svc.ConfirmPasswordReset(context.Background(), result.Token, "brand-new-pass"))

	_, err = svc.Login(context.Background(), "ana@example.com", "brand-new-pass", "")
	require.NoError(t, err)

	// Replay fails and leaves the new password in place.
	err = svc.ConfirmPasswordReset(context.Background(), result.Token, "attacker-pass")
	require.Error(t, err)
	assert.Equal(t, "INVALID_RESET_TOKEN", errorCode(err))

	_, err = svc.Login(context.Background(), "ana@example.com", "brand-new-pass", "")
	require.NoError(t, err)
}

func TestPasswordResetNewRequestOverwritesOldToken(t *testing.T) {
	svc, _ := newTestAuthService(t)
	registerTestUser(t, svc, "ana@example.com", "s3cret!pass")

	first, err := svc.RequestPasswordReset(context.Background(), "ana@example.com")
	require.NoError(t, err)
	second, err := svc.RequestPasswordReset(context.Background(), "ana@example.com")
	require.NoError(t, err)

	err = svc.ConfirmPasswordReset(context.Background(), first.Token, "new-pass-1")
	require.Error(t, err)
	assert.Equal(t, "INVALID_RESET_TOKEN", errorCode(err))

	require.NoError(t, svc.ConfirmPasswordReset(context.Background(), second.Token, "new-pass-2"))
}

func TestPasswordResetExpiredTokenRejected(t *testing.T) {
	svc, repo := newTestAuthService(t)
	user := registerTestUser(t, svc, "ana@example.com", "s3cret!pass")

	result, err := svc.RequestPasswordReset(context.Background(), "ana@example.com")
	require.NoError(t, err)

	expired := time.Now().Add(-time.Minute)
	repo.users[user.ID].ResetExpiresAt = &expired

	err = svc.ConfirmPasswordReset(context.Background(), result.Token, "new-pass")
	require.Error(t, err)
	assert.Equal(t, "INVALID_RESET_TOKEN", errorCode(err))
}

func TestChangePasswordVerifiesCurrent(t *testing.T) {
	svc, _ := newTestAuthService(t)
	user := registerTestUser(t, svc, "ana@example.com", "s3cret!pass")

	err := svc.ChangePassword(context.Background(), user.ID, "wrong", "new-pass")
	require.Error(t, err)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(err))

	require.NoError(t, svc.ChangePassword(context.Background(), user.ID, "s3cret!pass", "new-pass"))
	_, err = svc.Login(context.Background(), "ana@example.com", "new-pass", "")
	require.NoError(t, err)
}
