package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/soportek/helpdesk-api/internal/auth"
	"github.com/soportek/helpdesk-api/internal/config"
	"github.com/soportek/helpdesk-api/internal/domain"
	"github.com/soportek/helpdesk-api/internal/mail"
	"github.com/soportek/helpdesk-api/internal/repository"
	apperrors "github.com/soportek/helpdesk-api/pkg/util"
)

// AuthService coordinates registration, the login state machine, second
// factor enrollment and the password reset token lifecycle.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	totp       *auth.TOTPManager
	mailer     mail.Mailer
	logger     *zap.Logger
	bcryptCost int
	resetTTL   time.Duration
	devMode    bool
	now        func() time.Time
}

// AuthDependencies encapsulates collaborator requirements for auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Mailer   mail.Mailer
	Logger   *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		totp:       auth.NewTOTPManager(cfg.Auth.TOTPIssuer),
		mailer:     deps.Mailer,
		logger:     deps.Logger,
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   time.Duration(cfg.Auth.ResetTokenTTLMinutes) * time.Minute,
		devMode:    cfg.App.IsDevelopment(),
		now:        time.Now,
	}
}

// LoginResult is the outcome of a login attempt. When SecondFactorRequired is
// set no token has been issued and the caller must retry with a code.
type LoginResult struct {
	User                 *domain.User
	Token                string
	ExpiresAt            time.Time
	SecondFactorRequired bool
}

// Register creates a new account. Duplicate email or username yields a
// conflict. The role defaults to Employee when not given.
func (s *AuthService) Register(ctx context.Context, username, name, email, password string, role domain.Role) (*domain.User, error) {
	if role == "" {
		role = domain.RoleEmployee
	}
	if !domain.ValidRole(role) {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if err != pgx.ErrNoRows {
		return nil, err
	}
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, apperrors.NewConflict("username already taken", nil)
	} else if err != pgx.ErrNoRows {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:       username,
		Name:           name,
		Email:          email,
		PasswordHash:   hash,
		Role:           role,
		Active:         true,
		TwoFactorState: domain.TwoFactorDisabled,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login drives the authentication state machine: password verification, an
// optional second-factor challenge, then session token issuance. A missing
// account and a wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password, code string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewInvalidCredentials()
		}
		return nil, err
	}
	if !user.Active {
		return nil, apperrors.NewInvalidCredentials()
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewInvalidCredentials()
	}

	// Only a verified enrollment is checked at login; a pending secret is inert.
	if user.TwoFactorState == domain.TwoFactorEnabled {
		if code == "" {
			return &LoginResult{User: user, SecondFactorRequired: true}, nil
		}
		if !s.totp.Verify(user.TwoFactorSecret, code, s.now()) {
			return nil, apperrors.NewInvalidSecondFactor()
		}
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Token: token, ExpiresAt: exp}, nil
}

// EnrollTwoFactor generates and stores a new secret in the pending state and
// returns it along with a scannable provisioning URL. The account is not
// considered enrolled until VerifyTwoFactor succeeds.
func (s *AuthService) EnrollTwoFactor(ctx context.Context, userID string) (secret, provisioningURL string, err error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", "", apperrors.NewNotFound("user", nil)
		}
		return "", "", err
	}

	secret, provisioningURL, err = s.totp.GenerateSecret(user.Email)
	if err != nil {
		return "", "", err
	}
	if err := s.users.SetTwoFactor(ctx, user.ID, domain.TwoFactorPending, secret); err != nil {
		return "", "", err
	}
	return secret, provisioningURL, nil
}

// VerifyTwoFactor proves possession of the pending secret and flips the
// account to enabled.
func (s *AuthService) VerifyTwoFactor(ctx context.Context, userID, code string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.TwoFactorState == domain.TwoFactorDisabled || user.TwoFactorSecret == "" {
		return apperrors.NewValidationError("second factor enrollment not started", nil)
	}
	if !s.totp.Verify(user.TwoFactorSecret, code, s.now()) {
		return apperrors.NewInvalidSecondFactor()
	}
	return s.users.SetTwoFactor(ctx, user.ID, domain.TwoFactorEnabled, user.TwoFactorSecret)
}

// DisableTwoFactor turns the second factor off. When enrollment is complete a
// valid code is required to disable it.
func (s *AuthService) DisableTwoFactor(ctx context.Context, userID, code string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.TwoFactorState == domain.TwoFactorEnabled {
		if !s.totp.Verify(user.TwoFactorSecret, code, s.now()) {
			return apperrors.NewInvalidSecondFactor()
		}
	}
	return s.users.SetTwoFactor(ctx, user.ID, domain.TwoFactorDisabled, "")
}

// TwoFactorStatus returns the current enrollment state.
func (s *AuthService) TwoFactorStatus(ctx context.Context, userID string) (domain.TwoFactorState, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.TwoFactorState, nil
}

// ResetRequestResult reports how a reset token was delivered. Token is only
// populated when email delivery was unavailable and the development fallback
// surfaced it directly.
type ResetRequestResult struct {
	Emailed bool
	Token   string
}

// RequestPasswordReset issues a single-use reset token: only its hash and a
// one-hour expiry are stored, overwriting any previous token, and the raw
// value is mailed out-of-band.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*ResetRequestResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}

	token := uuid.NewString()
	if err := s.users.SetResetToken(ctx, user.ID, auth.HashResetToken(token), s.now().Add(s.resetTTL)); err != nil {
		return nil, err
	}

	if s.mailer != nil {
		body := "A password reset was requested for your account.\n\n" +
			"Reset token: " + token + "\n\n" +
			"The token expires in one hour. If you did not request this, ignore this message."
		if err := s.mailer.Send(user.Email, "Password reset", body); err != nil {
			if !s.devMode {
				return nil, apperrors.NewInternalError(err)
			}
			s.logger.Warn("reset email delivery failed; surfacing token (development mode)",
				zap.String("email", user.Email), zap.Error(err))
			return &ResetRequestResult{Token: token}, nil
		}
		return &ResetRequestResult{Emailed: true}, nil
	}

	// No mailer configured: development fallback surfaces the raw token so
	// the actor is not left stuck.
	return &ResetRequestResult{Token: token}, nil
}

// ConfirmPasswordReset consumes a reset token: the presented value is hashed
// and matched against the stored hash with its expiry, and on success the new
// password is set and the token cleared in one atomic update. A consumed or
// expired token fails and leaves stored state untouched.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.ConsumeResetToken(ctx, auth.HashResetToken(token), hash); err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewInvalidResetToken()
		}
		return err
	}
	return nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewInvalidCredentials()
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, hash)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
