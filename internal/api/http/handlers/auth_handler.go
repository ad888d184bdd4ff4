package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/soportek/helpdesk-api/internal/api/dto"
	"github.com/soportek/helpdesk-api/internal/auth"
	"github.com/soportek/helpdesk-api/internal/domain"
	"github.com/soportek/helpdesk-api/internal/service"
	apperrors "github.com/soportek/helpdesk-api/pkg/util"
)

// AuthHandler exposes registration, login and credential management.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Register POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return apperrors.NewValidationError("username, email, password required", nil)
	}

	user, err := h.service.Register(c.Context(), req.Username, req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": userResponse(user)})
}

// Login POST /auth/login. When the account has a verified second factor and no
// code was sent, the response is 206 with second_factor_required and no token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	result, err := h.service.Login(c.Context(), req.Email, req.Password, req.Code)
	if err != nil {
		return err
	}

	if result.SecondFactorRequired {
		return c.Status(http.StatusPartialContent).JSON(fiber.Map{"data": dto.LoginResponse{
			SecondFactorRequired: true,
			User:                 userResponse(result.User),
		}})
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Token:     result.Token,
		ExpiresAt: &result.ExpiresAt,
		User:      userResponse(result.User),
	}})
}

// EnrollTwoFactor POST /auth/2fa/enroll.
func (h *AuthHandler) EnrollTwoFactor(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	secret, url, err := h.service.EnrollTwoFactor(c.Context(), actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TwoFactorEnrollResponse{
		Secret:          secret,
		ProvisioningURL: url,
	}})
}

// VerifyTwoFactor POST /auth/2fa/verify.
func (h *AuthHandler) VerifyTwoFactor(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.TwoFactorCodeRequest
	if err := c.BodyParser(&req); err != nil || req.Code == "" {
		return apperrors.NewValidationError("code required", nil)
	}
	if err := h.service.VerifyTwoFactor(c.Context(), actor.ID, req.Code); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TwoFactorStatusResponse{State: domain.TwoFactorEnabled}})
}

// DisableTwoFactor POST /auth/2fa/disable.
func (h *AuthHandler) DisableTwoFactor(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.TwoFactorCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.service.DisableTwoFactor(c.Context(), actor.ID, req.Code); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TwoFactorStatusResponse{State: domain.TwoFactorDisabled}})
}

// TwoFactorStatus GET /auth/2fa/status.
func (h *AuthHandler) TwoFactorStatus(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	state, err := h.service.TwoFactorStatus(c.Context(), actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TwoFactorStatusResponse{State: state}})
}

// RequestPasswordReset POST /auth/password/reset/request.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.ResetRequestRequest
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return apperrors.NewValidationError("email required", nil)
	}
	result, err := h.service.RequestPasswordReset(c.Context(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ResetRequestResponse{
		Emailed: result.Emailed,
		Token:   result.Token,
	}})
}

// ConfirmPasswordReset POST /auth/password/reset/confirm.
func (h *AuthHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.ResetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Token == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("token and new_password required", nil)
	}
	if err := h.service.ConfirmPasswordReset(c.Context(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"reset": true}})
}

// ChangePassword POST /auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("current_password and new_password required", nil)
	}
	if err := h.service.ChangePassword(c.Context(), actor.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"changed": true}})
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		Active:    user.Active,
		TwoFactor: user.TwoFactorState,
		CreatedAt: user.CreatedAt,
	}
}
