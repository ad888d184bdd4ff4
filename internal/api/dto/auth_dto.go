package dto

import (
	"time"

	"github.com/soportek/helpdesk-api/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Username string      `json:"username"`
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role,omitempty"`
}

// LoginRequest payload. Code carries the TOTP value when the account has a
// second factor enabled.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code,omitempty"`
}

// LoginResponse returns the issued session token, or signals that a second
// factor code is still required.
type LoginResponse struct {
	Token                string       `json:"token,omitempty"`
	ExpiresAt            *time.Time   `json:"expires_at,omitempty"`
	SecondFactorRequired bool         `json:"second_factor_required,omitempty"`
	User                 UserResponse `json:"user"`
}

// TwoFactorEnrollResponse returns the pending secret and its provisioning URL.
type TwoFactorEnrollResponse struct {
	Secret          string `json:"secret"`
	ProvisioningURL string `json:"provisioning_url"`
}

// TwoFactorCodeRequest payload.
type TwoFactorCodeRequest struct {
	Code string `json:"code"`
}

// TwoFactorStatusResponse reports enrollment state.
type TwoFactorStatusResponse struct {
	State domain.TwoFactorState `json:"state"`
}

// ResetRequestRequest payload.
type ResetRequestRequest struct {
	Email string `json:"email"`
}

// ResetRequestResponse reports delivery. Token is only set when mail delivery
// was unavailable in development.
type ResetRequestResponse struct {
	Emailed bool   `json:"emailed"`
	Token   string `json:"token,omitempty"`
}

// ResetConfirmRequest payload.
type ResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
