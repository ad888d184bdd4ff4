package dto

import (
	"time"

	"github.com/soportek/helpdesk-api/internal/domain"
)

// UserResponse is the public shape of an account. Credential state never
// leaves the server.
type UserResponse struct {
	ID        string                `json:"id"`
	Username  string                `json:"username"`
	Name      string                `json:"name"`
	Email     string                `json:"email"`
	Role      domain.Role           `json:"role"`
	Active    bool                  `json:"active"`
	TwoFactor domain.TwoFactorState `json:"two_factor"`
	CreatedAt time.Time             `json:"created_at"`
}

// UpdateProfileRequest payload.
type UpdateProfileRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// ProfileResponse is the actor's account plus assigned assets.
type ProfileResponse struct {
	User     UserResponse        `json:"user"`
	Assigned []InventoryResponse `json:"assigned_inventory"`
}

// ChangeRoleRequest payload.
type ChangeRoleRequest struct {
	Role domain.Role `json:"role"`
}

// SetActiveRequest payload.
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// SettingsRequest payload.
type SettingsRequest struct {
	Notifications bool   `json:"notifications"`
	EmailAlerts   bool   `json:"email_alerts"`
	DarkMode      bool   `json:"dark_mode"`
	Language      string `json:"language"`
}

// SettingsResponse mirrors stored preferences.
type SettingsResponse struct {
	Notifications bool      `json:"notifications"`
	EmailAlerts   bool      `json:"email_alerts"`
	DarkMode      bool      `json:"dark_mode"`
	Language      string    `json:"language"`
	UpdatedAt     time.Time `json:"updated_at"`
}
