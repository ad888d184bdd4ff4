package domain

import "time"

// Role enumerates the fixed set of account roles.
type Role string

const (
	RoleAdministrator Role = "ADMINISTRATOR"
	RoleTechnician    Role = "TECHNICIAN"
	RoleEmployee      Role = "EMPLOYEE"
)

// ValidRole reports whether the value is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdministrator, RoleTechnician, RoleEmployee:
		return true
	}
	return false
}

// TwoFactorState is the explicit enrollment state for the TOTP second factor.
// A PENDING_VERIFICATION secret is stored but inert: it is never checked at login.
type TwoFactorState string

const (
	TwoFactorDisabled TwoFactorState = "DISABLED"
	TwoFactorPending  TwoFactorState = "PENDING_VERIFICATION"
	TwoFactorEnabled  TwoFactorState = "ENABLED"
)

// User is the domain model for helpdesk accounts. Credential state (password
// hash, second factor, reset token) lives on the same row; the reset token is
// stored only as a hash and a new request overwrites any prior token.
type User struct {
	ID             string
	Username       string
	Name           string
	Email          string
	PasswordHash   string
	Role           Role
	Active         bool
	TwoFactorState TwoFactorState
	TwoFactorSecret string
	ResetTokenHash *string
	ResetExpiresAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
