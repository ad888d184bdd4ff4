package domain

import "time"

// UserSettings holds per-account preferences.
type UserSettings struct {
	UserID        string
	Notifications bool
	EmailAlerts   bool
	DarkMode      bool
	Language      string
	UpdatedAt     time.Time
}

// DefaultSettings returns the preferences applied to new accounts.
func DefaultSettings(userID string) *UserSettings {
	return &UserSettings{
		UserID:        userID,
		Notifications: true,
		EmailAlerts:   true,
		Language:      "es",
	}
}
