package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/soportek/helpdesk-api/internal/domain"
)

// SettingsRepository persists per-user preferences.
type SettingsRepository interface {
	Get(ctx context.Context, userID string) (*domain.UserSettings, error)
	Upsert(ctx context.Context, settings *domain.UserSettings) error
}

type settingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository constructs repository.
func NewSettingsRepository(pool *pgxpool.Pool) SettingsRepository {
	return &settingsRepository{pool: pool}
}

func (r *settingsRepository) Get(ctx context.Context, userID string) (*domain.UserSettings, error) {
	const query = `
        SELECT user_id, notifications, email_alerts, dark_mode, language, updated_at
        FROM user_settings WHERE user_id=$1`
	var settings domain.UserSettings
	if err := r.pool.QueryRow(ctx, query, userID).Scan(
		&settings.UserID,
		&settings.Notifications,
		&settings.EmailAlerts,
		&settings.DarkMode,
		&settings.Language,
		&settings.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, settings *domain.UserSettings) error {
	const query = `
        INSERT INTO user_settings (user_id, notifications, email_alerts, dark_mode, language)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (user_id) DO UPDATE SET
            notifications=EXCLUDED.notifications,
            email_alerts=EXCLUDED.email_alerts,
            dark_mode=EXCLUDED.dark_mode,
            language=EXCLUDED.language,
            updated_at=NOW()
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		settings.UserID,
		settings.Notifications,
		settings.EmailAlerts,
		settings.DarkMode,
		settings.Language,
	).Scan(&settings.UpdatedAt)
}
