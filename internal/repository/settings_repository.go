package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"messagewall/internal/models"
)

type settingsRepository struct {
	db *sqlx.DB
}

func NewSettingsRepository(db *sqlx.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context, key string) (*models.Setting, error) {
	query := `SELECT key, value, updated_at FROM settings WHERE key = $1`

	var setting models.Setting
	err := r.db.GetContext(ctx, &setting, query, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", models.ErrSettingNotFound, key)
		}
		return nil, fmt.Errorf("ошибка при получении настройки: %w", err)
	}

	return &setting, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`

	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("ошибка при сохранении настройки: %w", err)
	}

	return nil
}

// InsertDefault keeps an existing value when another session created the row first.
func (r *settingsRepository) InsertDefault(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("ошибка при создании настройки по умолчанию: %w", err)
	}

	return nil
}
