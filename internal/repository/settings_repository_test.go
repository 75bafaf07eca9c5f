package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messagewall/internal/models"
)

func TestSettingsRepository_Get(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSettingsRepository(db)
	ctx := context.Background()

	t.Run("existing setting", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT key, value, updated_at FROM settings WHERE key = $1`)).
			WithArgs(models.SettingModerationEnabled).
			WillReturnRows(sqlmock.NewRows([]string{"key", "value", "updated_at"}).
				AddRow(models.SettingModerationEnabled, "true", time.Now()))

		setting, err := repo.Get(ctx, models.SettingModerationEnabled)

		require.NoError(t, err)
		assert.Equal(t, "true", setting.Value)
	})

	t.Run("absent setting", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`FROM settings WHERE key = $1`)).
			WithArgs(models.SettingModerationEnabled).
			WillReturnRows(sqlmock.NewRows([]string{"key", "value", "updated_at"}))

		setting, err := repo.Get(ctx, models.SettingModerationEnabled)

		assert.Nil(t, setting)
		assert.ErrorIs(t, err, models.ErrSettingNotFound)
	})

	t.Run("transport error", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`FROM settings WHERE key = $1`)).
			WillReturnError(errors.New("timeout"))

		_, err := repo.Get(ctx, models.SettingModerationEnabled)

		assert.Error(t, err)
		assert.False(t, errors.Is(err, models.ErrSettingNotFound))
	})
}

func TestSettingsRepository_Upsert(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSettingsRepository(db)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`)).
		WithArgs(models.SettingModerationEnabled, "true").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Upsert(ctx, models.SettingModerationEnabled, "true"))

	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (key) DO UPDATE`)).
		WillReturnError(errors.New("read-only transaction"))

	err := repo.Upsert(ctx, models.SettingModerationEnabled, "false")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ошибка при сохранении настройки")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepository_InsertDefault(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSettingsRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (key) DO NOTHING`)).
		WithArgs(models.SettingModerationEnabled, "false").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.InsertDefault(context.Background(), models.SettingModerationEnabled, "false"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
