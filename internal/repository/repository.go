package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"messagewall/internal/models"
)

type MessageRepository interface {
	LoadByStatus(ctx context.Context, status models.Status) ([]models.Message, error)
	GetByID(ctx context.Context, id string) (*models.Message, error)
	Insert(ctx context.Context, content string, imageURL *string, status models.Status) (*models.Message, error)
	UpdateStatus(ctx context.Context, id string, status models.Status) error
	Archive(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (map[models.Status]int, error)
}

type SettingsRepository interface {
	Get(ctx context.Context, key string) (*models.Setting, error)
	Upsert(ctx context.Context, key, value string) error
	InsertDefault(ctx context.Context, key, value string) error
}

type Repository struct {
	Message  MessageRepository
	Settings SettingsRepository
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		Message:  NewMessageRepository(db),
		Settings: NewSettingsRepository(db),
	}
}
