package handlers

import (
	"context"

	"github.com/go-playground/validator/v10"

	"messagewall/internal/config"
	"messagewall/internal/models"
	"messagewall/internal/repository"
	"messagewall/internal/service"
	"messagewall/internal/wall"
)

// Wall is the part of the board the HTTP API drives.
type Wall interface {
	Snapshot() wall.Snapshot
	AddMessage(ctx context.Context, content string, image *models.ImageUpload) (*models.Message, wall.Notice, error)
	UpdateMessageStatus(ctx context.Context, id string, status models.Status) error
	DeleteMessage(ctx context.Context, id string) error
	ArchiveMessage(ctx context.Context, id string) error
}

type HealthChecker interface {
	HealthCheck() error
}

type Handlers struct {
	Wall        Wall
	Moderation  service.ModerationService
	Admin       service.AdminService
	MessageRepo repository.MessageRepository
	Health      HealthChecker
	Cfg         *config.Config
	Validate    *validator.Validate
}

func NewHandlers(repo *repository.Repository, service *service.Service, board Wall, health HealthChecker, config *config.Config) *Handlers {
	return &Handlers{
		Wall:        board,
		Moderation:  service.Moderation,
		Admin:       service.Admin,
		MessageRepo: repo.Message,
		Health:      health,
		Cfg:         config,
		Validate:    validator.New(),
	}
}
