package service

import (
	"messagewall/internal/config"
	"messagewall/internal/realtime"
	"messagewall/internal/repository"
	"messagewall/internal/storage"
)

type Service struct {
	Image      ImageService
	Moderation ModerationService
	Admin      AdminService
}

func NewService(rep *repository.Repository, cfg *config.Config, storage storage.Storage, feed realtime.Subscriber) (*Service, error) {
	admin, err := NewAdminService(cfg)
	if err != nil {
		return nil, err
	}

	return &Service{
		Image:      NewImageService(storage, cfg.Wall.MaxImageSize),
		Moderation: NewModerationService(rep.Settings, feed, cfg.Wall.ModerationDefault),
		Admin:      admin,
	}, nil
}
