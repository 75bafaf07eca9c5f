package test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"messagewall/internal/models"
	"messagewall/internal/wall"
)

type MockWall struct {
	mock.Mock
}

func (m *MockWall) Snapshot() wall.Snapshot {
	args := m.Called()
	return args.Get(0).(wall.Snapshot)
}

func (m *MockWall) AddMessage(ctx context.Context, content string, image *models.ImageUpload) (*models.Message, wall.Notice, error) {
	args := m.Called(ctx, content, image)
	if args.Get(0) == nil {
		return nil, args.Get(1).(wall.Notice), args.Error(2)
	}
	return args.Get(0).(*models.Message), args.Get(1).(wall.Notice), args.Error(2)
}

func (m *MockWall) UpdateMessageStatus(ctx context.Context, id string, status models.Status) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockWall) DeleteMessage(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockWall) ArchiveMessage(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockModerationService struct {
	mock.Mock
}

func (m *MockModerationService) GetModerationStatus(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

func (m *MockModerationService) UpdateModerationSetting(ctx context.Context, enabled bool) error {
	return m.Called(ctx, enabled).Error(0)
}

func (m *MockModerationService) Close() {}

type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) Login(password string) (string, time.Time, error) {
	args := m.Called(password)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockAdminService) ValidateToken(token string) error {
	return m.Called(token).Error(0)
}

type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) LoadByStatus(ctx context.Context, status models.Status) ([]models.Message, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockMessageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockMessageRepository) Insert(ctx context.Context, content string, imageURL *string, status models.Status) (*models.Message, error) {
	args := m.Called(ctx, content, imageURL, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockMessageRepository) UpdateStatus(ctx context.Context, id string, status models.Status) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockMessageRepository) Archive(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockMessageRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockMessageRepository) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[models.Status]int), args.Error(1)
}

type MockHealth struct {
	err error
}

func (m *MockHealth) HealthCheck() error { return m.err }
