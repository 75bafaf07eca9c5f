package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"

	"messagewall/internal/models"
	"messagewall/internal/realtime"
	"messagewall/internal/repository"
)

type ModerationService interface {
	GetModerationStatus(ctx context.Context) bool
	UpdateModerationSetting(ctx context.Context, enabled bool) error
	Close()
}

type moderationService struct {
	settings     repository.SettingsRepository
	defaultValue bool

	mu         sync.Mutex
	cached     *bool
	generation uint64

	unsubscribe func()
}

// NewModerationService caches the flag until a settings change arrives on
// feed. A nil feed disables invalidation; the cache then only follows local
// updates.
func NewModerationService(settings repository.SettingsRepository, feed realtime.Subscriber, defaultValue bool) ModerationService {
	s := &moderationService{
		settings:     settings,
		defaultValue: defaultValue,
		unsubscribe:  func() {},
	}

	if feed != nil {
		s.unsubscribe = feed.Subscribe(models.TableSettings, s.onSettingsChange)
	}

	return s
}

func (s *moderationService) onSettingsChange(models.ChangeEvent) {
	s.mu.Lock()
	s.cached = nil
	s.generation++
	s.mu.Unlock()
}

// GetModerationStatus never fails: a read error means moderation is off.
func (s *moderationService) GetModerationStatus(ctx context.Context) bool {
	s.mu.Lock()
	if s.cached != nil {
		enabled := *s.cached
		s.mu.Unlock()
		return enabled
	}
	generation := s.generation
	s.mu.Unlock()

	enabled, err := s.load(ctx)
	if err != nil {
		log.Printf("Ошибка чтения настройки модерации: %v", err)
		return false
	}

	s.mu.Lock()
	if s.generation == generation {
		s.cached = &enabled
	}
	s.mu.Unlock()

	return enabled
}

func (s *moderationService) load(ctx context.Context) (bool, error) {
	setting, err := s.settings.Get(ctx, models.SettingModerationEnabled)
	if errors.Is(err, models.ErrSettingNotFound) {
		value := strconv.FormatBool(s.defaultValue)
		if err := s.settings.InsertDefault(ctx, models.SettingModerationEnabled, value); err != nil {
			log.Printf("Не удалось создать настройку модерации: %v", err)
		}
		return s.defaultValue, nil
	}
	if err != nil {
		return false, err
	}

	enabled, err := strconv.ParseBool(setting.Value)
	if err != nil {
		return false, fmt.Errorf("некорректное значение %q: %w", setting.Value, err)
	}

	return enabled, nil
}

func (s *moderationService) UpdateModerationSetting(ctx context.Context, enabled bool) error {
	if err := s.settings.Upsert(ctx, models.SettingModerationEnabled, strconv.FormatBool(enabled)); err != nil {
		return fmt.Errorf("%w: %w", models.ErrSettingUpdate, err)
	}

	s.mu.Lock()
	s.cached = &enabled
	s.generation++
	s.mu.Unlock()

	log.Printf("Настройка модерации изменена: %t", enabled)
	return nil
}

func (s *moderationService) Close() {
	s.unsubscribe()
}
