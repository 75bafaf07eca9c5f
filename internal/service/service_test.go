package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messagewall/internal/config"
	"messagewall/internal/models"
	"messagewall/internal/realtime"
)

type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) Get(ctx context.Context, key string) (*models.Setting, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Setting), args.Error(1)
}

func (m *MockSettingsRepository) Upsert(ctx context.Context, key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *MockSettingsRepository) InsertDefault(ctx context.Context, key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	calls   int
	err     error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeStorage) Upload(_ context.Context, key string, file io.Reader, _ int64, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	f.objects[key] = data
	f.types[key] = contentType
	return nil
}

func (f *fakeStorage) PublicURL(key string) string {
	return "http://localhost:9000/message-images/" + key
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

// jpegBytes returns size bytes that sniff as image/jpeg.
func jpegBytes(size int) []byte {
	data := make([]byte, size)
	copy(data, []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00})
	for i := 11; i < size; i++ {
		data[i] = byte(i % 251)
	}
	return data
}

func pngBytes() []byte {
	return append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)
}

func TestImageService_UploadImage(t *testing.T) {
	const maxSize = 5 << 20
	ctx := context.Background()

	t.Run("valid jpeg round trips", func(t *testing.T) {
		store := newFakeStorage()
		svc := NewImageService(store, maxSize)
		payload := jpegBytes(2 << 20)

		url, err := svc.UploadImage(ctx, &models.ImageUpload{
			FileName: "Photo.JPG",
			Size:     int64(len(payload)),
			Reader:   bytes.NewReader(payload),
		})

		require.NoError(t, err)
		require.Len(t, store.objects, 1)
		for key, data := range store.objects {
			assert.Equal(t, store.PublicURL(key), url)
			assert.Equal(t, payload, data)
			assert.Equal(t, "image/jpeg", store.types[key])
			assert.Regexp(t, `^[0-9a-v]{20}\.jpg$`, key)
		}
	})

	t.Run("extension falls back to the sniffed type", func(t *testing.T) {
		store := newFakeStorage()
		svc := NewImageService(store, maxSize)
		payload := pngBytes()

		url, err := svc.UploadImage(ctx, &models.ImageUpload{
			FileName: "clipboard",
			Size:     int64(len(payload)),
			Reader:   bytes.NewReader(payload),
		})

		require.NoError(t, err)
		assert.Contains(t, url, ".png")
	})

	t.Run("too large is rejected without upload", func(t *testing.T) {
		store := newFakeStorage()
		svc := NewImageService(store, maxSize)

		_, err := svc.UploadImage(ctx, &models.ImageUpload{
			FileName: "big.jpg",
			Size:     maxSize + 1,
			Reader:   bytes.NewReader(jpegBytes(1024)),
		})

		assert.ErrorIs(t, err, models.ErrImageTooLarge)
		assert.Contains(t, err.Error(), "5.0 MiB")
		assert.Equal(t, 0, store.calls)
	})

	t.Run("non image is rejected without upload", func(t *testing.T) {
		store := newFakeStorage()
		svc := NewImageService(store, maxSize)
		payload := []byte("%PDF-1.7\n1 0 obj\n<<>>\nendobj\n")

		_, err := svc.UploadImage(ctx, &models.ImageUpload{
			FileName: "doc.jpg",
			Size:     int64(len(payload)),
			Reader:   bytes.NewReader(payload),
		})

		assert.ErrorIs(t, err, models.ErrNotAnImage)
		assert.Equal(t, 0, store.calls)
	})

	t.Run("storage failure propagates", func(t *testing.T) {
		store := newFakeStorage()
		store.err = errors.New("bucket unavailable")
		svc := NewImageService(store, maxSize)
		payload := jpegBytes(128)

		url, err := svc.UploadImage(ctx, &models.ImageUpload{
			FileName: "a.jpg",
			Size:     int64(len(payload)),
			Reader:   bytes.NewReader(payload),
		})

		assert.Error(t, err)
		assert.Empty(t, url)
		assert.Equal(t, 1, store.calls)
	})
}

func TestImageService_ValidateThenUpload(t *testing.T) {
	store := newFakeStorage()
	svc := NewImageService(store, 5<<20)
	payload := jpegBytes(10_000)
	img := &models.ImageUpload{FileName: "a.jpeg", Size: int64(len(payload)), Reader: bytes.NewReader(payload)}

	require.NoError(t, svc.ValidateImage(img))
	assert.Equal(t, "image/jpeg", img.ContentType)

	_, err := svc.UploadImage(context.Background(), img)
	require.NoError(t, err)

	for _, data := range store.objects {
		assert.Equal(t, payload, data)
	}
}

func TestModerationService_GetModerationStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("reads and caches the stored value", func(t *testing.T) {
		repo := new(MockSettingsRepository)
		repo.On("Get", ctx, models.SettingModerationEnabled).
			Return(&models.Setting{Key: models.SettingModerationEnabled, Value: "true"}, nil).Once()

		svc := NewModerationService(repo, nil, false)

		assert.True(t, svc.GetModerationStatus(ctx))
		assert.True(t, svc.GetModerationStatus(ctx))
		repo.AssertExpectations(t)
	})

	t.Run("absent row is created with the default", func(t *testing.T) {
		repo := new(MockSettingsRepository)
		repo.On("Get", ctx, models.SettingModerationEnabled).Return(nil, models.ErrSettingNotFound).Once()
		repo.On("InsertDefault", ctx, models.SettingModerationEnabled, "true").Return(nil).Once()

		svc := NewModerationService(repo, nil, true)

		assert.True(t, svc.GetModerationStatus(ctx))
		repo.AssertExpectations(t)
	})

	t.Run("read failure fails open", func(t *testing.T) {
		repo := new(MockSettingsRepository)
		repo.On("Get", ctx, models.SettingModerationEnabled).Return(nil, errors.New("connection refused"))

		svc := NewModerationService(repo, nil, true)

		assert.False(t, svc.GetModerationStatus(ctx))
	})

	t.Run("garbage value fails open", func(t *testing.T) {
		repo := new(MockSettingsRepository)
		repo.On("Get", ctx, models.SettingModerationEnabled).
			Return(&models.Setting{Key: models.SettingModerationEnabled, Value: "maybe"}, nil)

		svc := NewModerationService(repo, nil, true)

		assert.False(t, svc.GetModerationStatus(ctx))
	})
}

func TestModerationService_FeedInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	broker := realtime.NewBroker()

	repo := new(MockSettingsRepository)
	repo.On("Get", ctx, models.SettingModerationEnabled).
		Return(&models.Setting{Key: models.SettingModerationEnabled, Value: "false"}, nil).Once()
	repo.On("Get", ctx, models.SettingModerationEnabled).
		Return(&models.Setting{Key: models.SettingModerationEnabled, Value: "true"}, nil).Once()

	svc := NewModerationService(repo, broker, false)
	defer svc.Close()

	assert.False(t, svc.GetModerationStatus(ctx))

	broker.Publish(models.ChangeEvent{Table: models.TableSettings, Event: models.EventUpdate})

	assert.True(t, svc.GetModerationStatus(ctx))
	repo.AssertExpectations(t)

	svc.Close()
	assert.Equal(t, 0, broker.Len())
}

func TestModerationService_UpdateModerationSetting(t *testing.T) {
	ctx := context.Background()

	t.Run("success updates the cache", func(t *testing.T) {
		repo := new(MockSettingsRepository)
		repo.On("Upsert", ctx, models.SettingModerationEnabled, "true").Return(nil)

		svc := NewModerationService(repo, nil, false)

		require.NoError(t, svc.UpdateModerationSetting(ctx, true))
		assert.True(t, svc.GetModerationStatus(ctx))
		repo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("failure keeps the previous value", func(t *testing.T) {
		repo := new(MockSettingsRepository)
		repo.On("Get", ctx, models.SettingModerationEnabled).
			Return(&models.Setting{Key: models.SettingModerationEnabled, Value: "false"}, nil).Once()
		repo.On("Upsert", ctx, models.SettingModerationEnabled, "true").Return(errors.New("permission denied"))

		svc := NewModerationService(repo, nil, false)
		require.False(t, svc.GetModerationStatus(ctx))

		err := svc.UpdateModerationSetting(ctx, true)

		assert.ErrorIs(t, err, models.ErrSettingUpdate)
		assert.False(t, svc.GetModerationStatus(ctx))
		repo.AssertExpectations(t)
	})
}

func TestAdminService(t *testing.T) {
	cfg := &config.Config{
		AdminPassword:      "letmein",
		JWTSecretKey:       "test-secret",
		AdminTokenDuration: time.Hour,
	}

	svc, err := NewAdminService(cfg)
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login("guess")
		assert.ErrorIs(t, err, models.ErrInvalidPassword)
		assert.True(t, IsAuthError(err))
	})

	t.Run("token round trip", func(t *testing.T) {
		token, expiresAt, err := svc.Login("letmein")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

		assert.NoError(t, svc.ValidateToken(token))
	})

	t.Run("token from another secret", func(t *testing.T) {
		other, err := NewAdminService(&config.Config{AdminPassword: "letmein", JWTSecretKey: "other", AdminTokenDuration: time.Hour})
		require.NoError(t, err)
		token, _, err := other.Login("letmein")
		require.NoError(t, err)

		assert.ErrorIs(t, svc.ValidateToken(token), models.ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := NewAdminService(&config.Config{AdminPassword: "letmein", JWTSecretKey: "test-secret", AdminTokenDuration: -time.Minute})
		require.NoError(t, err)
		token, _, err := expired.Login("letmein")
		require.NoError(t, err)

		assert.ErrorIs(t, svc.ValidateToken(token), models.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		assert.ErrorIs(t, svc.ValidateToken("not.a.jwt"), models.ErrInvalidToken)
	})
}
