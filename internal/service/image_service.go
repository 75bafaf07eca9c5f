package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/xid"

	"messagewall/internal/models"
	"messagewall/internal/storage"
)

// sniffLen is how much of the payload is read to detect its type.
const sniffLen = 3072

type ImageService interface {
	ValidateImage(img *models.ImageUpload) error
	UploadImage(ctx context.Context, img *models.ImageUpload) (string, error)
}

type imageService struct {
	storage storage.Storage
	maxSize int64
}

func NewImageService(storage storage.Storage, maxSize int64) ImageService {
	return &imageService{
		storage: storage,
		maxSize: maxSize,
	}
}

// ValidateImage checks size and content type without touching the network.
// On success img.ContentType is set and img.Reader still yields the whole
// payload.
func (s *imageService) ValidateImage(img *models.ImageUpload) error {
	if img == nil || img.Reader == nil {
		return fmt.Errorf("%w: файл не передан", models.ErrNotAnImage)
	}

	if img.Size > s.maxSize {
		return fmt.Errorf("%w: %s, максимум %s", models.ErrImageTooLarge,
			humanize.IBytes(uint64(img.Size)), humanize.IBytes(uint64(s.maxSize)))
	}

	if _, ok := img.Reader.(*sniffedReader); ok {
		return nil
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(img.Reader, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("ошибка чтения файла: %w", err)
	}
	head = head[:n]

	mtype := mimetype.Detect(head)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return fmt.Errorf("%w: %s", models.ErrNotAnImage, mtype.String())
	}

	img.ContentType = mtype.String()
	img.Reader = &sniffedReader{
		Reader:    io.MultiReader(bytes.NewReader(head), img.Reader),
		extension: mtype.Extension(),
	}

	return nil
}

// sniffedReader marks a payload whose type has already been detected.
type sniffedReader struct {
	io.Reader
	extension string
}

func (s *imageService) UploadImage(ctx context.Context, img *models.ImageUpload) (string, error) {
	if err := s.ValidateImage(img); err != nil {
		return "", err
	}

	key := objectKey(img)

	if err := s.storage.Upload(ctx, key, img.Reader, img.Size, img.ContentType); err != nil {
		return "", fmt.Errorf("ошибка загрузки изображения: %w", err)
	}

	return s.storage.PublicURL(key), nil
}

// objectKey is a time-ordered unique id plus the original extension.
func objectKey(img *models.ImageUpload) string {
	ext := strings.ToLower(filepath.Ext(img.FileName))
	if ext == "" {
		if sniffed, ok := img.Reader.(*sniffedReader); ok {
			ext = sniffed.extension
		}
	}
	return xid.New().String() + ext
}
