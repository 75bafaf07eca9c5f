package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"messagewall/internal/config"
)

// Storage keeps message images under a public-read bucket.
type Storage interface {
	Upload(ctx context.Context, key string, file io.Reader, size int64, contentType string) error
	PublicURL(key string) string
	Delete(ctx context.Context, key string) error
}

type MinIOClient struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

const publicReadPolicy = `{
	"Version": "2012-10-17",
	"Statement": [{
		"Effect": "Allow",
		"Principal": {"AWS": ["*"]},
		"Action": ["s3:GetObject"],
		"Resource": ["arn:aws:s3:::%s/*"]
	}]
}`

func NewMinIOClient(ctx context.Context, cfg config.MinIO) (*MinIOClient, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания клиента MinIO: %w", err)
	}

	m := &MinIOClient{
		client:  client,
		bucket:  cfg.BucketName,
		baseURL: publicBaseURL(cfg),
	}

	if err := m.ensureBucket(ctx, cfg.Region); err != nil {
		return nil, err
	}

	return m, nil
}

func publicBaseURL(cfg config.MinIO) string {
	if cfg.PublicURL != "" {
		return strings.TrimSuffix(cfg.PublicURL, "/")
	}
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return scheme + "://" + cfg.Endpoint
}

func (m *MinIOClient) ensureBucket(ctx context.Context, region string) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("ошибка проверки бакета %s: %w", m.bucket, err)
	}

	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return fmt.Errorf("ошибка создания бакета %s: %w", m.bucket, err)
		}
		log.Printf("Бакет %s создан", m.bucket)
	}

	if err := m.client.SetBucketPolicy(ctx, m.bucket, fmt.Sprintf(publicReadPolicy, m.bucket)); err != nil {
		return fmt.Errorf("ошибка установки политики бакета %s: %w", m.bucket, err)
	}

	return nil
}

func (m *MinIOClient) Upload(ctx context.Context, key string, file io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, file, size,
		minio.PutObjectOptions{
			ContentType:  contentType,
			CacheControl: "public, max-age=31536000, immutable",
			UserMetadata: map[string]string{
				"uploaded-at": time.Now().UTC().Format(time.RFC3339),
			},
		})
	if err != nil {
		return fmt.Errorf("ошибка загрузки в MinIO: %w", err)
	}
	return nil
}

func (m *MinIOClient) PublicURL(key string) string {
	return PublicObjectURL(m.baseURL, m.bucket, key)
}

// PublicObjectURL builds the anonymous-read link of an object.
func PublicObjectURL(baseURL, bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(baseURL, "/"), bucket, strings.TrimPrefix(key, "/"))
}

func (m *MinIOClient) Delete(ctx context.Context, key string) error {
	err := m.client.RemoveObject(ctx, m.bucket, key,
		minio.RemoveObjectOptions{
			GovernanceBypass: true,
		})
	if err != nil {
		return fmt.Errorf("ошибка удаления из MinIO: %w", err)
	}
	return nil
}
