package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	SyncIncremental = "incremental"
	SyncReload      = "reload"
)

type DB struct {
	DbHOST     string `env:"DB_HOST" envDefault:"localhost"`
	DbPORT     string `env:"DB_PORT" envDefault:"5432"`
	DbUSER     string `env:"DB_USER" envDefault:"postgres"`
	DbPASSWORD string `env:"DB_PASSWORD" envDefault:"password"`
	DbNAME     string `env:"DB_NAME" envDefault:"messagewall"`
	DbSSLMODE  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// DSN is shared by the sqlx pool and the notification listener.
func (d DB) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.DbHOST,
		d.DbPORT,
		d.DbUSER,
		d.DbPASSWORD,
		d.DbNAME,
		d.DbSSLMODE,
	)
}

type MinIO struct {
	Endpoint   string `env:"MINIO_ENDPOINT" envDefault:"localhost:9000"`
	AccessKey  string `env:"MINIO_ACCESS_KEY" envDefault:"minioadmin"`
	SecretKey  string `env:"MINIO_SECRET_KEY" envDefault:"minioadmin"`
	BucketName string `env:"MINIO_BUCKET_NAME" envDefault:"message-images"`
	UseSSL     bool   `env:"MINIO_USE_SSL" envDefault:"false"`
	Region     string `env:"MINIO_REGION" envDefault:"us-east-1"`
	// PublicURL overrides the scheme://endpoint prefix of image links.
	PublicURL string `env:"MINIO_PUBLIC_URL"`
}

type Wall struct {
	MaxContentLength  int    `env:"MAX_CONTENT_LENGTH" envDefault:"500"`
	MaxImageSize      int64  `env:"MAX_IMAGE_SIZE" envDefault:"5242880"`
	ModerationDefault bool   `env:"MODERATION_DEFAULT" envDefault:"false"`
	SyncMode          string `env:"SYNC_MODE" envDefault:"incremental"`
}

type Config struct {
	ServerPort         int `env:"SERVER_PORT" envDefault:"8080"`
	DB                 DB
	MinIO              MinIO
	Wall               Wall
	AdminPassword      string        `env:"ADMIN_PASSWORD"`
	JWTSecretKey       string        `env:"JWT_SECRET_KEY"`
	AdminTokenDuration time.Duration `env:"ADMIN_TOKEN_DURATION" envDefault:"12h"`
	MigrationsPath     string        `env:"MIGRATIONS_PATH" envDefault:"migrations/001_create_tables.sql"`
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Внимание: файл .env не найден, используются переменные окружения")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора переменных окружения: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecretKey == "" {
		return errors.New("JWT_SECRET_KEY не установлен")
	}
	if c.AdminPassword == "" {
		return errors.New("ADMIN_PASSWORD не установлен")
	}
	if c.Wall.SyncMode != SyncIncremental && c.Wall.SyncMode != SyncReload {
		return fmt.Errorf("неизвестный SYNC_MODE %q: ожидается %s или %s",
			c.Wall.SyncMode, SyncIncremental, SyncReload)
	}
	if c.Wall.MaxContentLength <= 0 {
		return errors.New("MAX_CONTENT_LENGTH должен быть положительным")
	}
	if c.Wall.MaxImageSize <= 0 {
		return errors.New("MAX_IMAGE_SIZE должен быть положительным")
	}
	return nil
}
