package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"messagewall/internal/config"
	"messagewall/internal/models"
)

const adminSubject = "admin"

// AdminService is the lightweight gate in front of the moderation views.
type AdminService interface {
	Login(password string) (string, time.Time, error)
	ValidateToken(tokenString string) error
}

type adminService struct {
	passwordHash  []byte
	secret        []byte
	tokenDuration time.Duration
}

func NewAdminService(cfg *config.Config) (AdminService, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("ошибка хеширования пароля администратора: %w", err)
	}

	return &adminService{
		passwordHash:  hash,
		secret:        []byte(cfg.JWTSecretKey),
		tokenDuration: cfg.AdminTokenDuration,
	}, nil
}

func (s *adminService) Login(password string) (string, time.Time, error) {
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", time.Time{}, models.ErrInvalidPassword
	}

	now := time.Now()
	expiresAt := now.Add(s.tokenDuration)

	claims := jwt.RegisteredClaims{
		Subject:   adminSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("ошибка подписи токена: %w", err)
	}

	return tokenString, expiresAt, nil
}

func (s *adminService) ValidateToken(tokenString string) error {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrInvalidToken, err)
	}

	if !token.Valid || claims.Subject != adminSubject {
		return models.ErrInvalidToken
	}

	return nil
}

// IsAuthError reports whether err came from a failed login or token check.
func IsAuthError(err error) bool {
	return errors.Is(err, models.ErrInvalidPassword) || errors.Is(err, models.ErrInvalidToken)
}
