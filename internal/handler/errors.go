package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"messagewall/internal/models"
)

// ErrorResponse - стандартный ответ с ошибкой
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteError - универсальная функция для отправки ошибок
func WriteError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// WriteSuccess - функция для успешных ответов
func WriteSuccess(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// statusFromError maps domain errors onto HTTP codes.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, models.ErrContentTooLong),
		errors.Is(err, models.ErrEmptyMessage),
		errors.Is(err, models.ErrNotAnImage),
		errors.Is(err, models.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, models.ErrMessageNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidPassword), errors.Is(err, models.ErrInvalidToken):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// writeDomainError hides internal details behind fallback for 5xx.
func writeDomainError(w http.ResponseWriter, err error, fallback string) {
	status := statusFromError(err)
	if status == http.StatusInternalServerError {
		WriteError(w, fallback, status)
		return
	}
	WriteError(w, err.Error(), status)
}
