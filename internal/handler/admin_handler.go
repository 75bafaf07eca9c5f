package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"messagewall/internal/models"
)

type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected archived"`
}

type StatusAcceptedResponse struct {
	ID     string        `json:"id"`
	Status models.Status `json:"status"`
}

type ModerationRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type ModerationResponse struct {
	ModerationEnabled bool `json:"moderation_enabled"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, "Пароль обязателен", http.StatusBadRequest)
		return
	}

	token, expiresAt, err := h.Admin.Login(req.Password)
	if err != nil {
		WriteError(w, "Неверный пароль", http.StatusUnauthorized)
		return
	}

	WriteSuccess(w, LoginResponse{Token: token, ExpiresAt: expiresAt}, http.StatusOK)
}

// AdminMessages returns every partition and the loading flag.
func (h *Handlers) AdminMessages(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, h.Wall.Snapshot(), http.StatusOK)
}

// UpdateMessageStatus answers 202: the board picks the change up from the
// feed, not from this request.
func (h *Handlers) UpdateMessageStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		WriteError(w, "Неверный URL", http.StatusBadRequest)
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, models.ErrInvalidStatus.Error(), http.StatusBadRequest)
		return
	}

	status := models.Status(req.Status)
	if err := h.Wall.UpdateMessageStatus(r.Context(), id, status); err != nil {
		writeDomainError(w, err, "Не удалось изменить сообщение")
		return
	}

	WriteSuccess(w, StatusAcceptedResponse{ID: id, Status: status}, http.StatusAccepted)
}

func (h *Handlers) ArchiveMessage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		WriteError(w, "Неверный URL", http.StatusBadRequest)
		return
	}

	if err := h.Wall.ArchiveMessage(r.Context(), id); err != nil {
		writeDomainError(w, err, "Не удалось архивировать сообщение")
		return
	}

	WriteSuccess(w, StatusAcceptedResponse{ID: id, Status: models.StatusArchived}, http.StatusAccepted)
}

func (h *Handlers) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		WriteError(w, "Неверный URL", http.StatusBadRequest)
		return
	}

	if err := h.Wall.DeleteMessage(r.Context(), id); err != nil {
		writeDomainError(w, err, "Не удалось удалить сообщение")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) GetModeration(w http.ResponseWriter, r *http.Request) {
	enabled := h.Moderation.GetModerationStatus(r.Context())
	WriteSuccess(w, ModerationResponse{ModerationEnabled: enabled}, http.StatusOK)
}

func (h *Handlers) UpdateModeration(w http.ResponseWriter, r *http.Request) {
	var req ModerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, "Поле enabled обязательно", http.StatusBadRequest)
		return
	}

	if err := h.Moderation.UpdateModerationSetting(r.Context(), *req.Enabled); err != nil {
		WriteError(w, models.ErrSettingUpdate.Error(), http.StatusInternalServerError)
		return
	}

	WriteSuccess(w, ModerationResponse{ModerationEnabled: *req.Enabled}, http.StatusOK)
}
