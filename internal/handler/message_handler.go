package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	"messagewall/internal/models"
	"messagewall/internal/wall"
)

// multipart overhead on top of the image itself
const formOverhead = 1 << 20

type CreateMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

type CreateMessageResponse struct {
	Message *models.Message `json:"message"`
	Notice  wall.Notice     `json:"notice"`
}

type MessagesResponse struct {
	Messages []models.Message `json:"messages"`
	Loading  bool             `json:"loading"`
}

// GetMessages serves the public feed. Only the approved partition is public.
func (h *Handlers) GetMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := models.StatusApproved
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := models.ParseStatus(raw)
		if err != nil {
			WriteError(w, err.Error(), http.StatusBadRequest)
			return
		}
		status = parsed
	}

	if status != models.StatusApproved {
		WriteError(w, "Доступ запрещен", http.StatusForbidden)
		return
	}

	snap := h.Wall.Snapshot()
	WriteSuccess(w, MessagesResponse{Messages: snap.Approved, Loading: snap.Loading}, http.StatusOK)
}

// CreateMessage accepts multipart/form-data (content, optional image) or a
// JSON body with text only.
func (h *Handlers) CreateMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		content string
		image   *models.ImageUpload
	)

	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, h.Cfg.Wall.MaxImageSize+formOverhead)
		if err := r.ParseMultipartForm(formOverhead); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				WriteError(w, models.ErrImageTooLarge.Error(), http.StatusRequestEntityTooLarge)
				return
			}
			WriteError(w, "Неверный формат запроса", http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()

		content = r.FormValue("content")

		file, header, err := r.FormFile("image")
		switch {
		case err == nil:
			defer file.Close()
			image = &models.ImageUpload{
				FileName:    header.Filename,
				Size:        header.Size,
				ContentType: header.Header.Get("Content-Type"),
				Reader:      file,
			}
		case errors.Is(err, http.ErrMissingFile):
		default:
			WriteError(w, "Ошибка чтения файла", http.StatusBadRequest)
			return
		}
	} else {
		var req CreateMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, "Неверный формат запроса", http.StatusBadRequest)
			return
		}
		if err := h.Validate.Struct(req); err != nil {
			WriteError(w, models.ErrEmptyMessage.Error(), http.StatusBadRequest)
			return
		}
		content = req.Content
	}

	if strings.TrimSpace(content) == "" && image == nil {
		WriteError(w, models.ErrEmptyMessage.Error(), http.StatusBadRequest)
		return
	}

	msg, notice, err := h.Wall.AddMessage(r.Context(), content, image)
	if err != nil {
		writeDomainError(w, err, notice.Description)
		return
	}

	WriteSuccess(w, CreateMessageResponse{Message: msg, Notice: notice}, http.StatusCreated)
}
