package handlers

import (
	"net/http"

	"messagewall/internal/models"
)

type StatsResponse struct {
	Counts map[models.Status]int `json:"counts"`
	Total  int                   `json:"total"`
}

func (h *Handlers) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	counts, err := h.MessageRepo.CountByStatus(r.Context())
	if err != nil {
		WriteError(w, "Не удалось получить статистику", http.StatusInternalServerError)
		return
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	WriteSuccess(w, StatsResponse{Counts: counts, Total: total}, http.StatusOK)
}

func (h *Handlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.Health.HealthCheck(); err != nil {
		WriteError(w, "База данных недоступна", http.StatusServiceUnavailable)
		return
	}
	WriteSuccess(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (h *Handlers) HomeHandler(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, map[string]interface{}{
		"service": "message-wall",
		"endpoints": []string{
			"GET /api/messages",
			"POST /api/messages",
			"GET /api/stats",
			"POST /api/admin/login",
			"GET /ws",
		},
	}, http.StatusOK)
}
