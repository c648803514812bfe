package http_handlers

import (
	"net/http"

	"github.com/baechuer/buyway-mail/internal/transport/http/response"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

// Root handles GET /
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	response.Text(w, http.StatusOK, "OK")
}

// Healthz handles GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	response.Text(w, http.StatusOK, "ok")
}
