package http_handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/buyway-mail/internal/application/dispatch"
	"github.com/baechuer/buyway-mail/internal/domain"
	"github.com/baechuer/buyway-mail/internal/transport/http/response"
)

type Prober interface {
	Probe(ctx context.Context, transport string) (domain.Tier, error)
}

type DiagHandler struct {
	prober Prober
}

func NewDiagHandler(p Prober) *DiagHandler {
	return &DiagHandler{prober: p}
}

// Transport handles GET /diag/{transport}. It only checks reachability and
// never sends mail.
func (h *DiagHandler) Transport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "transport")

	tier, err := h.prober.Probe(r.Context(), name)
	switch {
	case err == nil:
		response.Text(w, http.StatusOK, fmt.Sprintf("%s OK (%s)", name, tier))
	case errors.Is(err, dispatch.ErrUnknownTransport):
		response.Text(w, http.StatusNotFound, fmt.Sprintf("%s: %v", name, err))
	case errors.Is(err, dispatch.ErrProbeUnsupported):
		response.Text(w, http.StatusNotImplemented, fmt.Sprintf("%s: %v", name, err))
	default:
		response.Text(w, http.StatusInternalServerError, err.Error())
	}
}
