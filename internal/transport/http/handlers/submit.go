package http_handlers

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/baechuer/buyway-mail/internal/application/dispatch"
	"github.com/baechuer/buyway-mail/internal/domain"
	"github.com/baechuer/buyway-mail/internal/logger"
	"github.com/baechuer/buyway-mail/internal/transport/http/response"
)

// MaxBodyBytes bounds the submit payload.
const MaxBodyBytes = 64 << 10

type Submitter interface {
	Submit(ctx context.Context, sub domain.Submission) (dispatch.Result, error)
}

type SubmitHandler struct {
	svc Submitter
	lg  zerolog.Logger
}

func NewSubmitHandler(svc Submitter, lg zerolog.Logger) *SubmitHandler {
	return &SubmitHandler{
		svc: svc,
		lg:  lg.With().Str("component", "submit_handler").Logger(),
	}
}

// Submit handles POST /api/submit
func (h *SubmitHandler) Submit(w http.ResponseWriter, r *http.Request) {
	lg := logger.ForRequest(r.Context(), h.lg)

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	var raw map[string]any
	if err := response.DecodeJSON(r, &raw); err != nil {
		lg.Info().Err(err).Msg("bad submit body")
		response.Err(w, r, err)
		return
	}

	res, err := h.svc.Submit(r.Context(), domain.SubmissionFromMap(raw))
	if err != nil {
		code := domain.CodeOf(err)
		if code == domain.CodeValidation {
			lg.Info().Err(err).Str("code", string(code)).Msg("submission rejected")
		} else {
			lg.Error().Err(err).Str("code", string(code)).Int("attempts", res.Attempts).Msg("submission not delivered")
		}
		response.Err(w, r, err)
		return
	}

	response.OK(w, r)
}
