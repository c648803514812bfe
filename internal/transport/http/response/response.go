package response

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/baechuer/buyway-mail/internal/domain"
)

const msgInternal = "internal error"

// Body is the envelope of every JSON answer of the submit API.
type Body struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func OK(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, Body{OK: true})
}

func Error(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, Body{OK: false, Error: msg})
}

// Err converts a domain error into a JSON error answer.
// Delivery and unknown errors get a generic message; provider details stay in logs.
func Err(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(err)
	Error(w, r, status, msg)
}

func classify(err error) (int, string) {
	switch domain.CodeOf(err) {
	case domain.CodeValidation:
		var ve *domain.ValidationError
		if errors.As(err, &ve) && ve.Message != "" {
			return http.StatusBadRequest, ve.Message
		}
		return http.StatusBadRequest, domain.MsgRequiredFields
	case domain.CodeDelivery, domain.CodeTransport:
		return http.StatusInternalServerError, domain.MsgDeliveryFailed
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func Text(w http.ResponseWriter, status int, s string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(s))
}
