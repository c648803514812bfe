package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/baechuer/buyway-mail/internal/logger"
	"github.com/baechuer/buyway-mail/internal/transport/http/response"
)

// Recover turns a handler panic into a logged 500 so the process keeps serving.
// http.ErrAbortHandler is re-raised, as net/http expects.
func Recover(lg zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				rl := logger.ForRequest(r.Context(), lg)
				rl.Error().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				response.Error(w, r, http.StatusInternalServerError, "internal error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
