package router

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/baechuer/buyway-mail/internal/transport/http/middleware"
)

type HealthHandler interface {
	Root(w http.ResponseWriter, r *http.Request)
	Healthz(w http.ResponseWriter, r *http.Request)
}

type SubmitHandler interface {
	Submit(w http.ResponseWriter, r *http.Request)
}

type DiagHandler interface {
	Transport(w http.ResponseWriter, r *http.Request)
}

type Deps struct {
	Health HealthHandler
	Submit SubmitHandler
	Diag   DiagHandler

	// Metrics serves /metrics when set.
	Metrics http.Handler

	AllowedOrigins []string
	Logger         zerolog.Logger
}

func New(deps Deps) (http.Handler, error) {
	if deps.Health == nil {
		return nil, fmt.Errorf("nil Health handler")
	}
	if deps.Submit == nil {
		return nil, fmt.Errorf("nil Submit handler")
	}
	if deps.Diag == nil {
		return nil, fmt.Errorf("nil Diag handler")
	}

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(deps.Logger))
	// Metrics sits outside Recover so recovered panics count as 500s
	r.Use(middleware.Metrics)
	r.Use(middleware.Recover(deps.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(deps.AllowedOrigins))

	r.Get("/", deps.Health.Root)
	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/diag/{transport}", deps.Diag.Transport)
	r.Post("/api/submit", deps.Submit.Submit)

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	return r, nil
}
