package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/buyway-mail/internal/application/dispatch"
	"github.com/baechuer/buyway-mail/internal/application/submit"
	"github.com/baechuer/buyway-mail/internal/domain"
	"github.com/baechuer/buyway-mail/internal/metrics"
	http_handlers "github.com/baechuer/buyway-mail/internal/transport/http/handlers"
)

type recordingTransport struct {
	name string
	err  error

	mu   sync.Mutex
	sent []domain.Message
}

func (t *recordingTransport) Name() string { return t.name }

func (t *recordingTransport) Send(_ context.Context, msg *domain.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, *msg)
	return t.err
}

func (t *recordingTransport) Verify(context.Context) error { return t.err }

func (t *recordingTransport) calls() []domain.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.Message(nil), t.sent...)
}

type panicHandler struct{}

func (panicHandler) Transport(http.ResponseWriter, *http.Request) { panic("diag exploded") }

type fixedClock struct{}

func (fixedClock) Now() time.Time { return time.Date(2025, 12, 26, 12, 30, 5, 0, time.UTC) }

func newTestRouter(t *testing.T, primary, fallback *recordingTransport) http.Handler {
	t.Helper()

	var fb dispatch.Transport
	if fallback != nil {
		fb = fallback
	}

	lg := zerolog.Nop()
	d := dispatch.New(primary, fb, dispatch.Config{
		From:           "BuyWay <noreply@buyway.su>",
		To:             []string{"buyway.service@gmail.com"},
		AttemptTimeout: time.Second,
	}, lg)
	svc := submit.NewService(submit.NewRenderer("Новая заявка с сайта BuyWay", fixedClock{}), d, lg)

	h, err := New(Deps{
		Health:         http_handlers.NewHealthHandler(),
		Submit:         http_handlers.NewSubmitHandler(svc, lg),
		Diag:           http_handlers.NewDiagHandler(d),
		Metrics:        metrics.Handler(),
		AllowedOrigins: []string{"https://buyway.su", "https://www.buyway.su"},
		Logger:         lg,
	})
	require.NoError(t, err)
	return h
}

func post(h http.Handler, body string, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/submit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestNew_RequiresHandlers(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)

	_, err = New(Deps{Health: http_handlers.NewHealthHandler()})
	assert.Error(t, err)
}

func TestRouter_Health(t *testing.T) {
	h := newTestRouter(t, &recordingTransport{name: "resend"}, nil)

	for path, want := range map[string]string{"/": "OK", "/healthz": "ok"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.Equal(t, want, rr.Body.String(), path)
		assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))
		assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	}
}

func TestRouter_SubmitOnHealthyPrimary(t *testing.T) {
	primary := &recordingTransport{name: "resend"}
	fallback := &recordingTransport{name: "smtp"}
	h := newTestRouter(t, primary, fallback)

	rr := post(h, `{"name":"Ann","contact":"ann@example.com","link":"http://x","comment":"hi"}`, "https://buyway.su")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true}`, rr.Body.String())
	assert.Equal(t, "https://buyway.su", rr.Header().Get("Access-Control-Allow-Origin"))

	sent := primary.calls()
	require.Len(t, sent, 1)
	assert.Equal(t, "Новая заявка с сайта BuyWay", sent[0].Subject)
	assert.Equal(t, "ann@example.com", sent[0].ReplyTo)
	assert.Equal(t, []string{"buyway.service@gmail.com"}, sent[0].To)
	assert.Contains(t, sent[0].HTML, "http://x")
	assert.Empty(t, fallback.calls())
}

func TestRouter_SubmitInvalidMakesNoSend(t *testing.T) {
	primary := &recordingTransport{name: "resend"}
	fallback := &recordingTransport{name: "smtp"}
	h := newTestRouter(t, primary, fallback)

	for _, body := range []string{`{}`, `{"name":"Ann"}`, `{"name":"   ","contact":"x"}`, `null`} {
		rr := post(h, body, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
		assert.JSONEq(t, `{"ok":false,"error":"Имя и контакт обязательны"}`, rr.Body.String(), body)
	}

	rr := post(h, `{"name":`, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"ok":false,"error":"invalid JSON body"}`, rr.Body.String())

	assert.Empty(t, primary.calls())
	assert.Empty(t, fallback.calls())
}

func TestRouter_SubmitEscapesInput(t *testing.T) {
	primary := &recordingTransport{name: "resend"}
	h := newTestRouter(t, primary, nil)

	rr := post(h, `{"name":"<script>alert(1)</script>","contact":"x"}`, "")
	require.Equal(t, http.StatusOK, rr.Code)

	sent := primary.calls()
	require.Len(t, sent, 1)
	assert.NotContains(t, sent[0].HTML, "<script>")
	assert.Contains(t, sent[0].HTML, "&lt;script&gt;")
	assert.Empty(t, sent[0].ReplyTo)
}

func TestRouter_SubmitFallsBack(t *testing.T) {
	primary := &recordingTransport{name: "resend", err: errors.New("503 upstream")}
	fallback := &recordingTransport{name: "smtp"}
	h := newTestRouter(t, primary, fallback)

	rr := post(h, `{"name":"Ann","contact":"+7 900 000-00-00"}`, "")

	assert.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, primary.calls(), 1)
	require.Len(t, fallback.calls(), 1)
	assert.Equal(t, primary.calls()[0], fallback.calls()[0])
}

func TestRouter_SubmitBothTiersFail(t *testing.T) {
	primary := &recordingTransport{name: "resend", err: errors.New("invalid_api_key re_123")}
	fallback := &recordingTransport{name: "smtp", err: errors.New("535 Username and Password not accepted")}
	h := newTestRouter(t, primary, fallback)

	rr := post(h, `{"name":"Ann","contact":"ann@example.com"}`, "")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"ok":false,"error":"mail send failed"}`, rr.Body.String())
	assert.NotContains(t, rr.Body.String(), "re_123")
	assert.Len(t, primary.calls(), 1)
	assert.Len(t, fallback.calls(), 1)
}

func TestRouter_CORS(t *testing.T) {
	primary := &recordingTransport{name: "resend"}
	h := newTestRouter(t, primary, nil)

	rr := post(h, `{"name":"Ann","contact":"x"}`, "https://evil.example")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.JSONEq(t, `{"ok":false,"error":"origin not allowed"}`, rr.Body.String())
	assert.Empty(t, primary.calls())

	req := httptest.NewRequest(http.MethodOptions, "/api/submit", nil)
	req.Header.Set("Origin", "https://www.buyway.su")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://www.buyway.su", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_Diag(t *testing.T) {
	h := newTestRouter(t, &recordingTransport{name: "resend"}, &recordingTransport{name: "smtp", err: errors.New("connection refused")})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/diag/resend", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "resend OK (primary)", rr.Body.String())

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/diag/smtp", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "connection refused")

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/diag/ses", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_RecoversPanics(t *testing.T) {
	lg := zerolog.Nop()
	h, err := New(Deps{
		Health: http_handlers.NewHealthHandler(),
		Submit: http_handlers.NewSubmitHandler(nil, lg),
		Diag:   panicHandler{},
		Logger: lg,
	})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/diag/smtp", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_Metrics(t *testing.T) {
	h := newTestRouter(t, &recordingTransport{name: "resend"}, nil)
	_ = post(h, `{"name":"Ann","contact":"x"}`, "")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "contact_submissions_total")
	assert.Contains(t, rr.Body.String(), "buyway_mail_http_requests_total")
}

func TestRouter_CountsRecoveredPanics(t *testing.T) {
	lg := zerolog.Nop()
	h, err := New(Deps{
		Health:  http_handlers.NewHealthHandler(),
		Submit:  http_handlers.NewSubmitHandler(nil, lg),
		Diag:    panicHandler{},
		Metrics: metrics.Handler(),
		Logger:  lg,
	})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/diag/ses", nil))
	require.Equal(t, http.StatusInternalServerError, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rr.Body.String(), `buyway_mail_http_requests_total{method="GET",path="/diag/{transport}",status="500"}`)
}
