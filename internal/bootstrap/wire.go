package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/baechuer/buyway-mail/internal/application/dispatch"
	"github.com/baechuer/buyway-mail/internal/application/submit"
	"github.com/baechuer/buyway-mail/internal/config"
	"github.com/baechuer/buyway-mail/internal/domain"
	infraemail "github.com/baechuer/buyway-mail/internal/infrastructure/email"
	"github.com/baechuer/buyway-mail/internal/metrics"
	http_handlers "github.com/baechuer/buyway-mail/internal/transport/http/handlers"
	"github.com/baechuer/buyway-mail/internal/transport/http/router"
)

// transportInitTimeout bounds provider client setup (AWS config loading).
const transportInitTimeout = 10 * time.Second

type App struct {
	srv *http.Server
	cfg *config.Config
	lg  zerolog.Logger

	stopOnce sync.Once
	stopErr  error
}

type Deps struct {
	LoadConfig   func() (*config.Config, error)
	NewTransport func(ctx context.Context, kind string, tier domain.Tier, cfg *config.Config, lg zerolog.Logger) (dispatch.Transport, error)

	// Clock stamps the rendered message; nil means wall clock.
	Clock  submit.Clock
	Logger *zerolog.Logger
}

func NewApp() (*App, func(), error) {
	return newApp(defaultDeps())
}

// NewAppWithDeps allows injecting dependencies for testing
func NewAppWithDeps(deps Deps) (*App, func(), error) {
	return newApp(deps)
}

func newApp(deps Deps) (*App, func(), error) {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	lg := log.Logger
	if deps.Logger != nil {
		lg = *deps.Logger
	}

	// Transports are built once and shared by every request.
	ctx, cancel := context.WithTimeout(context.Background(), transportInitTimeout)
	defer cancel()

	primary, err := deps.NewTransport(ctx, cfg.MailPrimary, domain.TierPrimary, cfg, lg)
	if err != nil {
		return nil, nil, fmt.Errorf("primary transport: %w", err)
	}

	var fallback dispatch.Transport
	if cfg.HasFallback() {
		fallback, err = deps.NewTransport(ctx, cfg.MailFallback, domain.TierFallback, cfg, lg)
		if err != nil {
			return nil, nil, fmt.Errorf("fallback transport: %w", err)
		}
	}

	lg.Info().
		Str("primary", cfg.MailPrimary).
		Str("fallback", cfg.MailFallback).
		Dur("attempt_timeout", cfg.MailAttemptTimeout).
		Bool("verify_fallback", cfg.MailFallbackVerify).
		Msg("mail tiers configured")

	dispatcher := dispatch.New(primary, fallback, dispatch.Config{
		From:           cfg.MailFrom,
		To:             cfg.MailTo,
		AttemptTimeout: cfg.MailAttemptTimeout,
		VerifyFallback: cfg.MailFallbackVerify,
		Deadline:       deliveryDeadline(cfg.HTTPWriteTimeout),
	}, lg)

	renderer := submit.NewRenderer(cfg.MailSubject, deps.Clock)
	svc := submit.NewService(renderer, dispatcher, lg)

	mux, err := router.New(router.Deps{
		Health:         http_handlers.NewHealthHandler(),
		Submit:         http_handlers.NewSubmitHandler(svc, lg),
		Diag:           http_handlers.NewDiagHandler(dispatcher),
		Metrics:        metrics.Handler(),
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         lg,
	})
	if err != nil {
		return nil, nil, err
	}

	app := &App{
		srv: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      mux,
			ReadTimeout:  cfg.HTTPReadTimeout,
			WriteTimeout: cfg.HTTPWriteTimeout,
			IdleTimeout:  cfg.HTTPIdleTimeout,
		},
		cfg: cfg,
		lg:  lg,
	}

	// no-op after a graceful Stop; closes the listener if Run never got there
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownWait)
		defer cancel()
		_ = app.Stop(ctx)
	}

	return app, cleanup, nil
}

// deliveryDeadline keeps a whole delivery inside the server write deadline,
// leaving a tenth of it (at most a second) to write the answer.
func deliveryDeadline(writeTimeout time.Duration) time.Duration {
	if writeTimeout <= 0 {
		return 0
	}
	margin := writeTimeout / 10
	if margin > time.Second {
		margin = time.Second
	}
	return writeTimeout - margin
}

func (a *App) Addr() string { return a.srv.Addr }

func (a *App) Handler() http.Handler { return a.srv.Handler }

// ShutdownTimeout is how long Stop may drain in-flight submits (SHUTDOWN_WAIT).
func (a *App) ShutdownTimeout() time.Duration { return a.cfg.ShutdownWait }

// Start serves HTTP until ctx is cancelled or Stop is called.
func (a *App) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownWait)
		defer cancel()
		_ = a.Stop(stopCtx)
	}()

	a.lg.Info().Str("addr", a.srv.Addr).Msg("buyway-mail listening")
	err := a.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop drains the server once; later calls return the first result.
func (a *App) Stop(ctx context.Context) error {
	a.stopOnce.Do(func() {
		a.lg.Info().Dur("wait", a.cfg.ShutdownWait).Msg("buyway-mail shutting down")
		a.stopErr = a.srv.Shutdown(ctx)
	})
	return a.stopErr
}

// NewTransport builds the transport of one tier. An SMTP fallback uses
// SMTP_FALLBACK_PORT so the two tiers can reach the same host differently.
func NewTransport(ctx context.Context, kind string, tier domain.Tier, cfg *config.Config, lg zerolog.Logger) (dispatch.Transport, error) {
	lg = lg.With().Str("tier", tier.String()).Logger()

	switch kind {
	case config.TransportResend:
		return infraemail.NewResendTransport(cfg.ResendAPIKey, lg), nil
	case config.TransportSendGrid:
		return infraemail.NewSendGridTransport(cfg.SendGridAPIKey, cfg.MailAttemptTimeout, lg), nil
	case config.TransportSES:
		t, err := infraemail.NewSESTransport(ctx, infraemail.SESConfig{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretKey,
		}, lg)
		if err != nil {
			return nil, err
		}
		return t, nil
	case config.TransportSMTP:
		port := cfg.SMTPPort
		if tier == domain.TierFallback {
			port = cfg.SMTPFallbackPort
		}
		return infraemail.NewSMTPTransport(infraemail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     port,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			Timeout:  cfg.SMTPTimeout,
			Insecure: cfg.SMTPInsecure,
		}, lg), nil
	case config.TransportFake:
		return infraemail.NewFakeTransport(cfg.FakeFailMode, lg), nil
	default:
		return nil, fmt.Errorf("unsupported transport %q", kind)
	}
}

func defaultDeps() Deps {
	return Deps{
		LoadConfig:   config.Load,
		NewTransport: NewTransport,
	}
}
