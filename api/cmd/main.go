package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/baechuer/buyway-mail/internal/bootstrap"
	"github.com/baechuer/buyway-mail/internal/logger"
)

// defaultStopTimeout applies when the app does not report its own SHUTDOWN_WAIT.
const defaultStopTimeout = 15 * time.Second

// runner is the serving lifecycle: Start blocks, Stop drains.
type runner interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// drainer is implemented by apps with a configured shutdown budget.
type drainer interface {
	ShutdownTimeout() time.Duration
}

type builder func() (runner, func(), error)

func stopTimeout(app runner) time.Duration {
	if d, ok := app.(drainer); ok && d.ShutdownTimeout() > 0 {
		return d.ShutdownTimeout()
	}
	return defaultStopTimeout
}

// Run serves until a signal or a listener failure and returns the exit code.
// In-flight submits get the app's shutdown budget to finish.
func Run(build builder, sigCh <-chan os.Signal, lg zerolog.Logger) int {
	app, cleanup, err := build()
	if err != nil {
		lg.Error().Err(err).Msg("bootstrap failed")
		return 1
	}
	defer cleanup()

	serveCtx, cancelServe := context.WithCancel(context.Background())
	defer cancelServe()

	crashed := make(chan error, 1)
	go func() {
		if err := app.Start(serveCtx); err != nil && !errors.Is(err, context.Canceled) {
			crashed <- err
		}
	}()

	select {
	case sig := <-sigCh:
		lg.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-crashed:
		lg.Error().Err(err).Msg("server stopped unexpectedly")
		return 1
	}

	wait := stopTimeout(app)
	stopCtx, cancelStop := context.WithTimeout(context.Background(), wait)
	defer cancelStop()

	if err := app.Stop(stopCtx); err != nil {
		lg.Error().Err(err).Dur("wait", wait).Msg("graceful stop failed")
		return 1
	}

	lg.Info().Msg("shutdown complete")
	return 0
}

func main() {
	logger.Init()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	os.Exit(Run(func() (runner, func(), error) {
		app, cleanup, err := bootstrap.NewApp()
		if err != nil {
			return nil, nil, err
		}
		return app, cleanup, nil
	}, sigCh, logger.Logger))
}
