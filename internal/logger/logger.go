package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	appCtx "github.com/baechuer/buyway-mail/internal/pkg/context"
)

const serviceName = "buyway-mail"

var Logger zerolog.Logger

// Options are the LOG_* settings.
type Options struct {
	Level      zerolog.Level
	JSON       bool
	TimeFormat string
	NoColor    bool
	Caller     bool
}

// OptionsFromEnv reads LOG_LEVEL, LOG_FORMAT, LOG_TIME_FORMAT, LOG_COLOR and
// LOG_CALLER. An unknown level means info.
func OptionsFromEnv() Options {
	opts := Options{
		Level:      zerolog.InfoLevel,
		JSON:       env("LOG_FORMAT") == "json",
		TimeFormat: time.RFC3339,
		NoColor:    env("LOG_COLOR") == "0",
		Caller:     env("LOG_CALLER") == "1",
	}
	if lvl, err := zerolog.ParseLevel(env("LOG_LEVEL")); err == nil && lvl != zerolog.NoLevel {
		opts.Level = lvl
	}
	if tf := env("LOG_TIME_FORMAT"); tf != "" {
		opts.TimeFormat = tf
	}
	return opts
}

// New builds the service logger on w.
func New(w io.Writer, opts Options) zerolog.Logger {
	if !opts.JSON {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: opts.TimeFormat, NoColor: opts.NoColor}
	}

	zc := zerolog.New(w).Level(opts.Level).With().Timestamp().Str("service", serviceName)
	if opts.Caller {
		zc = zc.Caller()
	}
	return zc.Logger()
}

func Init() {
	InitWithWriter(os.Stdout)
}

// InitWithWriter sets both Logger and the zerolog global from the environment.
func InitWithWriter(w io.Writer) {
	Logger = New(w, OptionsFromEnv())
	zlog.Logger = Logger
}

// ForRequest tags lg with the request id carried by ctx, if any.
func ForRequest(ctx context.Context, lg zerolog.Logger) zerolog.Logger {
	id := appCtx.GetRequestID(ctx)
	if id == "" {
		return lg
	}
	return lg.With().Str("request_id", id).Logger()
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
