package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/baechuer/buyway-mail/internal/domain"
	"github.com/baechuer/buyway-mail/internal/pkg/redact"
)

// FakeTransport is a development/testing transport.
// It can simulate transient/permanent failures:
//
// - "none" (default): always succeed
// - "transient": return a Temporary() error
// - "permanent": return a Permanent() error
type FakeTransport struct {
	lg   zerolog.Logger
	mode string
}

func NewFakeTransport(mode string, lg zerolog.Logger) *FakeTransport {
	return &FakeTransport{
		lg:   lg.With().Str("component", "fake_transport").Logger(),
		mode: strings.TrimSpace(strings.ToLower(mode)),
	}
}

func (t *FakeTransport) Name() string { return "fake" }

func (t *FakeTransport) Send(ctx context.Context, msg *domain.Message) error {
	t.lg.Info().
		Strs("to", msg.To).
		Str("subject", msg.Subject).
		Str("reply_to", redact.Email(msg.ReplyTo)).
		Int("html_bytes", len(msg.HTML)).
		Msg("FAKE send contact notification")

	return t.maybeFail(ctx)
}

func (t *FakeTransport) Verify(ctx context.Context) error {
	return t.maybeFail(ctx)
}

func (t *FakeTransport) maybeFail(ctx context.Context) error {
	if t.mode == "" || t.mode == "none" {
		return nil
	}

	// simulates IO
	select {
	case <-time.After(50 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}

	switch t.mode {
	case "transient":
		return TemporaryError{msg: fmt.Sprintf("fake transient failure (%s)", t.mode)}
	case "permanent":
		return PermanentError{msg: fmt.Sprintf("fake permanent failure (%s)", t.mode)}
	default:
		return nil
	}
}
