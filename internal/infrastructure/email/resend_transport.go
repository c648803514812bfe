package email

import (
	"context"
	"errors"
	"strings"

	"github.com/resend/resend-go/v3"
	"github.com/rs/zerolog"

	"github.com/baechuer/buyway-mail/internal/domain"
)

// ResendTransport delivers through the Resend transactional API.
type ResendTransport struct {
	client *resend.Client
	lg     zerolog.Logger
}

func NewResendTransport(apiKey string, lg zerolog.Logger) *ResendTransport {
	return &ResendTransport{
		client: resend.NewClient(apiKey),
		lg:     lg.With().Str("component", "resend_transport").Logger(),
	}
}

func (t *ResendTransport) Name() string { return "resend" }

func (t *ResendTransport) Send(ctx context.Context, msg *domain.Message) error {
	sent, err := t.client.Emails.SendWithContext(ctx, resendRequest(msg))
	if err != nil {
		t.lg.Error().Err(err).Msg("resend error")
		return classifyResend(err)
	}

	t.lg.Info().Str("id", sent.Id).Msg("resend accepted message")
	return nil
}

func resendRequest(msg *domain.Message) *resend.SendEmailRequest {
	return &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		ReplyTo: msg.ReplyTo,
	}
}

// resendAPIPrefix marks errors built from an API answer. The status code is
// not kept, only the message or, without a JSON body, the HTTP status line.
const resendAPIPrefix = "[ERROR]: "

// classifyResend treats rate limits, server-side failures and errors that
// never reached the API as temporary; any other API answer is permanent.
func classifyResend(err error) error {
	msg := "resend: " + err.Error()

	var rl *resend.RateLimitError
	if errors.As(err, &rl) {
		return TemporaryError{msg: msg}
	}

	apiMsg, fromAPI := strings.CutPrefix(err.Error(), resendAPIPrefix)
	if !fromAPI {
		return TemporaryError{msg: msg}
	}
	if strings.HasPrefix(apiMsg, "5") ||
		containsAny(strings.ToLower(apiMsg), "internal server error", "service unavailable", "unknown error", "bad gateway", "gateway timeout") {
		return TemporaryError{msg: msg}
	}
	return PermanentError{msg: msg}
}
