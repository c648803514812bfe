package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"time"

	"github.com/rs/zerolog"

	"github.com/baechuer/buyway-mail/internal/domain"
)

const sendGridEndpoint = "https://api.sendgrid.com/v3/mail/send"

// SendGrid API structures
type sendGridPersonalization struct {
	To []sendGridEmail `json:"to"`
}

type sendGridEmail struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridMessage struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridEmail             `json:"from"`
	ReplyTo          *sendGridEmail            `json:"reply_to,omitempty"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// SendGridTransport delivers through the SendGrid v3 API.
type SendGridTransport struct {
	apiKey   string
	endpoint string
	client   *http.Client
	lg       zerolog.Logger
}

func NewSendGridTransport(apiKey string, timeout time.Duration, lg zerolog.Logger) *SendGridTransport {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SendGridTransport{
		apiKey:   apiKey,
		endpoint: sendGridEndpoint,
		client:   &http.Client{Timeout: timeout},
		lg:       lg.With().Str("component", "sendgrid_transport").Logger(),
	}
}

func (p *SendGridTransport) Name() string { return "sendgrid" }

func (p *SendGridTransport) Send(ctx context.Context, msg *domain.Message) error {
	jsonData, err := json.Marshal(sendGridPayload(msg))
	if err != nil {
		return PermanentError{msg: "failed to marshal SendGrid message: " + err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return PermanentError{msg: "failed to create SendGrid request: " + err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return TemporaryError{msg: "failed to send request to SendGrid: " + err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		p.lg.Error().Int("status", resp.StatusCode).Str("body", string(body)).Msg("sendgrid error")
		return classifyStatus(resp.StatusCode, fmt.Sprintf("SendGrid API error: status %d, body: %s", resp.StatusCode, string(body)))
	}

	p.lg.Info().Str("message_id", resp.Header.Get("X-Message-Id")).Msg("sendgrid accepted message")
	return nil
}

func sendGridPayload(msg *domain.Message) sendGridMessage {
	to := make([]sendGridEmail, 0, len(msg.To))
	for _, addr := range msg.To {
		to = append(to, parseSendGridEmail(addr))
	}

	out := sendGridMessage{
		Personalizations: []sendGridPersonalization{{To: to}},
		From:             parseSendGridEmail(msg.From),
		Subject:          msg.Subject,
		Content: []sendGridContent{
			{Type: "text/html", Value: msg.HTML},
		},
	}
	if msg.ReplyTo != "" {
		out.ReplyTo = &sendGridEmail{Email: msg.ReplyTo}
	}
	return out
}

// parseSendGridEmail splits "Name <addr>" into SendGrid's name/email pair.
func parseSendGridEmail(s string) sendGridEmail {
	a, err := mail.ParseAddress(s)
	if err != nil {
		return sendGridEmail{Email: s}
	}
	return sendGridEmail{Email: a.Address, Name: a.Name}
}
