package email

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"github.com/baechuer/buyway-mail/internal/domain"
	"github.com/baechuer/buyway-mail/internal/pkg/redact"
)

// ImplicitTLSPort is the SMTPS port; every other port negotiates STARTTLS.
const ImplicitTLSPort = 465

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
	Insecure bool
}

// SMTPTransport opens a fresh SMTP session per message. It holds only
// immutable settings, so one instance serves all requests.
type SMTPTransport struct {
	lg zerolog.Logger

	host     string
	port     int
	user     string
	pass     string
	insecure bool

	timeout time.Duration
}

func NewSMTPTransport(cfg SMTPConfig, lg zerolog.Logger) *SMTPTransport {
	return &SMTPTransport{
		lg:       lg.With().Str("component", "smtp_transport").Int("port", cfg.Port).Logger(),
		host:     cfg.Host,
		port:     cfg.Port,
		user:     cfg.Username,
		pass:     cfg.Password,
		insecure: cfg.Insecure,
		timeout:  cfg.Timeout,
	}
}

func (s *SMTPTransport) Name() string { return "smtp" }

func (s *SMTPTransport) Addr() string { return s.host + ":" + strconv.Itoa(s.port) }

func (s *SMTPTransport) Send(ctx context.Context, msg *domain.Message) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	m, err := buildMsg(msg, t.lg)
	if err != nil {
		return err
	}

	c, err := s.client()
	if err != nil {
		return PermanentError{msg: "smtp client init failed: " + err.Error()}
	}

	s.lg.Info().Str("addr", s.Addr()).Int("rcpt", len(msg.To)).Msg("attempting smtp send")
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		s.lg.Error().Err(err).Str("addr", s.Addr()).Msg("smtp send failed")
		return classifySMTP(err)
	}

	s.lg.Info().Str("addr", s.Addr()).Msg("smtp send ok")
	return nil
}

// Verify dials, greets and authenticates, then quits without sending.
func (s *SMTPTransport) Verify(ctx context.Context) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	c, err := s.client()
	if err != nil {
		return PermanentError{msg: "smtp client init failed: " + err.Error()}
	}
	if err := c.DialWithContext(ctx); err != nil {
		return classifySMTP(err)
	}
	if err := c.Close(); err != nil {
		return TemporaryError{msg: "smtp quit failed: " + err.Error()}
	}
	return nil
}

func (s *SMTPTransport) client() (*mail.Client, error) {
	return mail.NewClient(s.host, s.options()...)
}

func (s *SMTPTransport) options() []mail.Option {
	opts := []mail.Option{mail.WithPort(s.port)}
	if s.timeout > 0 {
		opts = append(opts, mail.WithTimeout(s.timeout))
	}

	if s.port == ImplicitTLSPort {
		opts = append(opts, mail.WithSSL())
	} else {
		tlsPolicy := mail.TLSMandatory
		if s.insecure {
			tlsPolicy = mail.TLSOpportunistic
		}
		opts = append(opts, mail.WithTLSPolicy(tlsPolicy))
	}

	if s.user != "" {
		opts = append(opts, mail.WithSMTPAuth(mail.SMTPAuthPlain), mail.WithUsername(s.user), mail.WithPassword(s.pass))
	}
	return opts
}

func buildMsg(msg *domain.Message, lg zerolog.Logger) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, PermanentError{msg: "invalid from address: " + err.Error()}
	}
	if err := m.To(msg.To...); err != nil {
		return nil, PermanentError{msg: "invalid to address: " + err.Error()}
	}
	if msg.ReplyTo != "" {
		// an email-shaped but unparsable contact must not block delivery
		if err := m.ReplyTo(msg.ReplyTo); err != nil {
			lg.Warn().Err(err).Str("reply_to", redact.Email(msg.ReplyTo)).Msg("invalid reply-to, sending without it")
		}
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)
	return m, nil
}

func classifySMTP(err error) error {
	msg := err.Error()
	if containsAny(msg, "535", "5.7.8", "authentication", "Username and Password not accepted") {
		return PermanentError{msg: "smtp auth failed: " + msg}
	}
	return TemporaryError{msg: fmt.Sprintf("smtp transient failure: %s", msg)}
}
