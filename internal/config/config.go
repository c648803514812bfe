package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Transport kinds accepted by MAIL_PRIMARY / MAIL_FALLBACK.
const (
	TransportResend   = "resend"
	TransportSendGrid = "sendgrid"
	TransportSES      = "ses"
	TransportSMTP     = "smtp"
	TransportFake     = "fake"
	TransportNone     = "none"
)

const (
	DefaultFrom    = "BuyWay <noreply@buyway.su>"
	DefaultTo      = "buyway.service@gmail.com"
	DefaultSubject = "Новая заявка с сайта BuyWay"
)

var defaultOrigins = []string{
	"https://buyway.su",
	"https://www.buyway.su",
	"http://localhost:5173",
	"http://localhost:3000",
}

type Config struct {
	Env string

	// HTTP
	HTTPAddr         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	ShutdownWait     time.Duration
	AllowedOrigins   []string

	// Message
	MailFrom    string
	MailTo      []string
	MailSubject string

	// Tiers
	MailPrimary        string
	MailFallback       string
	MailAttemptTimeout time.Duration
	MailFallbackVerify bool

	// Resend
	ResendAPIKey string

	// SendGrid
	SendGridAPIKey string

	// AWS SES
	AWSRegion      string
	AWSAccessKeyID string
	AWSSecretKey   string

	// SMTP
	SMTPHost         string
	SMTPPort         int
	SMTPFallbackPort int
	SMTPUsername     string
	SMTPPassword     string
	SMTPTimeout      time.Duration
	SMTPInsecure     bool

	// Fake transport: "none", "transient" or "permanent"
	FakeFailMode string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Env = getEnvFirst([]string{"APP_ENV", "ENV"}, "dev")

	cfg.HTTPAddr = getEnv("HTTP_ADDR", "0.0.0.0:"+getEnv("PORT", "10000"))
	cfg.HTTPReadTimeout = getDuration("HTTP_READ_TIMEOUT", 10*time.Second)
	cfg.HTTPWriteTimeout = getDuration("HTTP_WRITE_TIMEOUT", 45*time.Second)
	cfg.HTTPIdleTimeout = getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second)
	cfg.ShutdownWait = getDuration("SHUTDOWN_WAIT", 10*time.Second)

	cfg.AllowedOrigins = splitCSV(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = append([]string(nil), defaultOrigins...)
	}

	cfg.MailFrom = getEnv("MAIL_FROM", DefaultFrom)
	cfg.MailTo = splitCSV(getEnv("MAIL_TO", DefaultTo))
	cfg.MailSubject = getEnv("MAIL_SUBJECT", DefaultSubject)

	cfg.MailPrimary = strings.ToLower(getEnv("MAIL_PRIMARY", TransportResend))
	cfg.MailFallback = strings.ToLower(getEnv("MAIL_FALLBACK", TransportSMTP))
	cfg.MailAttemptTimeout = getDuration("MAIL_ATTEMPT_TIMEOUT", 10*time.Second)
	cfg.MailFallbackVerify = getBool("MAIL_FALLBACK_VERIFY", false)

	cfg.ResendAPIKey = getEnv("RESEND_API_KEY", "")
	cfg.SendGridAPIKey = getEnv("SENDGRID_API_KEY", "")

	cfg.AWSRegion = getEnv("AWS_REGION", "us-east-1")
	cfg.AWSAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AWSSecretKey = getEnv("AWS_SECRET_ACCESS_KEY", "")

	cfg.SMTPHost = getEnv("SMTP_HOST", "smtp.gmail.com")
	cfg.SMTPPort = getInt("SMTP_PORT", 465)
	cfg.SMTPFallbackPort = getInt("SMTP_FALLBACK_PORT", 587)
	cfg.SMTPUsername = getEnv("SMTP_USERNAME", "")
	cfg.SMTPPassword = getEnv("SMTP_PASSWORD", "")
	cfg.SMTPTimeout = getDuration("SMTP_TIMEOUT", 10*time.Second)
	cfg.SMTPInsecure = getBool("SMTP_INSECURE", false)

	cfg.FakeFailMode = strings.ToLower(getEnv("FAKE_FAIL_MODE", "none"))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.MailTo) == 0 {
		return fmt.Errorf("MAIL_TO must list at least one recipient")
	}
	if c.MailPrimary == TransportNone {
		return fmt.Errorf("MAIL_PRIMARY cannot be %q", TransportNone)
	}
	if err := c.validateTier("MAIL_PRIMARY", c.MailPrimary); err != nil {
		return err
	}
	if c.HasFallback() {
		if err := c.validateTier("MAIL_FALLBACK", c.MailFallback); err != nil {
			return err
		}
	}

	// the submit answer has to be written before the server write deadline
	if budget := c.DeliveryBudget(); budget >= c.HTTPWriteTimeout {
		return fmt.Errorf("MAIL_ATTEMPT_TIMEOUT=%s allows %s of delivery, must stay below HTTP_WRITE_TIMEOUT=%s",
			c.MailAttemptTimeout, budget, c.HTTPWriteTimeout)
	}
	return nil
}

// DeliveryBudget is the longest a single submit can spend on mail: one
// attempt per tier plus the optional fallback reachability check.
func (c *Config) DeliveryBudget() time.Duration {
	steps := 1
	if c.HasFallback() {
		steps++
		if c.MailFallbackVerify {
			steps++
		}
	}
	return time.Duration(steps) * c.MailAttemptTimeout
}

func (c *Config) validateTier(key, kind string) error {
	switch kind {
	case TransportResend:
		if c.ResendAPIKey == "" {
			return fmt.Errorf("%s=resend but missing RESEND_API_KEY", key)
		}
	case TransportSendGrid:
		if c.SendGridAPIKey == "" {
			return fmt.Errorf("%s=sendgrid but missing SENDGRID_API_KEY", key)
		}
	case TransportSES:
		if c.AWSAccessKeyID == "" || c.AWSSecretKey == "" {
			return fmt.Errorf("%s=ses but missing AWS_ACCESS_KEY_ID or AWS_SECRET_ACCESS_KEY", key)
		}
	case TransportSMTP:
		if c.SMTPHost == "" {
			return fmt.Errorf("%s=smtp but missing SMTP_HOST", key)
		}
	case TransportFake:
	default:
		return fmt.Errorf("unsupported %s: %q", key, kind)
	}
	return nil
}

// HasFallback reports whether a second tier is configured.
func (c *Config) HasFallback() bool {
	return c.MailFallback != "" && c.MailFallback != TransportNone
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvFirst(keys []string, def string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return def
}

func getInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n := def
	_, _ = fmt.Sscanf(v, "%d", &n)
	if n <= 0 {
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func getBool(key string, def bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func splitCSV(s string) []string {
	raw := strings.Split(s, ",")
	out := make([]string, 0, len(raw))
	for _, x := range raw {
		x = strings.TrimSpace(x)
		if x != "" {
			out = append(out, x)
		}
	}
	return out
}
