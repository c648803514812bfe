package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	"github.com/baechuer/buyway-mail/internal/domain"
)

type SESConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// sesAPI is the part of *sesv2.Client the transport uses.
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESTransport delivers through Amazon SES v2.
type SESTransport struct {
	client sesAPI
	lg     zerolog.Logger
}

func NewSESTransport(ctx context.Context, cfg SESConfig, lg zerolog.Logger) (*SESTransport, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return newSESTransport(sesv2.NewFromConfig(awsCfg), lg), nil
}

func newSESTransport(client sesAPI, lg zerolog.Logger) *SESTransport {
	return &SESTransport{
		client: client,
		lg:     lg.With().Str("component", "ses_transport").Logger(),
	}
}

func (t *SESTransport) Name() string { return "ses" }

func (t *SESTransport) Send(ctx context.Context, msg *domain.Message) error {
	out, err := t.client.SendEmail(ctx, sesInput(msg))
	if err != nil {
		t.lg.Error().Err(err).Msg("ses error")
		return classifySES(err)
	}

	t.lg.Info().Str("message_id", aws.ToString(out.MessageId)).Msg("ses accepted message")
	return nil
}

func sesInput(msg *domain.Message) *sesv2.SendEmailInput {
	in := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.From),
		Destination: &sestypes.Destination{
			ToAddresses: append([]string(nil), msg.To...),
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &sestypes.Body{
					Html: &sestypes.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")},
				},
			},
		},
	}
	if msg.ReplyTo != "" {
		in.ReplyToAddresses = []string{msg.ReplyTo}
	}
	return in
}

func classifySES(err error) error {
	msg := "ses: " + err.Error()

	var ae smithy.APIError
	if errors.As(err, &ae) {
		if ae.ErrorCode() == "TooManyRequestsException" || ae.ErrorFault() == smithy.FaultServer {
			return TemporaryError{msg: msg}
		}
		return PermanentError{msg: msg}
	}
	return TemporaryError{msg: msg}
}
