package submit

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/baechuer/buyway-mail/internal/application/dispatch"
	"github.com/baechuer/buyway-mail/internal/domain"
	"github.com/baechuer/buyway-mail/internal/metrics"
	"github.com/baechuer/buyway-mail/internal/pkg/redact"
)

type Dispatcher interface {
	Deliver(ctx context.Context, msg domain.RenderedMessage) (dispatch.Result, error)
}

type Service struct {
	renderer   *Renderer
	dispatcher Dispatcher
	lg         zerolog.Logger
}

func NewService(renderer *Renderer, dispatcher Dispatcher, lg zerolog.Logger) *Service {
	return &Service{
		renderer:   renderer,
		dispatcher: dispatcher,
		lg:         lg.With().Str("component", "submit_service").Logger(),
	}
}

// Prepare validates the submission and renders it. It never touches the network.
func (s *Service) Prepare(sub domain.Submission) (domain.RenderedMessage, error) {
	if err := sub.Validate(); err != nil {
		return domain.RenderedMessage{}, err
	}
	return s.renderer.Render(sub), nil
}

// Submit validates, renders and dispatches a submission.
func (s *Service) Submit(ctx context.Context, sub domain.Submission) (dispatch.Result, error) {
	msg, err := s.Prepare(sub)
	if err != nil {
		metrics.RecordSubmission(metrics.ResultInvalid)
		s.lg.Info().Err(err).Msg("submission rejected")
		return dispatch.Result{}, err
	}

	res, err := s.dispatcher.Deliver(ctx, msg)
	if err != nil {
		metrics.RecordSubmission(metrics.ResultFailed)
		return res, err
	}

	metrics.RecordSubmission(metrics.ResultAccepted)
	s.lg.Info().
		Str("contact", redact.Contact(sub.Contact)).
		Bool("reply_to", msg.ReplyTo != "").
		Str("outcome", res.Outcome.String()).
		Str("transport", res.Transport).
		Msg("submission delivered")
	return res, nil
}
