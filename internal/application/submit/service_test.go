package submit

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/buyway-mail/internal/application/dispatch"
	"github.com/baechuer/buyway-mail/internal/domain"
)

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Deliver(ctx context.Context, msg domain.RenderedMessage) (dispatch.Result, error) {
	args := m.Called(ctx, msg)
	return args.Get(0).(dispatch.Result), args.Error(1)
}

func newService(d Dispatcher) *Service {
	return NewService(NewRenderer(subject, stubClock{}), d, zerolog.Nop())
}

func TestSubmit_InvalidNeverDispatches(t *testing.T) {
	inputs := []domain.Submission{
		{},
		{Name: "Ann"},
		{Contact: "ann@example.com"},
		{Name: "   ", Contact: "ann@example.com"},
		{Name: "Ann", Contact: "\t\n"},
	}

	for _, in := range inputs {
		d := new(MockDispatcher)
		_, err := newService(d).Submit(context.Background(), in)

		var ve *domain.ValidationError
		require.True(t, errors.As(err, &ve), "input %+v", in)
		d.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)
	}
}

func TestSubmit_Delivers(t *testing.T) {
	d := new(MockDispatcher)
	d.On("Deliver", mock.Anything, mock.MatchedBy(func(m domain.RenderedMessage) bool {
		return m.Subject == subject && m.ReplyTo == "ann@example.com"
	})).Return(dispatch.Result{Outcome: dispatch.OutcomePrimary, Transport: "resend", Attempts: 1}, nil).Once()

	res, err := newService(d).Submit(context.Background(), domain.Submission{
		Name: "Ann", Contact: "ann@example.com", Link: "http://x", Comment: "hi",
	})

	require.NoError(t, err)
	assert.Equal(t, dispatch.OutcomePrimary, res.Outcome)
	d.AssertExpectations(t)
}

func TestSubmit_PropagatesDeliveryError(t *testing.T) {
	derr := &domain.DeliveryError{
		Primary:  &domain.TransportError{Tier: domain.TierPrimary, Transport: "resend", Err: errors.New("a")},
		Fallback: &domain.TransportError{Tier: domain.TierFallback, Transport: "smtp", Err: errors.New("b")},
	}
	d := new(MockDispatcher)
	d.On("Deliver", mock.Anything, mock.Anything).Return(dispatch.Result{Outcome: dispatch.OutcomeFailed, Attempts: 2}, derr)

	res, err := newService(d).Submit(context.Background(), domain.Submission{Name: "Ann", Contact: "+7 999"})

	assert.Same(t, derr, err)
	assert.Equal(t, 2, res.Attempts)
}

func TestPrepare(t *testing.T) {
	s := newService(new(MockDispatcher))

	msg, err := s.Prepare(domain.Submission{Name: "Ann", Contact: " a@b.com "})
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", msg.ReplyTo)

	_, err = s.Prepare(domain.Submission{Name: "Ann"})
	assert.Error(t, err)
}
