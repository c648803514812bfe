package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/baechuer/buyway-mail/internal/domain"
	"github.com/baechuer/buyway-mail/internal/metrics"
	"github.com/baechuer/buyway-mail/internal/pkg/redact"
)

var (
	ErrUnknownTransport = errors.New("transport is not configured on any tier")
	ErrProbeUnsupported = errors.New("transport has no reachability check")
)

// Transport hands a message to a provider. Implementations must be safe for
// concurrent use and must not modify msg.
type Transport interface {
	Name() string
	Send(ctx context.Context, msg *domain.Message) error
}

// Verifier is implemented by transports that can check reachability without
// sending anything.
type Verifier interface {
	Verify(ctx context.Context) error
}

type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomePrimary
	OutcomeFallback
)

func (o Outcome) String() string {
	switch o {
	case OutcomePrimary:
		return "primary"
	case OutcomeFallback:
		return "fallback"
	default:
		return "failed"
	}
}

// Result describes how a Deliver call ended. Attempts counts sends that
// actually reached a transport.
type Result struct {
	Outcome   Outcome
	Transport string
	Attempts  int
}

type Config struct {
	From           string
	To             []string
	AttemptTimeout time.Duration
	VerifyFallback bool
	// Deadline bounds a whole Deliver call, fallback included. Zero means
	// only the per-attempt timeouts apply.
	Deadline time.Duration
}

type Dispatcher struct {
	primary  Transport
	fallback Transport // nil: single tier
	cfg      Config
	lg       zerolog.Logger
}

func New(primary, fallback Transport, cfg Config, lg zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		primary:  primary,
		fallback: fallback,
		cfg:      cfg,
		lg:       lg.With().Str("component", "dispatcher").Logger(),
	}
}

// Deliver sends msg via the primary tier and, only after that attempt has
// fully failed, once via the fallback tier.
func (d *Dispatcher) Deliver(ctx context.Context, rm domain.RenderedMessage) (Result, error) {
	if d.cfg.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.Deadline)
		defer cancel()
	}

	msg := d.envelope(rm)

	perr := d.attempt(ctx, domain.TierPrimary, d.primary, msg)
	if perr == nil {
		return Result{Outcome: OutcomePrimary, Transport: d.primary.Name(), Attempts: 1}, nil
	}

	d.lg.Warn().
		Err(perr.Err).
		Str("transport", perr.Transport).
		Bool("temporary", perr.Temporary).
		Msg("primary delivery failed")

	if d.fallback == nil {
		derr := &domain.DeliveryError{Primary: perr}
		d.lg.Error().Err(derr).Msg("delivery failed, no fallback tier configured")
		return Result{Outcome: OutcomeFailed, Attempts: 1}, derr
	}

	// client went away or the delivery deadline passed: no second send
	if err := ctx.Err(); err != nil {
		derr := &domain.DeliveryError{
			Primary:  perr,
			Fallback: &domain.TransportError{Tier: domain.TierFallback, Transport: d.fallback.Name(), Err: err},
		}
		d.lg.Error().Err(derr).Msg("request cancelled before fallback")
		return Result{Outcome: OutcomeFailed, Attempts: 1}, derr
	}

	metrics.RecordFallback(d.primary.Name(), d.fallback.Name())

	if d.cfg.VerifyFallback {
		if v, ok := d.fallback.(Verifier); ok {
			if err := d.verify(ctx, v); err != nil {
				derr := &domain.DeliveryError{
					Primary:  perr,
					Fallback: &domain.TransportError{Tier: domain.TierFallback, Transport: d.fallback.Name(), Temporary: true, Err: err},
				}
				d.lg.Error().
					Str("primary_error", perr.Err.Error()).
					Str("fallback_error", err.Error()).
					Msg("fallback unreachable, delivery failed on both tiers")
				return Result{Outcome: OutcomeFailed, Attempts: 1}, derr
			}
		}
	}

	ferr := d.attempt(ctx, domain.TierFallback, d.fallback, msg)
	if ferr == nil {
		d.lg.Info().
			Str("transport", d.fallback.Name()).
			Str("primary_error", perr.Err.Error()).
			Msg("delivered via fallback")
		return Result{Outcome: OutcomeFallback, Transport: d.fallback.Name(), Attempts: 2}, nil
	}

	derr := &domain.DeliveryError{Primary: perr, Fallback: ferr}
	d.lg.Error().
		Str("primary_transport", perr.Transport).
		Str("primary_error", perr.Err.Error()).
		Str("fallback_transport", ferr.Transport).
		Str("fallback_error", ferr.Err.Error()).
		Str("reply_to", redact.Email(msg.ReplyTo)).
		Msg("delivery failed on both tiers")
	return Result{Outcome: OutcomeFailed, Attempts: 2}, derr
}

// Probe checks reachability of every tier that uses the named transport,
// primary first, and returns the first tier that answered.
func (d *Dispatcher) Probe(ctx context.Context, transport string) (domain.Tier, error) {
	var (
		matched    bool
		verifiable bool
		derr       domain.DeliveryError
	)

	for _, tt := range d.tiers() {
		if tt.transport.Name() != transport {
			continue
		}
		matched = true

		v, ok := tt.transport.(Verifier)
		if !ok {
			continue
		}
		verifiable = true

		err := d.verify(ctx, v)
		if err == nil {
			return tt.tier, nil
		}

		te := &domain.TransportError{Tier: tt.tier, Transport: transport, Err: err}
		if tt.tier == domain.TierPrimary {
			derr.Primary = te
		} else {
			derr.Fallback = te
		}
		d.lg.Warn().Err(err).Str("tier", tt.tier.String()).Str("transport", transport).Msg("probe failed")
	}

	switch {
	case !matched:
		return domain.TierPrimary, ErrUnknownTransport
	case !verifiable:
		return domain.TierPrimary, ErrProbeUnsupported
	default:
		return domain.TierPrimary, &derr
	}
}

type tier struct {
	tier      domain.Tier
	transport Transport
}

func (d *Dispatcher) tiers() []tier {
	out := []tier{{tier: domain.TierPrimary, transport: d.primary}}
	if d.fallback != nil {
		out = append(out, tier{tier: domain.TierFallback, transport: d.fallback})
	}
	return out
}

func (d *Dispatcher) envelope(rm domain.RenderedMessage) *domain.Message {
	return &domain.Message{
		From:    d.cfg.From,
		To:      append([]string(nil), d.cfg.To...),
		Subject: rm.Subject,
		HTML:    rm.HTML,
		ReplyTo: rm.ReplyTo,
	}
}

func (d *Dispatcher) attempt(ctx context.Context, t domain.Tier, tr Transport, msg *domain.Message) *domain.TransportError {
	actx, cancel := d.bound(ctx)
	defer cancel()

	start := time.Now()
	err := tr.Send(actx, msg)
	elapsed := time.Since(start)

	if err == nil {
		metrics.RecordAttempt(t.String(), tr.Name(), metrics.OutcomeSuccess, elapsed)
		d.lg.Debug().Str("tier", t.String()).Str("transport", tr.Name()).Dur("elapsed", elapsed).Msg("send accepted")
		return nil
	}

	outcome := metrics.OutcomeFailure
	timedOut := errors.Is(err, context.DeadlineExceeded) || errors.Is(actx.Err(), context.DeadlineExceeded)
	if timedOut {
		outcome = metrics.OutcomeTimedOut
	}
	metrics.RecordAttempt(t.String(), tr.Name(), outcome, elapsed)

	return &domain.TransportError{
		Tier:      t,
		Transport: tr.Name(),
		Temporary: timedOut || isTemporary(err),
		Err:       err,
	}
}

func (d *Dispatcher) verify(ctx context.Context, v Verifier) error {
	vctx, cancel := d.bound(ctx)
	defer cancel()
	return v.Verify(vctx)
}

func (d *Dispatcher) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.cfg.AttemptTimeout > 0 {
		return context.WithTimeout(ctx, d.cfg.AttemptTimeout)
	}
	return context.WithCancel(ctx)
}

func isTemporary(err error) bool {
	var tm interface{ Temporary() bool }
	return errors.As(err, &tm) && tm.Temporary()
}
