package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_submissions_total",
			Help: "Total number of contact-form submissions by result",
		},
		[]string{"result"},
	)

	deliveryAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_delivery_attempts_total",
			Help: "Total number of send attempts per tier and transport",
		},
		[]string{"tier", "transport", "outcome"},
	)

	sendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mail_send_duration_seconds",
			Help:    "Send attempt duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"tier", "transport"},
	)

	fallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_fallback_total",
			Help: "Total number of switches from the primary to the fallback tier",
		},
		[]string{"from", "to"},
	)
)

// Submission results.
const (
	ResultAccepted = "accepted"
	ResultInvalid  = "invalid"
	ResultFailed   = "failed"
)

// Attempt outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeTimedOut = "timeout"
)

// RecordSubmission counts a handled submission.
func RecordSubmission(result string) {
	submissionsTotal.WithLabelValues(result).Inc()
}

// RecordAttempt records one send attempt on a tier.
func RecordAttempt(tier, transport, outcome string, duration time.Duration) {
	deliveryAttemptsTotal.WithLabelValues(tier, transport, outcome).Inc()
	sendDuration.WithLabelValues(tier, transport).Observe(duration.Seconds())
}

// RecordFallback records a primary-to-fallback switch.
func RecordFallback(from, to string) {
	fallbackTotal.WithLabelValues(from, to).Inc()
}

// Handler returns the Prometheus metrics handler
func Handler() http.Handler {
	return promhttp.Handler()
}
