package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeVerified         = "verified"
	OutcomeFailed           = "failed"
	OutcomeInitiationFailed = "initiation_failed"
	OutcomeCanceled         = "canceled"
	OutcomeNotVerified      = "not_verified"
	OutcomeConflict         = "conflict"
	OutcomeDeliveryFailed   = "delivery_failed"
)

// Metrics holds Prometheus collectors for verification attempts.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	VerificationsStarted prometheus.Counter
	VerificationOutcomes *prometheus.CounterVec
	PollAttempts         prometheus.Counter
	PollTransientErrors  *prometheus.CounterVec
	StaleResponses       prometheus.Counter
	TimeToVerify         prometheus.Histogram
	ActiveSessions       prometheus.Gauge
	Reverifications      *prometheus.CounterVec
}

// New registers the collectors on reg, or on the default registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		VerificationsStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "talentmatch_verifications_started_total",
			Help: "Total number of verification attempts started",
		}),
		VerificationOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "talentmatch_verification_outcomes_total",
			Help: "Verification attempts by terminal outcome",
		}, []string{"outcome"}),
		PollAttempts: f.NewCounter(prometheus.CounterOpts{
			Name: "talentmatch_verification_poll_attempts_total",
			Help: "Total number of result endpoint polls",
		}),
		PollTransientErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "talentmatch_verification_poll_transient_errors_total",
			Help: "Poll iterations that failed transiently, labeled by error category",
		}, []string{"category"}),
		StaleResponses: f.NewCounter(prometheus.CounterOpts{
			Name: "talentmatch_verification_stale_responses_total",
			Help: "Responses discarded because their attempt was cancelled or replaced",
		}),
		TimeToVerify: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "talentmatch_verification_duration_seconds",
			Help:    "Time from request creation to a verified result",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
		}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "talentmatch_verification_sessions_active",
			Help: "Verification sessions currently held by the registry",
		}),
		Reverifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "talentmatch_reverifications_total",
			Help: "Re-verification requests by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) IncrementStarted() {
	if m == nil {
		return
	}
	m.VerificationsStarted.Inc()
}

func (m *Metrics) IncrementOutcome(outcome string) {
	if m == nil {
		return
	}
	m.VerificationOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementPollAttempts() {
	if m == nil {
		return
	}
	m.PollAttempts.Inc()
}

func (m *Metrics) IncrementPollTransient(category string) {
	if m == nil {
		return
	}
	m.PollTransientErrors.WithLabelValues(category).Inc()
}

func (m *Metrics) IncrementStale() {
	if m == nil {
		return
	}
	m.StaleResponses.Inc()
}

func (m *Metrics) ObserveTimeToVerify(d time.Duration) {
	if m == nil {
		return
	}
	m.TimeToVerify.Observe(d.Seconds())
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

func (m *Metrics) IncrementReverification(outcome string) {
	if m == nil {
		return
	}
	m.Reverifications.WithLabelValues(outcome).Inc()
}
