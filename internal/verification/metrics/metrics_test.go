package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementStarted()
	m.IncrementOutcome(OutcomeVerified)
	m.IncrementOutcome(OutcomeVerified)
	m.IncrementPollTransient("timeout")
	m.IncrementStale()
	m.SetActiveSessions(3)
	m.ObserveTimeToVerify(2 * time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.VerificationsStarted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.VerificationOutcomes.WithLabelValues(OutcomeVerified)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PollTransientErrors.WithLabelValues("timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StaleResponses))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ActiveSessions))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementStarted()
		m.IncrementOutcome(OutcomeFailed)
		m.IncrementPollAttempts()
		m.IncrementPollTransient("x")
		m.IncrementStale()
		m.ObserveTimeToVerify(time.Second)
		m.SetActiveSessions(1)
		m.IncrementReverification(OutcomeConflict)
	})
}
