package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"temporal-worker-onboarding/metrics"
)

func TestMetrics_Record(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	m.IncrementSessionsStarted()
	m.IncrementOutcome("finished")
	m.IncrementOutcome("finished")
	m.IncrementAdapterCompletion("signing", "finished")
	m.ObserveRemoteCall("getUserInfo", time.Now(), nil)
	m.ObserveRemoteCall("getUserInfo", time.Now(), errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsStarted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SessionOutcomes.WithLabelValues("finished")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AdapterCompletions.WithLabelValues("signing", "finished")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.RemoteCallDuration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.IncrementSessionsStarted()
		m.IncrementOutcome("cancelled")
		m.ObserveRemoteCall("x", time.Now(), nil)
		m.IncrementAdapterCompletion("verification", "done")
	})
}
