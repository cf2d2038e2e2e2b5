package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveSymbol("ok", time.Second)
	m.ObserveSymbol("ok", time.Second)
	m.ObserveSymbol("fetch", time.Second)
	m.ObserveSignal("buy", 0.8)
	m.ObserveFetch("mock", 10*time.Millisecond)
	finished := time.Unix(1700000000, 0)
	m.ObserveRun("ok", 3*time.Second, finished)
	m.ObserveHTTP("GET", "/healthz", 200)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SymbolsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SymbolsTotal.WithLabelValues("fetch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SignalsTotal.WithLabelValues("buy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(m.LastRun))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/healthz", "200")))

	n, err := testutil.GatherAndCount(reg)
	assert.NoError(t, err)
	assert.Greater(t, n, 0)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveSymbol("ok", time.Second)
		m.ObserveSignal("buy", 1)
		m.ObserveFetch("mock", time.Second)
		m.ObserveRun("ok", time.Second, time.Now())
	})
}
