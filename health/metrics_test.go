package health

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/nexusrouter/nexus/core"
)

func TestObserveProbe_RecordsHealthyGauge(t *testing.T) {
	observeProbe("b1", string(core.BackendOllama), probeOutcome{healthy: true, latencyMs: 12.5})
	g, err := backendHealthy.GetMetricWithLabelValues("b1", string(core.BackendOllama))
	assert.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(g))

	observeProbe("b1", string(core.BackendOllama), probeOutcome{healthy: false, errClass: core.ErrConnectionFailed})
	assert.Equal(t, 0.0, testutil.ToFloat64(g))
}

func TestObserveProbe_IncrementsFailureCounter(t *testing.T) {
	before := testutil.ToFloat64(probeFailuresTotal.WithLabelValues("b2", string(core.BackendOpenAI), string(core.ErrTimeout)))
	observeProbe("b2", string(core.BackendOpenAI), probeOutcome{healthy: false, errClass: core.ErrTimeout})
	after := testutil.ToFloat64(probeFailuresTotal.WithLabelValues("b2", string(core.BackendOpenAI), string(core.ErrTimeout)))
	assert.Equal(t, before+1, after)
}

func TestObserveProbe_DoesNotPanicOnOTelInstruments(t *testing.T) {
	// otelProbeLatency/otelProbeFailures record against whatever global
	// MeterProvider is installed (a no-op one in tests); this only checks
	// that recording against them never panics or blocks.
	assert.NotPanics(t, func() {
		observeProbe("b3", string(core.BackendGoogle), probeOutcome{healthy: true, latencyMs: 5})
		observeProbe("b3", string(core.BackendGoogle), probeOutcome{healthy: false, errClass: core.ErrHTTPError})
	})
}
