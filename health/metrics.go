package health

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Prometheus instrumentation for the health checker: per-backend health
// gauge, probe latency histogram, and failure counter. A parallel pair of
// OTel instruments records the latency and failure observations for
// operators who scrape the OTLP pipeline set up by internal/telemetry
// instead of (or alongside) Prometheus; the health gauge has no OTel
// counterpart.
var (
	backendHealthy = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nexus_backend_healthy",
			Help: "1 if the backend's last health check succeeded, 0 otherwise.",
		},
		[]string{"backend_id", "backend_type"},
	)

	probeLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nexus_backend_health_check_latency_ms",
			Help:    "Latency of backend health check probes in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"backend_id", "backend_type"},
	)

	probeFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexus_backend_health_check_failures_total",
			Help: "Total number of failed backend health check probes.",
		},
		[]string{"backend_id", "backend_type", "error_class"},
	)
)

func init() {
	prometheus.MustRegister(backendHealthy, probeLatencyMs, probeFailuresTotal)
}

// otelMeter and its instruments mirror the latency histogram and failure
// counter above through
// the global MeterProvider internal/telemetry installs. meter.* calls
// return no-op instruments until telemetry.Init has run, so this package
// has no ordering dependency on it.
var (
	otelMeter = otel.Meter("github.com/nexusrouter/nexus/health")

	otelProbeLatency, _ = otelMeter.Float64Histogram(
		"nexus.backend.health_check.latency",
		metric.WithDescription("Latency of backend health check probes in milliseconds."),
		metric.WithUnit("ms"),
	)

	otelProbeFailures, _ = otelMeter.Int64Counter(
		"nexus.backend.health_check.failures",
		metric.WithDescription("Total number of failed backend health check probes."),
	)
)

// observeProbe records one probe's outcome against both the Prometheus and
// OTel metrics above.
func observeProbe(backendID, backendType string, result probeOutcome) {
	if result.healthy {
		backendHealthy.WithLabelValues(backendID, backendType).Set(1)
	} else {
		backendHealthy.WithLabelValues(backendID, backendType).Set(0)
	}

	attrs := metric.WithAttributes(
		attribute.String("backend_id", backendID),
		attribute.String("backend_type", backendType),
	)

	if result.latencyMs > 0 {
		probeLatencyMs.WithLabelValues(backendID, backendType).Observe(result.latencyMs)
		otelProbeLatency.Record(context.Background(), result.latencyMs, attrs)
	}
	if !result.healthy {
		probeFailuresTotal.WithLabelValues(backendID, backendType, string(result.errClass)).Inc()
		otelProbeFailures.Add(context.Background(), 1, metric.WithAttributes(
			attribute.String("backend_id", backendID),
			attribute.String("backend_type", backendType),
			attribute.String("error_class", string(result.errClass)),
		))
	}
}
