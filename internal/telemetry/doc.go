// Package telemetry wraps OpenTelemetry SDK setup for Nexus, giving every
// component a single place to obtain a TracerProvider and MeterProvider.
// When telemetry is disabled, no exporters are created and the global
// providers remain noop.
package telemetry
