package core

import "time"

// BackendHealthState is per-backend, health-checker-private bookkeeping. It
// never leaves the health checker; the registry only sees the derived
// Status/Models/latency writes.
//
// Invariant: at most one of ConsecutiveFailures/ConsecutiveSuccesses is
// nonzero at any time — whenever the opposite outcome is observed, the
// opposite counter resets to zero.
type BackendHealthState struct {
	ConsecutiveFailures  int
	ConsecutiveSuccesses int
	LastCheckTime        time.Time
	LastStatus           Status
	LastModels           []Model // preserved across parse failures
}

// HealthCheckErrorClass is the taxonomy of probe failures.
type HealthCheckErrorClass string

const (
	ErrTimeout          HealthCheckErrorClass = "timeout"
	ErrConnectionFailed HealthCheckErrorClass = "connection_failed"
	ErrDNSError         HealthCheckErrorClass = "dns_error"
	ErrTLSError         HealthCheckErrorClass = "tls_error"
	ErrHTTPError        HealthCheckErrorClass = "http_error"
	ErrParseError       HealthCheckErrorClass = "parse_error"
)

// HealthCheckError is the failure variant of HealthCheckResult.
type HealthCheckError struct {
	Class      HealthCheckErrorClass
	HTTPStatus int // populated only when Class == ErrHTTPError
	Message    string
}

func (e *HealthCheckError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Class)
}

// HealthCheckResult is the outcome of a single backend probe: either a
// Success (carrying latency and, when parseable, the discovered model set)
// or a Failure (carrying a classified error).
type HealthCheckResult struct {
	Success      bool
	LatencyMs    float64
	Models       []Model // only meaningful when Success && ModelsParsed
	ModelsParsed bool    // false on parse failure: caller must preserve last known models
	Err          *HealthCheckError
}

// SuccessResult builds a Success result with a parsed model list.
func SuccessResult(latencyMs float64, models []Model) HealthCheckResult {
	return HealthCheckResult{Success: true, LatencyMs: latencyMs, Models: models, ModelsParsed: true}
}

// SuccessNoModels builds a Success result for a probe that responded 2xx but
// whose body could not be parsed into a model list (or doesn't carry one,
// e.g. llama.cpp's /health). The caller must preserve the previous model set.
func SuccessNoModels(latencyMs float64) HealthCheckResult {
	return HealthCheckResult{Success: true, LatencyMs: latencyMs, ModelsParsed: false}
}

// FailureResult builds a Failure result.
func FailureResult(class HealthCheckErrorClass, httpStatus int, message string) HealthCheckResult {
	return HealthCheckResult{
		Success: false,
		Err:     &HealthCheckError{Class: class, HTTPStatus: httpStatus, Message: message},
	}
}
