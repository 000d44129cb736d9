package core

import (
	"errors"
	"fmt"
)

// ErrorCode enumerates the stable machine-readable error identifiers
// surfaced across the core, grouped by error class.
type ErrorCode string

const (
	// Configuration class: bad or missing env var, malformed config.
	ErrCodeMissingCredential ErrorCode = "missing_credential"
	ErrCodeInvalidConfig     ErrorCode = "invalid_config"

	// Network class: DNS, TLS, connection refused, timeout.
	ErrCodeTimeout          ErrorCode = "timeout"
	ErrCodeConnectionFailed ErrorCode = "connection_failed"
	ErrCodeDNS              ErrorCode = "dns_error"
	ErrCodeTLS              ErrorCode = "tls_error"

	// Protocol class: HTTP non-2xx from the upstream.
	ErrCodeHTTPError ErrorCode = "http_error"

	// Upstream class: the provider returned a structured error body.
	ErrCodeUpstreamError ErrorCode = "upstream_error"

	// Translation class: the response didn't match the expected shape.
	ErrCodeTranslation ErrorCode = "translation_error"
)

// AgentErrorClass classifies the cause of an agent operation failure, per
// the Inference Agent Abstraction's public contract.
type AgentErrorClass string

const (
	ClassConfiguration AgentErrorClass = "configuration"
	ClassNetwork       AgentErrorClass = "network"
	ClassProtocol      AgentErrorClass = "protocol"
	ClassUpstream      AgentErrorClass = "upstream"
	ClassTranslation   AgentErrorClass = "translation"
)

// AgentError is the typed error every Agent operation returns on failure.
// It carries enough structure for the API boundary to map it to an HTTP
// status (translation -> 502, network/timeout -> 504) without re-parsing
// a message string.
type AgentError struct {
	Class      AgentErrorClass
	Code       ErrorCode
	Message    string
	HTTPStatus int // upstream's status code, when known; 0 otherwise
	Retryable  bool
	Provider   string
	Cause      error
}

func (e *AgentError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s: [%s] %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AgentError) Unwrap() error { return e.Cause }

// NewAgentError constructs an AgentError. Message is not optional — callers
// must never pass an upstream body or credential value through Message
// without first confirming it contains no secrets, since Message may be
// logged or surfaced to clients verbatim.
func NewAgentError(class AgentErrorClass, code ErrorCode, message string) *AgentError {
	return &AgentError{Class: class, Code: code, Message: message}
}

func (e *AgentError) WithCause(cause error) *AgentError {
	e.Cause = cause
	return e
}

func (e *AgentError) WithHTTPStatus(status int) *AgentError {
	e.HTTPStatus = status
	return e
}

func (e *AgentError) WithRetryable(retryable bool) *AgentError {
	e.Retryable = retryable
	return e
}

func (e *AgentError) WithProvider(provider string) *AgentError {
	e.Provider = provider
	return e
}

// IsRetryable reports whether err is an *AgentError marked retryable.
func IsRetryable(err error) bool {
	var ae *AgentError
	if errors.As(err, &ae) {
		return ae.Retryable
	}
	return false
}

// GetErrorCode extracts the ErrorCode from err, if it is an *AgentError.
func GetErrorCode(err error) (ErrorCode, bool) {
	var ae *AgentError
	if errors.As(err, &ae) {
		return ae.Code, true
	}
	return "", false
}
