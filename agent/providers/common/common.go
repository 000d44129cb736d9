package common

import (
	"io"
	"net/http"
	"strings"

	"github.com/nexusrouter/nexus/core"
)

// MaxErrorBodyBytes bounds how much of an upstream error body we read back
// into a message, to avoid memory blowup on a misbehaving upstream.
const MaxErrorBodyBytes = 64 * 1024

// ReadErrorMessage reads and trims up to MaxErrorBodyBytes from r, for use
// as an *core.AgentError's Message. Never panics on a nil or empty body.
func ReadErrorMessage(r io.Reader) string {
	if r == nil {
		return ""
	}
	b, _ := io.ReadAll(io.LimitReader(r, MaxErrorBodyBytes))
	return strings.TrimSpace(string(b))
}

// SafeCloseBody closes resp.Body, swallowing the error — callers use this
// in defer position where a close failure carries no actionable signal.
func SafeCloseBody(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
}

// MapHTTPError classifies an upstream non-2xx response into a typed
// *core.AgentError. Generalizes llm/providers/common.go's MapHTTPError
// across every provider this router fronts.
func MapHTTPError(status int, body string, provider string) *core.AgentError {
	msg := body
	if msg == "" {
		msg = http.StatusText(status)
	}
	lower := strings.ToLower(msg)

	switch {
	case status == http.StatusUnauthorized:
		return core.NewAgentError(core.ClassConfiguration, core.ErrCodeMissingCredential, msg).
			WithHTTPStatus(status).WithProvider(provider)
	case status == http.StatusForbidden:
		return core.NewAgentError(core.ClassConfiguration, core.ErrCodeMissingCredential, msg).
			WithHTTPStatus(status).WithProvider(provider)
	case status == http.StatusTooManyRequests:
		return core.NewAgentError(core.ClassUpstream, core.ErrCodeUpstreamError, msg).
			WithHTTPStatus(status).WithRetryable(true).WithProvider(provider)
	case status == http.StatusBadRequest && (strings.Contains(lower, "quota") || strings.Contains(lower, "credit")):
		return core.NewAgentError(core.ClassConfiguration, core.ErrCodeInvalidConfig, msg).
			WithHTTPStatus(status).WithProvider(provider)
	case status == http.StatusServiceUnavailable || status == http.StatusBadGateway || status == http.StatusGatewayTimeout:
		return core.NewAgentError(core.ClassUpstream, core.ErrCodeUpstreamError, msg).
			WithHTTPStatus(status).WithRetryable(true).WithProvider(provider)
	case status == 529: // Anthropic "overloaded"
		return core.NewAgentError(core.ClassUpstream, core.ErrCodeUpstreamError, msg).
			WithHTTPStatus(status).WithRetryable(true).WithProvider(provider)
	default:
		return core.NewAgentError(core.ClassProtocol, core.ErrCodeHTTPError, msg).
			WithHTTPStatus(status).WithProvider(provider)
	}
}

// ClassifyNetworkError maps a transport-level failure (connection refused,
// DNS lookup, TLS handshake, timeout) from an *http.Client call into a
// Network-class *core.AgentError with the matching error code. All
// transport failures are retryable from the router's perspective.
func ClassifyNetworkError(err error, provider string) *core.AgentError {
	msg := err.Error()
	lower := strings.ToLower(msg)
	code := core.ErrCodeConnectionFailed
	switch {
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		code = core.ErrCodeTimeout
	case strings.Contains(lower, "no such host") || strings.Contains(lower, "lookup"):
		code = core.ErrCodeDNS
	case strings.Contains(lower, "certificate") || strings.Contains(lower, "tls"):
		code = core.ErrCodeTLS
	}
	return core.NewAgentError(core.ClassNetwork, code, msg).WithCause(err).WithRetryable(true).WithProvider(provider)
}

// ChooseModel resolves which model string to send upstream: the request's
// own model if set, otherwise the agent's configured default, otherwise
// fallback.
func ChooseModel(reqModel, configuredDefault, fallback string) string {
	if reqModel != "" {
		return reqModel
	}
	if configuredDefault != "" {
		return configuredDefault
	}
	return fallback
}
