package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAgentError_Error(t *testing.T) {
	e := NewAgentError(ClassNetwork, ErrCodeTimeout, "dial tcp: i/o timeout").WithProvider("ollama")
	assert.Contains(t, e.Error(), "ollama")
	assert.Contains(t, e.Error(), "timeout")
}

func TestAgentError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	e := NewAgentError(ClassNetwork, ErrCodeConnectionFailed, "probe failed").WithCause(cause)
	assert.ErrorIs(t, e, cause)
}

func TestIsRetryable(t *testing.T) {
	retryable := NewAgentError(ClassUpstream, ErrCodeUpstreamError, "rate limited").WithRetryable(true)
	notRetryable := NewAgentError(ClassTranslation, ErrCodeTranslation, "unexpected shape")

	assert.True(t, IsRetryable(retryable))
	assert.False(t, IsRetryable(notRetryable))
	assert.False(t, IsRetryable(errors.New("plain error")))
}

func TestGetErrorCode(t *testing.T) {
	e := NewAgentError(ClassProtocol, ErrCodeHTTPError, "non-2xx").WithHTTPStatus(503)
	code, ok := GetErrorCode(e)
	assert.True(t, ok)
	assert.Equal(t, ErrCodeHTTPError, code)

	wrapped := fmt.Errorf("wrapping: %w", e)
	code, ok = GetErrorCode(wrapped)
	assert.True(t, ok)
	assert.Equal(t, ErrCodeHTTPError, code)

	_, ok = GetErrorCode(errors.New("unrelated"))
	assert.False(t, ok)
}
