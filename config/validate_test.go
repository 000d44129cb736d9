package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_RejectsBadPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.HTTPPort = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsDuplicateBackendNames(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backends = []BackendConfig{
		{Name: "dup", URL: "http://a", Type: "ollama"},
		{Name: "dup", URL: "http://b", Type: "ollama"},
	}
	err := cfg.Validate()
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "duplicate backend name")
	}
}

func TestValidate_RejectsUnresolvableBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backends = []BackendConfig{{Name: "bad", URL: "http://a", Type: "not-a-type"}}
	assert.Error(t, cfg.Validate())
}

func TestValidate_AcceptsWellFormedConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backends = []BackendConfig{{Name: "ok", URL: "http://a", Type: "ollama"}}
	assert.NoError(t, cfg.Validate())
}

func TestValidate_RejectsNegativeRateLimitFields(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backends = []BackendConfig{{Name: "ok", URL: "http://a", Type: "ollama", RequestsPerSecond: -1, Burst: -1}}
	err := cfg.Validate()
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "negative requests_per_second")
		assert.Contains(t, err.Error(), "negative burst")
	}
}

func TestValidate_AcceptsPositiveRateLimitFields(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backends = []BackendConfig{{Name: "ok", URL: "http://a", Type: "ollama", RequestsPerSecond: 2.5, Burst: 5}}
	assert.NoError(t, cfg.Validate())
}
