package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexusrouter/nexus/core"
)

func TestBackendConfig_Resolve_AppliesDefaults(t *testing.T) {
	b := BackendConfig{Name: "local-ollama", URL: "http://localhost:11434", Type: "ollama"}

	backend, apiKey, err := b.Resolve()
	require.NoError(t, err)

	assert.Equal(t, "local-ollama", backend.ID)
	assert.Equal(t, core.BackendOllama, backend.Type)
	assert.Equal(t, 50, backend.Priority)
	assert.Equal(t, 3, backend.Tier)
	assert.Equal(t, core.ZoneRestricted, backend.Zone)
	assert.Empty(t, apiKey)
}

func TestBackendConfig_Resolve_CloudDefaultsToOpenZone(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-abc")
	b := BackendConfig{Name: "gpt", URL: "https://api.openai.com", Type: "openai", APIKeyEnv: "TEST_OPENAI_KEY"}

	backend, apiKey, err := b.Resolve()
	require.NoError(t, err)
	assert.Equal(t, core.ZoneOpen, backend.Zone)
	assert.Equal(t, "sk-abc", apiKey)
}

func TestBackendConfig_Resolve_ExplicitOverrides(t *testing.T) {
	t.Setenv("TEST_ANTHROPIC_KEY", "sk-ant")
	b := BackendConfig{
		Name: "claude", URL: "https://api.anthropic.com", Type: "anthropic",
		APIKeyEnv: "TEST_ANTHROPIC_KEY", Priority: 90, Tier: 5, Zone: "restricted",
	}

	backend, _, err := b.Resolve()
	require.NoError(t, err)
	assert.Equal(t, 90, backend.Priority)
	assert.Equal(t, 5, backend.Tier)
	assert.Equal(t, core.ZoneRestricted, backend.Zone)
}

func TestBackendConfig_Resolve_MissingName(t *testing.T) {
	_, _, err := BackendConfig{URL: "http://x", Type: "ollama"}.Resolve()
	assert.Error(t, err)
}

func TestBackendConfig_Resolve_MissingURL(t *testing.T) {
	_, _, err := BackendConfig{Name: "x", Type: "ollama"}.Resolve()
	assert.Error(t, err)
}

func TestBackendConfig_Resolve_UnknownType(t *testing.T) {
	_, _, err := BackendConfig{Name: "x", URL: "http://x", Type: "made-up"}.Resolve()
	assert.Error(t, err)
}

func TestBackendConfig_Resolve_CloudRequiresAPIKeyEnv(t *testing.T) {
	_, _, err := BackendConfig{Name: "gpt", URL: "https://api.openai.com", Type: "openai"}.Resolve()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key_env")
}

func TestBackendConfig_Resolve_UnsetAPIKeyEnvErrors(t *testing.T) {
	_, _, err := BackendConfig{
		Name: "gpt", URL: "https://api.openai.com", Type: "openai",
		APIKeyEnv: "TEST_NEXUS_DEFINITELY_UNSET_VAR",
	}.Resolve()
	require.Error(t, err)
}

func TestBackendConfig_Resolve_TierOutOfRange(t *testing.T) {
	_, _, err := BackendConfig{Name: "x", URL: "http://x", Type: "ollama", Tier: 9}.Resolve()
	assert.Error(t, err)
}

func TestBackendConfig_Resolve_InvalidZone(t *testing.T) {
	_, _, err := BackendConfig{Name: "x", URL: "http://x", Type: "ollama", Zone: "nowhere"}.Resolve()
	assert.Error(t, err)
}

func TestHealthConfig_ToHealthConfig(t *testing.T) {
	h := HealthConfig{Enabled: true, IntervalSeconds: 15, TimeoutSeconds: 3, FailureThreshold: 4, RecoveryThreshold: 1}
	hc := h.ToHealthConfig()
	assert.Equal(t, 15, hc.IntervalSeconds)
	assert.Equal(t, 4, hc.FailureThreshold)
}
