package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nexusrouter/nexus/core"
)

func TestBuildAgent_AllKnownTypes(t *testing.T) {
	cases := []core.BackendType{
		core.BackendOllama, core.BackendLlamaCpp, core.BackendVLLM,
		core.BackendExo, core.BackendLMStudio, core.BackendGeneric,
		core.BackendOpenAI, core.BackendAnthropic, core.BackendGoogle,
	}

	for _, typ := range cases {
		backend := core.NewBackend("b1", "b1", "http://example.invalid", typ)
		a, err := BuildAgent(backend, BackendConfig{Name: "b1"}, "test-key", zap.NewNop())
		require.NoError(t, err, "type %s", typ)
		assert.Equal(t, "b1", a.ID())
	}
}

func TestBuildAgent_UnknownType(t *testing.T) {
	backend := core.NewBackend("b1", "b1", "http://example.invalid", core.BackendType("made-up"))
	_, err := BuildAgent(backend, BackendConfig{Name: "b1"}, "", zap.NewNop())
	assert.Error(t, err)
}

func TestBuildAgent_WithRateLimit(t *testing.T) {
	backend := core.NewBackend("b1", "b1", "http://example.invalid", core.BackendOllama)
	bc := BackendConfig{Name: "b1", RequestsPerSecond: 5, Burst: 2}
	a, err := BuildAgent(backend, bc, "", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "b1", a.ID())
}
