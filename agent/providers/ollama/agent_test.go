package ollama

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexusrouter/nexus/agent/providers/openaicompat"
	"github.com/nexusrouter/nexus/core"
)

func TestAgent_HealthCheck_UsesTagsEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	t.Cleanup(srv.Close)

	a := New(openaicompat.Config{ID: "o1", Name: "ollama", BaseURL: srv.URL}, core.ZoneRestricted, nil)
	status, err := a.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Healthy)
}

func TestAgent_ListModels_AppliesVisionAndToolsHeuristics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"models":[
			{"name":"llava:13b","details":{"family":"llama"}},
			{"name":"mistral:7b","details":{"family":"mistral"}},
			{"name":"llama3:8b","details":{"family":"llama"}}
		]}`))
	}))
	t.Cleanup(srv.Close)

	a := New(openaicompat.Config{ID: "o1", Name: "ollama", BaseURL: srv.URL}, core.ZoneRestricted, nil)
	models, err := a.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 3)

	assert.True(t, models[0].SupportsVision)
	assert.False(t, models[0].SupportsTools)

	assert.False(t, models[1].SupportsVision)
	assert.True(t, models[1].SupportsTools)

	assert.False(t, models[2].SupportsVision)
	assert.False(t, models[2].SupportsTools)
}

func TestAgent_HealthCheck_MapsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	a := New(openaicompat.Config{ID: "o1", Name: "ollama", BaseURL: srv.URL}, core.ZoneRestricted, nil)
	_, err := a.HealthCheck(context.Background())
	require.Error(t, err)
	assert.True(t, core.IsRetryable(err))
}

func TestAgent_Profile_IsOllamaType(t *testing.T) {
	a := New(openaicompat.Config{ID: "o1", Name: "ollama", BaseURL: "http://localhost:11434"}, core.ZoneRestricted, nil)
	assert.Equal(t, core.BackendOllama, a.Profile().AgentType)
}
