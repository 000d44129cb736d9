package llamacpp

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

func TestAgent_HealthCheck_UsesHealthEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	a := New(openaicompat.Config{ID: "l1", Name: "llamacpp", BaseURL: srv.URL}, core.ZoneRestricted, nil)
	status, err := a.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Healthy)
}

func TestAgent_ListModels_AlwaysFails(t *testing.T) {
	a := New(openaicompat.Config{ID: "l1", Name: "llamacpp", BaseURL: "http://localhost:8080"}, core.ZoneRestricted, nil)
	models, err := a.ListModels(context.Background())
	require.Error(t, err)
	assert.Nil(t, models)
}

func TestAgent_Profile_IsLlamaCppType(t *testing.T) {
	a := New(openaicompat.Config{ID: "l1", Name: "llamacpp", BaseURL: "http://localhost:8080"}, core.ZoneRestricted, nil)
	assert.Equal(t, core.BackendLlamaCpp, a.Profile().AgentType)
}
