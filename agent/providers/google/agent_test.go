package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexusrouter/nexus/agent"
	"github.com/nexusrouter/nexus/core"
)

func TestConvertContents_ExtractsSystemAndRemapsAssistant(t *testing.T) {
	sys, contents := convertContents([]agent.Message{
		{Role: agent.RoleSystem, Content: "be terse"},
		{Role: agent.RoleUser, Content: "hi"},
		{Role: agent.RoleAssistant, Content: "hello"},
	})
	require.NotNil(t, sys)
	assert.Equal(t, "be terse", sys.Parts[0].Text)
	require.Len(t, contents, 2)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
}

func TestMapFinishReason(t *testing.T) {
	assert.Equal(t, "stop", mapFinishReason("STOP"))
	assert.Equal(t, "length", mapFinishReason("MAX_TOKENS"))
	assert.Equal(t, "content_filter", mapFinishReason("SAFETY"))
	assert.Equal(t, "content_filter", mapFinishReason("RECITATION"))
}

func TestAgent_HealthCheck_SendsKeyAsQueryParam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	t.Cleanup(srv.Close)

	a := New(Config{ID: "g1", Name: "google", APIKey: "test-key", BaseURL: srv.URL}, nil)
	status, err := a.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Healthy)
}

func TestAgent_ListModels_FiltersToGenerateContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"models":[
			{"name":"models/gemini-2.5-flash","supportedGenerationMethods":["generateContent"]},
			{"name":"models/embedding-001","supportedGenerationMethods":["embedContent"]}
		]}`))
	}))
	t.Cleanup(srv.Close)

	a := New(Config{ID: "g1", Name: "google", APIKey: "k", BaseURL: srv.URL}, nil)
	models, err := a.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "gemini-2.5-flash", models[0].ID)
}

func TestAgent_ChatCompletion_JoinsPartsAndMapsFinishReason(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"responseId":"r1","candidates":[{"content":{"role":"model","parts":[{"text":"hi"},{"text":" there"}]},"finishReason":"STOP","index":0}],"usageMetadata":{"promptTokenCount":5,"candidatesTokenCount":2,"totalTokenCount":7}}`))
	}))
	t.Cleanup(srv.Close)

	a := New(Config{ID: "g1", Name: "google", APIKey: "k", BaseURL: srv.URL}, nil)
	resp, err := a.ChatCompletion(context.Background(), &agent.ChatRequest{
		Messages: []agent.Message{{Role: agent.RoleUser, Content: "hello"}},
	}, nil)
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "hi there", resp.Choices[0].Message.Content)
	assert.Equal(t, "stop", resp.Choices[0].FinishReason)
	assert.Equal(t, 7, resp.Usage.TotalTokens)
}

func TestAgent_CountTokens_AlwaysHeuristic(t *testing.T) {
	a := New(Config{ID: "g1", Name: "google", APIKey: "k"}, nil)
	tc := a.CountTokens("gemini-2.5-flash", "hello")
	assert.False(t, tc.Exact)
}

func TestAgent_Throttle_BlocksUntilCtxCancelled(t *testing.T) {
	a := New(Config{ID: "g1", Name: "google", APIKey: "k", RequestsPerSecond: 0.001, Burst: 1}, nil)
	require.NotNil(t, a.limiter)
	require.NoError(t, a.throttle(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := a.throttle(ctx)
	require.Error(t, err)
	var ae *core.AgentError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, core.ClassNetwork, ae.Class)
}
