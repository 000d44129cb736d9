package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nexusrouter/nexus/agent"
	"github.com/nexusrouter/nexus/agent/providers/common"
	"github.com/nexusrouter/nexus/agent/providers/openaicompat"
	"github.com/nexusrouter/nexus/core"
)

// Agent implements agent.Agent for Ollama, embedding openaicompat.Agent for
// chat completion and overriding only health/model discovery.
type Agent struct {
	*openaicompat.Agent
	inner openaicompat.Config
}

// New constructs an Ollama agent bound to cfg.BaseURL (typically
// http://localhost:11434).
func New(cfg openaicompat.Config, zone core.PrivacyZone, logger *zap.Logger) *Agent {
	return &Agent{
		Agent: openaicompat.New(cfg, core.BackendOllama, zone, logger),
		inner: cfg,
	}
}

type tagsResponse struct {
	Models []struct {
		Name    string `json:"name"`
		Details struct {
			Family string `json:"family"`
		} `json:"details"`
	} `json:"models"`
}

// HealthCheck probes Ollama's own /api/tags endpoint rather than the
// OpenAI-compatible /v1/models path Ollama also happens to expose, since
// /api/tags is the canonical native probe and carries richer model
// metadata.
func (a *Agent) HealthCheck(ctx context.Context) (agent.HealthStatus, error) {
	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoint("/api/tags"), nil)
	if err != nil {
		return agent.HealthStatus{}, core.NewAgentError(core.ClassConfiguration, core.ErrCodeInvalidConfig, err.Error()).WithProvider(a.Name())
	}

	resp, err := a.httpClient().Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return agent.HealthStatus{}, common.ClassifyNetworkError(err, a.Name())
	}
	defer common.SafeCloseBody(resp)

	if resp.StatusCode != http.StatusOK {
		msg := common.ReadErrorMessage(resp.Body)
		return agent.HealthStatus{}, common.MapHTTPError(resp.StatusCode, msg, a.Name())
	}
	return agent.HealthStatus{Healthy: true, LatencyMs: float64(latency.Microseconds()) / 1000.0}, nil
}

// ListModels parses /api/tags and applies the vision/tools capability
// heuristic: a model whose name mentions llava or vision is assumed to
// support vision, and one whose family/name mentions mistral is assumed to
// support native tool calling.
func (a *Agent) ListModels(ctx context.Context) ([]core.Model, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoint("/api/tags"), nil)
	if err != nil {
		return nil, core.NewAgentError(core.ClassConfiguration, core.ErrCodeInvalidConfig, err.Error()).WithProvider(a.Name())
	}

	resp, err := a.httpClient().Do(httpReq)
	if err != nil {
		return nil, common.ClassifyNetworkError(err, a.Name())
	}
	defer common.SafeCloseBody(resp)

	if resp.StatusCode != http.StatusOK {
		msg := common.ReadErrorMessage(resp.Body)
		return nil, common.MapHTTPError(resp.StatusCode, msg, a.Name())
	}

	var parsed tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, core.NewAgentError(core.ClassTranslation, core.ErrCodeTranslation, err.Error()).WithCause(err).WithProvider(a.Name())
	}

	models := make([]core.Model, 0, len(parsed.Models))
	for _, m := range parsed.Models {
		model := core.NewModel(m.Name)
		lower := strings.ToLower(m.Name + " " + m.Details.Family)
		model.SupportsVision = strings.Contains(lower, "llava") || strings.Contains(lower, "vision")
		model.SupportsTools = strings.Contains(lower, "mistral")
		models = append(models, model)
	}
	return models, nil
}

func (a *Agent) endpoint(path string) string {
	return strings.TrimRight(a.inner.BaseURL, "/") + path
}

func (a *Agent) httpClient() *http.Client {
	return a.Agent.HTTPClient()
}
