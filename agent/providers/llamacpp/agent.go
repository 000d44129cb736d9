package llamacpp

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nexusrouter/nexus/agent"
	"github.com/nexusrouter/nexus/agent/providers/common"
	"github.com/nexusrouter/nexus/agent/providers/openaicompat"
	"github.com/nexusrouter/nexus/core"
)

// Agent implements agent.Agent for llama.cpp's OpenAI-compatible server.
type Agent struct {
	*openaicompat.Agent
	baseURL string
}

// New constructs a llama.cpp agent bound to cfg.BaseURL.
func New(cfg openaicompat.Config, zone core.PrivacyZone, logger *zap.Logger) *Agent {
	return &Agent{
		Agent:   openaicompat.New(cfg, core.BackendLlamaCpp, zone, logger),
		baseURL: cfg.BaseURL,
	}
}

// HealthCheck probes llama.cpp's liveness-only /health endpoint.
func (a *Agent) HealthCheck(ctx context.Context) (agent.HealthStatus, error) {
	start := time.Now()
	endpoint := strings.TrimRight(a.baseURL, "/") + "/health"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return agent.HealthStatus{}, core.NewAgentError(core.ClassConfiguration, core.ErrCodeInvalidConfig, err.Error()).WithProvider(a.Name())
	}

	resp, err := a.Agent.HTTPClient().Do(httpReq)
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

// ListModels always fails: llama.cpp serves exactly one model per process
// and exposes no listing endpoint. The health checker treats this failure
// as "preserve the previously known model list" rather than a probe
// failure, since HealthCheck above already established liveness.
func (a *Agent) ListModels(ctx context.Context) ([]core.Model, error) {
	return nil, core.NewAgentError(core.ClassProtocol, core.ErrCodeHTTPError, "llama.cpp exposes no model listing endpoint").WithProvider(a.Name())
}
