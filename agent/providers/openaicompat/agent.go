package openaicompat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nexusrouter/nexus/agent"
	"github.com/nexusrouter/nexus/agent/providers/common"
	"github.com/nexusrouter/nexus/agent/tokencount"
	"github.com/nexusrouter/nexus/core"
	"github.com/nexusrouter/nexus/internal/tlsutil"
)

// Agent implements agent.Agent directly against an OpenAI-shape HTTP API.
// It backs vLLM, Exo, LM Studio, and Generic, and is embedded by the OpenAI
// variant for the parts of the wire format OpenAI shares with its own
// compatible ecosystem.
type Agent struct {
	cfg     Config
	typ     core.BackendType
	zone    core.PrivacyZone
	client  *http.Client
	stream  *http.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

// New constructs an Agent bound to backend type typ and privacy zone zone.
func New(cfg Config, typ core.BackendType, zone core.PrivacyZone, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Agent{
		cfg:    cfg,
		typ:    typ,
		zone:   zone,
		client: tlsutil.SecureHTTPClient(cfg.timeoutOrDefault()),
		stream: tlsutil.SecureStreamingClient(),
		logger: logger,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		a.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return a
}

// throttle blocks until the per-backend rate limiter admits one more
// request, or returns a Network-class error if ctx is cancelled first. A
// nil limiter (the common case — no RequestsPerSecond configured) is a
// no-op.
func (a *Agent) throttle(ctx context.Context) error {
	if a.limiter == nil {
		return nil
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return core.NewAgentError(core.ClassNetwork, core.ErrCodeTimeout, "rate limit wait: "+err.Error()).WithCause(err).WithProvider(a.Name())
	}
	return nil
}

func (a *Agent) ID() string   { return a.cfg.ID }
func (a *Agent) Name() string { return a.cfg.Name }

// HTTPClient exposes the agent's configured client so embedding variants
// (ollama, llamacpp) can issue requests against their own native endpoints
// while still sharing the TLS-hardened transport and timeout.
func (a *Agent) HTTPClient() *http.Client { return a.client }

func (a *Agent) Profile() core.AgentProfile {
	return core.AgentProfile{
		AgentType:   a.typ,
		PrivacyZone: a.zone,
		Capabilities: core.AgentCapabilities{
			ModelLifecycle: true,
		},
	}
}

func (a *Agent) endpoint(path string) string {
	return fmt.Sprintf("%s%s", strings.TrimRight(a.cfg.BaseURL, "/"), path)
}

func (a *Agent) buildHeaders(req *http.Request, extra http.Header) {
	if a.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, vs := range extra {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
}

type modelListResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// HealthCheck probes GET /v1/models, the endpoint every OpenAI-compatible
// server exposes regardless of what it's actually serving.
func (a *Agent) HealthCheck(ctx context.Context) (agent.HealthStatus, error) {
	if err := a.throttle(ctx); err != nil {
		return agent.HealthStatus{}, err
	}
	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoint("/v1/models"), nil)
	if err != nil {
		return agent.HealthStatus{}, core.NewAgentError(core.ClassConfiguration, core.ErrCodeInvalidConfig, err.Error()).WithProvider(a.Name())
	}
	a.buildHeaders(httpReq, nil)

	resp, err := a.client.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return agent.HealthStatus{Healthy: false}, common.ClassifyNetworkError(err, a.Name())
	}
	defer common.SafeCloseBody(resp)

	if resp.StatusCode != http.StatusOK {
		msg := common.ReadErrorMessage(resp.Body)
		return agent.HealthStatus{Healthy: false}, common.MapHTTPError(resp.StatusCode, msg, a.Name())
	}
	return agent.HealthStatus{Healthy: true, LatencyMs: float64(latency.Microseconds()) / 1000.0}, nil
}

// ListModels parses the OpenAI-shape {data:[{id,...}]} model list.
func (a *Agent) ListModels(ctx context.Context) ([]core.Model, error) {
	if err := a.throttle(ctx); err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoint("/v1/models"), nil)
	if err != nil {
		return nil, core.NewAgentError(core.ClassConfiguration, core.ErrCodeInvalidConfig, err.Error()).WithProvider(a.Name())
	}
	a.buildHeaders(httpReq, nil)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, common.ClassifyNetworkError(err, a.Name())
	}
	defer common.SafeCloseBody(resp)

	if resp.StatusCode != http.StatusOK {
		msg := common.ReadErrorMessage(resp.Body)
		return nil, common.MapHTTPError(resp.StatusCode, msg, a.Name())
	}

	var parsed modelListResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, core.NewAgentError(core.ClassTranslation, core.ErrCodeTranslation, err.Error()).WithCause(err).WithProvider(a.Name())
	}

	models := make([]core.Model, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		models = append(models, core.NewModel(m.ID))
	}
	return models, nil
}

// ChatCompletion forwards req (the request is already OpenAI shape) with
// only Stream forced to false, and decodes the response as-is.
func (a *Agent) ChatCompletion(ctx context.Context, req *agent.ChatRequest, extraHeaders http.Header) (*agent.ChatResponse, error) {
	if err := a.throttle(ctx); err != nil {
		return nil, err
	}
	body := *req
	body.Stream = false
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, core.NewAgentError(core.ClassTranslation, core.ErrCodeTranslation, err.Error()).WithCause(err).WithProvider(a.Name())
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint("/v1/chat/completions"), bytes.NewReader(payload))
	if err != nil {
		return nil, core.NewAgentError(core.ClassConfiguration, core.ErrCodeInvalidConfig, err.Error()).WithProvider(a.Name())
	}
	a.buildHeaders(httpReq, extraHeaders)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, common.ClassifyNetworkError(err, a.Name())
	}
	defer common.SafeCloseBody(resp)

	if resp.StatusCode >= 400 {
		msg := common.ReadErrorMessage(resp.Body)
		return nil, common.MapHTTPError(resp.StatusCode, msg, a.Name())
	}

	var chatResp agent.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, core.NewAgentError(core.ClassTranslation, core.ErrCodeTranslation, err.Error()).WithCause(err).WithProvider(a.Name())
	}
	chatResp.Provider = a.Name()
	return &chatResp, nil
}

type sseChatChunk struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Role    agent.Role `json:"role"`
			Content string     `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// ChatCompletionStream parses the `data: {...}` / `data: [DONE]` SSE stream
// every OpenAI-compatible server emits.
func (a *Agent) ChatCompletionStream(ctx context.Context, req *agent.ChatRequest, extraHeaders http.Header) (<-chan agent.StreamChunk, error) {
	if err := a.throttle(ctx); err != nil {
		return nil, err
	}
	body := *req
	body.Stream = true
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, core.NewAgentError(core.ClassTranslation, core.ErrCodeTranslation, err.Error()).WithCause(err).WithProvider(a.Name())
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint("/v1/chat/completions"), bytes.NewReader(payload))
	if err != nil {
		return nil, core.NewAgentError(core.ClassConfiguration, core.ErrCodeInvalidConfig, err.Error()).WithProvider(a.Name())
	}
	a.buildHeaders(httpReq, extraHeaders)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := a.stream.Do(httpReq)
	if err != nil {
		return nil, common.ClassifyNetworkError(err, a.Name())
	}
	if resp.StatusCode >= 400 {
		defer common.SafeCloseBody(resp)
		msg := common.ReadErrorMessage(resp.Body)
		return nil, common.MapHTTPError(resp.StatusCode, msg, a.Name())
	}

	ch := make(chan agent.StreamChunk)
	go func() {
		defer common.SafeCloseBody(resp)
		defer close(ch)
		reader := bufio.NewReader(resp.Body)

		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				// The stream ended before [DONE]: report it as a disconnect.
				if err == io.EOF {
					err = io.ErrUnexpectedEOF
				}
				ch <- agent.StreamChunk{Err: common.ClassifyNetworkError(err, a.Name())}
				return
			}
			line = strings.TrimSpace(line)
			if line == "" || !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				ch <- agent.StreamChunk{Done: true}
				return
			}

			var chunk sseChatChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				ch <- agent.StreamChunk{Err: core.NewAgentError(core.ClassTranslation, core.ErrCodeTranslation, err.Error()).WithCause(err).WithProvider(a.Name())}
				return
			}
			out := agent.StreamChunk{ID: chunk.ID, Model: chunk.Model}
			if len(chunk.Choices) > 0 {
				out.DeltaRole = chunk.Choices[0].Delta.Role
				out.DeltaContent = chunk.Choices[0].Delta.Content
				out.FinishReason = chunk.Choices[0].FinishReason
			}
			ch <- out
		}
	}()

	return ch, nil
}

// CountTokens always returns a Heuristic estimate — the OpenAI-compatible
// ecosystem serves arbitrary models with no stable encoding map, unlike the
// dedicated OpenAI variant.
func (a *Agent) CountTokens(_ string, text string) core.TokenCount {
	return tokencount.Estimate(text)
}
