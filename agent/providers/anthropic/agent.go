package anthropic

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

// Agent implements agent.Agent for the Anthropic Messages API.
type Agent struct {
	cfg     Config
	client  *http.Client
	stream  *http.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

// New constructs an Anthropic agent.
func New(cfg Config, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.BaseURL = cfg.baseURLOrDefault()
	a := &Agent{
		cfg:    cfg,
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
// request; a nil limiter is a no-op. Guards against Anthropic's own strict
// per-key rate limits, which reject bursts with a 429.
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

func (a *Agent) Profile() core.AgentProfile {
	return core.AgentProfile{
		AgentType:   core.BackendAnthropic,
		PrivacyZone: core.ZoneOpen,
		Capabilities: core.AgentCapabilities{
			TokenCounting: false,
		},
	}
}

func (a *Agent) endpoint(path string) string {
	return fmt.Sprintf("%s%s", strings.TrimRight(a.cfg.BaseURL, "/"), path)
}

func (a *Agent) buildHeaders(req *http.Request) {
	req.Header.Set("x-api-key", a.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

// HealthCheck issues a lightweight GET /v1/models, which Anthropic accepts
// with just the auth headers and no body, avoiding the token cost of a
// minimal POST /v1/messages probe.
func (a *Agent) HealthCheck(ctx context.Context) (agent.HealthStatus, error) {
	if err := a.throttle(ctx); err != nil {
		return agent.HealthStatus{}, err
	}
	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoint("/v1/models"), nil)
	if err != nil {
		return agent.HealthStatus{}, core.NewAgentError(core.ClassConfiguration, core.ErrCodeInvalidConfig, err.Error()).WithProvider(a.Name())
	}
	a.buildHeaders(httpReq)

	resp, err := a.client.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return agent.HealthStatus{}, common.ClassifyNetworkError(err, a.Name())
	}
	defer common.SafeCloseBody(resp)

	if resp.StatusCode != http.StatusOK {
		msg := readErrMsg(resp.Body)
		return agent.HealthStatus{}, mapError(resp.StatusCode, msg, a.Name())
	}
	return agent.HealthStatus{Healthy: true, LatencyMs: float64(latency.Microseconds()) / 1000.0}, nil
}

// ListModels always fails: the credential-validating probe in HealthCheck
// already established liveness, and Anthropic's model catalog changes
// rarely enough that the health checker's "preserve last known list"
// degradation is the right behavior rather than parsing a model endpoint
// here.
func (a *Agent) ListModels(ctx context.Context) ([]core.Model, error) {
	return nil, core.NewAgentError(core.ClassProtocol, core.ErrCodeHTTPError, "anthropic model catalog is not polled per health cycle").WithProvider(a.Name())
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float32            `json:"temperature,omitempty"`
	TopP        float32            `json:"top_p,omitempty"`
	Stream      bool               `json:"stream,omitempty"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicResponse struct {
	ID         string             `json:"id"`
	Role       string             `json:"role"`
	Content    []anthropicContent `json:"content"`
	Model      string             `json:"model"`
	StopReason string             `json:"stop_reason"`
	Usage      *anthropicUsage    `json:"usage,omitempty"`
}

type anthropicErrorResp struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// convertMessages extracts system messages (concatenated with newlines)
// into a separate return value, since Anthropic carries system prompts
// outside the message array, and maps everything else into Anthropic's
// content-block message shape.
func convertMessages(msgs []agent.Message) (string, []anthropicMessage) {
	var system []string
	var out []anthropicMessage

	for _, m := range msgs {
		if m.Role == agent.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		if m.Role == agent.RoleTool {
			out = append(out, anthropicMessage{
				Role: "user",
				Content: []anthropicContent{{
					Type:      "tool_result",
					ToolUseID: m.ToolCallID,
					Content:   m.Content,
				}},
			})
			continue
		}

		cm := anthropicMessage{Role: string(m.Role)}
		if m.Content != "" {
			cm.Content = append(cm.Content, anthropicContent{Type: "text", Text: m.Content})
		}
		for _, tc := range m.ToolCalls {
			cm.Content = append(cm.Content, anthropicContent{
				Type: "tool_use", ID: tc.ID, Name: tc.Name, Input: tc.Arguments,
			})
		}
		if len(cm.Content) > 0 {
			out = append(out, cm)
		}
	}

	return strings.Join(system, "\n"), out
}

func chooseModel(reqModel string) string {
	if reqModel != "" {
		return reqModel
	}
	return defaultModel
}

func chooseMaxTokens(req *agent.ChatRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return defaultMaxTokens
}

func mapFinishReason(stopReason string) string {
	switch stopReason {
	case "end_turn":
		return "stop"
	case "max_tokens":
		return "length"
	case "stop_sequence":
		return "stop"
	default:
		return stopReason
	}
}

func (a *Agent) ChatCompletion(ctx context.Context, req *agent.ChatRequest, extraHeaders http.Header) (*agent.ChatResponse, error) {
	if err := a.throttle(ctx); err != nil {
		return nil, err
	}
	system, messages := convertMessages(req.Messages)
	body := anthropicRequest{
		Model:       chooseModel(req.Model),
		Messages:    messages,
		System:      system,
		MaxTokens:   chooseMaxTokens(req),
		Temperature: req.Temperature,
		TopP:        req.TopP,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, core.NewAgentError(core.ClassTranslation, core.ErrCodeTranslation, err.Error()).WithCause(err).WithProvider(a.Name())
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint("/v1/messages"), bytes.NewReader(payload))
	if err != nil {
		return nil, core.NewAgentError(core.ClassConfiguration, core.ErrCodeInvalidConfig, err.Error()).WithProvider(a.Name())
	}
	a.buildHeaders(httpReq)
	for k, vs := range extraHeaders {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, common.ClassifyNetworkError(err, a.Name())
	}
	defer common.SafeCloseBody(resp)

	if resp.StatusCode >= 400 {
		msg := readErrMsg(resp.Body)
		return nil, mapError(resp.StatusCode, msg, a.Name())
	}

	var ar anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return nil, core.NewAgentError(core.ClassTranslation, core.ErrCodeTranslation, err.Error()).WithCause(err).WithProvider(a.Name())
	}

	return toChatResponse(ar, a.Name()), nil
}

func toChatResponse(ar anthropicResponse, provider string) *agent.ChatResponse {
	msg := agent.Message{Role: agent.RoleAssistant}
	for _, c := range ar.Content {
		switch c.Type {
		case "text":
			msg.Content += c.Text
		case "tool_use":
			msg.ToolCalls = append(msg.ToolCalls, agent.ToolCall{ID: c.ID, Name: c.Name, Arguments: c.Input})
		}
	}

	resp := &agent.ChatResponse{
		ID:       ar.ID,
		Object:   "chat.completion",
		Provider: provider,
		Model:    ar.Model,
		Choices: []agent.ChatChoice{{
			Index:        0,
			Message:      msg,
			FinishReason: mapFinishReason(ar.StopReason),
		}},
	}
	if ar.Usage != nil {
		resp.Usage = agent.ChatUsage{
			PromptTokens:     ar.Usage.InputTokens,
			CompletionTokens: ar.Usage.OutputTokens,
			TotalTokens:      ar.Usage.InputTokens + ar.Usage.OutputTokens,
		}
	}
	return resp
}

type anthropicStreamDelta struct {
	Type       string `json:"type"`
	Text       string `json:"text,omitempty"`
	StopReason string `json:"stop_reason,omitempty"`
}

type anthropicStreamEvent struct {
	Type    string                `json:"type"`
	Delta   *anthropicStreamDelta `json:"delta,omitempty"`
	Message *anthropicResponse    `json:"message,omitempty"`
	Usage   *anthropicUsage       `json:"usage,omitempty"`
}

// ChatCompletionStream consumes Anthropic's named SSE event sequence
// (message_start, content_block_delta, message_delta, message_stop) and
// re-emits it as the canonical chunk sequence.
func (a *Agent) ChatCompletionStream(ctx context.Context, req *agent.ChatRequest, extraHeaders http.Header) (<-chan agent.StreamChunk, error) {
	if err := a.throttle(ctx); err != nil {
		return nil, err
	}
	system, messages := convertMessages(req.Messages)
	body := anthropicRequest{
		Model:     chooseModel(req.Model),
		Messages:  messages,
		System:    system,
		MaxTokens: chooseMaxTokens(req),
		Stream:    true,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, core.NewAgentError(core.ClassTranslation, core.ErrCodeTranslation, err.Error()).WithCause(err).WithProvider(a.Name())
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint("/v1/messages"), bytes.NewReader(payload))
	if err != nil {
		return nil, core.NewAgentError(core.ClassConfiguration, core.ErrCodeInvalidConfig, err.Error()).WithProvider(a.Name())
	}
	a.buildHeaders(httpReq)
	httpReq.Header.Set("Accept", "text/event-stream")
	for k, vs := range extraHeaders {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := a.stream.Do(httpReq)
	if err != nil {
		return nil, common.ClassifyNetworkError(err, a.Name())
	}
	if resp.StatusCode >= 400 {
		defer common.SafeCloseBody(resp)
		msg := readErrMsg(resp.Body)
		return nil, mapError(resp.StatusCode, msg, a.Name())
	}

	ch := make(chan agent.StreamChunk)
	go func() {
		defer common.SafeCloseBody(resp)
		defer close(ch)
		reader := bufio.NewReader(resp.Body)

		var currentID, currentModel string

		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				// The stream ended before message_stop: report it as a disconnect.
				if err == io.EOF {
					err = io.ErrUnexpectedEOF
				}
				ch <- agent.StreamChunk{Err: common.ClassifyNetworkError(err, a.Name())}
				return
			}
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "event:") || !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))

			var ev anthropicStreamEvent
			if err := json.Unmarshal([]byte(data), &ev); err != nil {
				ch <- agent.StreamChunk{Err: core.NewAgentError(core.ClassTranslation, core.ErrCodeTranslation, err.Error()).WithCause(err).WithProvider(a.Name())}
				return
			}

			switch ev.Type {
			case "message_start":
				if ev.Message != nil {
					currentID = ev.Message.ID
					currentModel = ev.Message.Model
				}
				ch <- agent.StreamChunk{ID: currentID, Model: currentModel, DeltaRole: agent.RoleAssistant}
			case "content_block_delta":
				if ev.Delta != nil {
					ch <- agent.StreamChunk{ID: currentID, Model: currentModel, DeltaContent: ev.Delta.Text}
				}
			case "message_delta":
				if ev.Delta != nil && ev.Delta.StopReason != "" {
					ch <- agent.StreamChunk{ID: currentID, Model: currentModel, FinishReason: mapFinishReason(ev.Delta.StopReason)}
				}
			case "message_stop":
				ch <- agent.StreamChunk{Done: true}
				return
			}
		}
	}()

	return ch, nil
}

// CountTokens always returns a Heuristic estimate. Anthropic's own token
// counting endpoint requires a round trip this call path can't afford, so
// Anthropic defaults to the heuristic like every non-OpenAI provider.
func (a *Agent) CountTokens(_ string, text string) core.TokenCount {
	return tokencount.Estimate(text)
}

func readErrMsg(body io.Reader) string {
	data, _ := io.ReadAll(body)
	var er anthropicErrorResp
	if err := json.Unmarshal(data, &er); err == nil && er.Error.Message != "" {
		return er.Error.Message
	}
	return string(data)
}

func mapError(status int, msg string, provider string) *core.AgentError {
	return common.MapHTTPError(status, msg, provider)
}
