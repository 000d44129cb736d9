package google

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
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

// Agent implements agent.Agent for Gemini.
type Agent struct {
	cfg     Config
	client  *http.Client
	stream  *http.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

// New constructs a Gemini agent.
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

func (a *Agent) Profile() core.AgentProfile {
	return core.AgentProfile{
		AgentType:   core.BackendGoogle,
		PrivacyZone: core.ZoneOpen,
		Capabilities: core.AgentCapabilities{
			ModelLifecycle: true,
		},
	}
}

// withKey appends the API key as a URL query parameter, the auth scheme
// Gemini's REST API accepts alongside the x-goog-api-key header.
func (a *Agent) withKey(endpoint string) string {
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%skey=%s", endpoint, sep, url.QueryEscape(a.cfg.APIKey))
}

func (a *Agent) endpoint(path string) string {
	return strings.TrimRight(a.cfg.BaseURL, "/") + path
}

type modelListResponse struct {
	Models []struct {
		Name                       string   `json:"name"`
		SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
	} `json:"models"`
}

// HealthCheck probes GET /v1beta/models.
func (a *Agent) HealthCheck(ctx context.Context) (agent.HealthStatus, error) {
	if err := a.throttle(ctx); err != nil {
		return agent.HealthStatus{}, err
	}
	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.withKey(a.endpoint("/v1beta/models")), nil)
	if err != nil {
		return agent.HealthStatus{}, core.NewAgentError(core.ClassConfiguration, core.ErrCodeInvalidConfig, err.Error()).WithProvider(a.Name())
	}

	resp, err := a.client.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return agent.HealthStatus{}, common.ClassifyNetworkError(err, a.Name())
	}
	defer common.SafeCloseBody(resp)

	if resp.StatusCode != http.StatusOK {
		msg := readErrMsg(resp.Body)
		return agent.HealthStatus{}, common.MapHTTPError(resp.StatusCode, msg, a.Name())
	}
	return agent.HealthStatus{Healthy: true, LatencyMs: float64(latency.Microseconds()) / 1000.0}, nil
}

// ListModels parses GET /v1beta/models and filters to models supporting
// generateContent.
func (a *Agent) ListModels(ctx context.Context) ([]core.Model, error) {
	if err := a.throttle(ctx); err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.withKey(a.endpoint("/v1beta/models")), nil)
	if err != nil {
		return nil, core.NewAgentError(core.ClassConfiguration, core.ErrCodeInvalidConfig, err.Error()).WithProvider(a.Name())
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, common.ClassifyNetworkError(err, a.Name())
	}
	defer common.SafeCloseBody(resp)

	if resp.StatusCode != http.StatusOK {
		msg := readErrMsg(resp.Body)
		return nil, common.MapHTTPError(resp.StatusCode, msg, a.Name())
	}

	var parsed modelListResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, core.NewAgentError(core.ClassTranslation, core.ErrCodeTranslation, err.Error()).WithCause(err).WithProvider(a.Name())
	}

	models := make([]core.Model, 0, len(parsed.Models))
	for _, m := range parsed.Models {
		if !supportsGenerateContent(m.SupportedGenerationMethods) {
			continue
		}
		models = append(models, core.NewModel(strings.TrimPrefix(m.Name, "models/")))
	}
	return models, nil
}

func supportsGenerateContent(methods []string) bool {
	for _, m := range methods {
		if m == "generateContent" {
			return true
		}
	}
	return false
}

type geminiPart struct {
	Text         string              `json:"text,omitempty"`
	FunctionCall *geminiFunctionCall `json:"functionCall,omitempty"`
}

type geminiFunctionCall struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float32 `json:"temperature,omitempty"`
	TopP            float32 `json:"topP,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
	Index        int           `json:"index"`
}

type geminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type geminiResponse struct {
	Candidates    []geminiCandidate    `json:"candidates"`
	UsageMetadata *geminiUsageMetadata `json:"usageMetadata,omitempty"`
	ResponseID    string               `json:"responseId,omitempty"`
}

type geminiErrorResp struct {
	Error struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// convertContents extracts system messages into a systemInstruction and
// remaps assistant -> model, Gemini's name for the assistant role.
func convertContents(msgs []agent.Message) (*geminiContent, []geminiContent) {
	var systemInstruction *geminiContent
	var contents []geminiContent

	for _, m := range msgs {
		if m.Role == agent.RoleSystem {
			if systemInstruction == nil {
				systemInstruction = &geminiContent{}
			}
			systemInstruction.Parts = append(systemInstruction.Parts, geminiPart{Text: m.Content})
			continue
		}

		role := string(m.Role)
		if role == string(agent.RoleAssistant) {
			role = "model"
		}
		content := geminiContent{Role: role}
		if m.Content != "" {
			content.Parts = append(content.Parts, geminiPart{Text: m.Content})
		}
		for _, tc := range m.ToolCalls {
			var args map[string]interface{}
			_ = json.Unmarshal(tc.Arguments, &args)
			content.Parts = append(content.Parts, geminiPart{FunctionCall: &geminiFunctionCall{Name: tc.Name, Args: args}})
		}
		if len(content.Parts) > 0 {
			contents = append(contents, content)
		}
	}
	return systemInstruction, contents
}

func mapFinishReason(r string) string {
	switch r {
	case "STOP":
		return "stop"
	case "MAX_TOKENS":
		return "length"
	case "SAFETY", "RECITATION":
		return "content_filter"
	default:
		return strings.ToLower(r)
	}
}

func chooseModel(reqModel string) string {
	if reqModel != "" {
		return reqModel
	}
	return defaultModel
}

func (a *Agent) ChatCompletion(ctx context.Context, req *agent.ChatRequest, extraHeaders http.Header) (*agent.ChatResponse, error) {
	if err := a.throttle(ctx); err != nil {
		return nil, err
	}
	systemInstruction, contents := convertContents(req.Messages)
	body := geminiRequest{Contents: contents, SystemInstruction: systemInstruction}
	if req.Temperature > 0 || req.TopP > 0 || req.MaxTokens > 0 {
		body.GenerationConfig = &geminiGenerationConfig{
			Temperature: req.Temperature, TopP: req.TopP, MaxOutputTokens: req.MaxTokens,
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, core.NewAgentError(core.ClassTranslation, core.ErrCodeTranslation, err.Error()).WithCause(err).WithProvider(a.Name())
	}

	model := chooseModel(req.Model)
	endpoint := a.withKey(a.endpoint(fmt.Sprintf("/v1beta/models/%s:generateContent", model)))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, core.NewAgentError(core.ClassConfiguration, core.ErrCodeInvalidConfig, err.Error()).WithProvider(a.Name())
	}
	httpReq.Header.Set("Content-Type", "application/json")
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
		return nil, common.MapHTTPError(resp.StatusCode, msg, a.Name())
	}

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, core.NewAgentError(core.ClassTranslation, core.ErrCodeTranslation, err.Error()).WithCause(err).WithProvider(a.Name())
	}
	return toChatResponse(gr, a.Name(), model), nil
}

func toChatResponse(gr geminiResponse, provider, model string) *agent.ChatResponse {
	choices := make([]agent.ChatChoice, 0, len(gr.Candidates))
	for _, c := range gr.Candidates {
		msg := agent.Message{Role: agent.RoleAssistant}
		for _, p := range c.Content.Parts {
			if p.Text != "" {
				msg.Content += p.Text
			}
			if p.FunctionCall != nil {
				argsJSON, _ := json.Marshal(p.FunctionCall.Args)
				msg.ToolCalls = append(msg.ToolCalls, agent.ToolCall{Name: p.FunctionCall.Name, Arguments: argsJSON})
			}
		}
		choices = append(choices, agent.ChatChoice{Index: c.Index, Message: msg, FinishReason: mapFinishReason(c.FinishReason)})
	}

	resp := &agent.ChatResponse{ID: gr.ResponseID, Object: "chat.completion", Provider: provider, Model: model, Choices: choices}
	if gr.UsageMetadata != nil {
		resp.Usage = agent.ChatUsage{
			PromptTokens:     gr.UsageMetadata.PromptTokenCount,
			CompletionTokens: gr.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      gr.UsageMetadata.TotalTokenCount,
		}
	}
	return resp
}

// ChatCompletionStream consumes Gemini's streaming response, which may be
// SSE or newline-delimited JSON depending on mode; both forms decode as one
// geminiResponse per `data:`/line, so a single parser handles either.
func (a *Agent) ChatCompletionStream(ctx context.Context, req *agent.ChatRequest, extraHeaders http.Header) (<-chan agent.StreamChunk, error) {
	if err := a.throttle(ctx); err != nil {
		return nil, err
	}
	systemInstruction, contents := convertContents(req.Messages)
	body := geminiRequest{Contents: contents, SystemInstruction: systemInstruction}
	if req.Temperature > 0 || req.TopP > 0 || req.MaxTokens > 0 {
		body.GenerationConfig = &geminiGenerationConfig{
			Temperature: req.Temperature, TopP: req.TopP, MaxOutputTokens: req.MaxTokens,
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, core.NewAgentError(core.ClassTranslation, core.ErrCodeTranslation, err.Error()).WithCause(err).WithProvider(a.Name())
	}

	model := chooseModel(req.Model)
	endpoint := a.withKey(a.endpoint(fmt.Sprintf("/v1beta/models/%s:streamGenerateContent", model)))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, core.NewAgentError(core.ClassConfiguration, core.ErrCodeInvalidConfig, err.Error()).WithProvider(a.Name())
	}
	httpReq.Header.Set("Content-Type", "application/json")
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
				if err == io.EOF {
					// Gemini streams end by closing the connection rather
					// than sending a sentinel; synthesize the terminal chunk.
					ch <- agent.StreamChunk{Done: true}
				} else {
					ch <- agent.StreamChunk{Err: common.ClassifyNetworkError(err, a.Name())}
				}
				return
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "" || data == "[" || data == "]" || data == "," {
				continue
			}

			var gr geminiResponse
			if err := json.Unmarshal([]byte(data), &gr); err != nil {
				continue
			}
			for _, c := range gr.Candidates {
				chunk := agent.StreamChunk{Model: model, FinishReason: mapFinishReason(c.FinishReason), DeltaRole: agent.RoleAssistant}
				for _, p := range c.Content.Parts {
					chunk.DeltaContent += p.Text
				}
				ch <- chunk
			}
		}
	}()

	return ch, nil
}

// CountTokens always returns a Heuristic estimate.
func (a *Agent) CountTokens(_ string, text string) core.TokenCount {
	return tokencount.Estimate(text)
}

func readErrMsg(body io.Reader) string {
	data, _ := io.ReadAll(body)
	var er geminiErrorResp
	if err := json.Unmarshal(data, &er); err == nil && er.Error.Message != "" {
		return er.Error.Message
	}
	return string(data)
}
