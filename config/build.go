package config

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/nexusrouter/nexus/agent"
	"github.com/nexusrouter/nexus/agent/providers/anthropic"
	"github.com/nexusrouter/nexus/agent/providers/google"
	"github.com/nexusrouter/nexus/agent/providers/llamacpp"
	"github.com/nexusrouter/nexus/agent/providers/ollama"
	"github.com/nexusrouter/nexus/agent/providers/openai"
	"github.com/nexusrouter/nexus/agent/providers/openaicompat"
	"github.com/nexusrouter/nexus/core"
)

// BuildAgent constructs the agent.Agent implementation matching backend's
// type, wiring in apiKey (empty for the local provider families) and the
// per-backend outbound rate limit declared in bc. It is the single place a
// BackendConfig's `type` field turns into a concrete provider package —
// cmd/nexusd calls this once per declared backend at startup.
func BuildAgent(backend *core.Backend, bc BackendConfig, apiKey string, logger *zap.Logger) (agent.Agent, error) {
	rps, burst := bc.RequestsPerSecond, bc.Burst

	switch backend.Type {
	case core.BackendOllama:
		return ollama.New(openaicompat.Config{
			ID: backend.ID, Name: backend.Name, BaseURL: backend.URL,
			RequestsPerSecond: rps, Burst: burst,
		}, backend.Zone, logger), nil

	case core.BackendLlamaCpp:
		return llamacpp.New(openaicompat.Config{
			ID: backend.ID, Name: backend.Name, BaseURL: backend.URL,
			RequestsPerSecond: rps, Burst: burst,
		}, backend.Zone, logger), nil

	case core.BackendVLLM, core.BackendExo, core.BackendLMStudio, core.BackendGeneric:
		return openaicompat.New(openaicompat.Config{
			ID: backend.ID, Name: backend.Name, BaseURL: backend.URL,
			RequestsPerSecond: rps, Burst: burst,
		}, backend.Type, backend.Zone, logger), nil

	case core.BackendOpenAI:
		return openai.New(openaicompat.Config{
			ID: backend.ID, Name: backend.Name, BaseURL: backend.URL, APIKey: apiKey,
			RequestsPerSecond: rps, Burst: burst,
		}, logger), nil

	case core.BackendAnthropic:
		return anthropic.New(anthropic.Config{
			ID: backend.ID, Name: backend.Name, BaseURL: backend.URL, APIKey: apiKey,
			RequestsPerSecond: rps, Burst: burst,
		}, logger), nil

	case core.BackendGoogle:
		return google.New(google.Config{
			ID: backend.ID, Name: backend.Name, BaseURL: backend.URL, APIKey: apiKey,
			RequestsPerSecond: rps, Burst: burst,
		}, logger), nil

	default:
		return nil, fmt.Errorf("config: no agent implementation registered for backend type %q", backend.Type)
	}
}
