package openai

import (
	"go.uber.org/zap"

	"github.com/nexusrouter/nexus/agent/providers/openaicompat"
	"github.com/nexusrouter/nexus/agent/tokencount"
	"github.com/nexusrouter/nexus/core"
)

const defaultBaseURL = "https://api.openai.com"

// Agent implements agent.Agent for OpenAI.
type Agent struct {
	*openaicompat.Agent
	tokens *tokencount.TiktokenCounter
}

// New constructs an OpenAI agent. If cfg.BaseURL is empty it defaults to
// the hosted API, so callers only need to set APIKey for the common case.
func New(cfg openaicompat.Config, logger *zap.Logger) *Agent {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Agent{
		Agent:  openaicompat.New(cfg, core.BackendOpenAI, core.ZoneOpen, logger),
		tokens: tokencount.NewTiktokenCounter(),
	}
}

// Profile overrides the embedded profile to advertise exact token
// counting, the one capability OpenAI has that the rest of the
// OpenAI-compatible family lacks.
func (a *Agent) Profile() core.AgentProfile {
	p := a.Agent.Profile()
	p.Capabilities.TokenCounting = true
	return p
}

// CountTokens returns an Exact count via tiktoken, falling back to the
// heuristic only if the model's encoding can't be loaded.
func (a *Agent) CountTokens(model, text string) core.TokenCount {
	return a.tokens.Count(model, text)
}
