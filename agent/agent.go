package agent

import (
	"context"
	"net/http"

	"github.com/nexusrouter/nexus/core"
)

// Agent is the behavioral counterpart of a core.Backend: it owns the HTTP
// client, credentials, and translation logic for exactly one provider.
// Implementations are value-immutable after construction — interior state
// is limited to shared *http.Clients, an optional rate limiter and, for
// OpenAI, a tokenizer cache — so
// every method below is safe to invoke concurrently from many request
// handlers concurrently without external locking.
//
// Every operation that can fail returns a *core.AgentError classifying the
// cause as Configuration, Network, Protocol, Upstream, or Translation.
type Agent interface {
	// ID returns the stable backend id this agent is bound to.
	ID() string
	// Name returns the display name.
	Name() string
	// Profile returns the agent's static self-description. Pure: never
	// performs I/O, always returns the same value.
	Profile() core.AgentProfile

	// HealthCheck performs an authenticated probe to the provider's
	// canonical endpoint and reports latency.
	HealthCheck(ctx context.Context) (HealthStatus, error)
	// ListModels returns the canonical set of models the backend exposes.
	ListModels(ctx context.Context) ([]core.Model, error)

	// ChatCompletion translates req, calls the upstream, and translates
	// the response back to OpenAI shape. extraHeaders are forwarded
	// verbatim on the outbound request (e.g. a caller-supplied credential
	// override); nil is accepted.
	ChatCompletion(ctx context.Context, req *ChatRequest, extraHeaders http.Header) (*ChatResponse, error)
	// ChatCompletionStream is the streaming counterpart of ChatCompletion.
	// The returned channel yields chunks until a Done chunk or an Err
	// chunk; the agent closes the channel after either.
	ChatCompletionStream(ctx context.Context, req *ChatRequest, extraHeaders http.Header) (<-chan StreamChunk, error)

	// CountTokens returns Exact when the agent owns a tokenizer matching
	// model; otherwise it falls back to a Heuristic estimate
	// (floor(len(text)/4) for text without CJK characters).
	// Never returns an error — a tokenizer miss degrades to the heuristic.
	CountTokens(model, text string) core.TokenCount
}
