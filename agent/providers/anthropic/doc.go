// Package anthropic implements agent.Agent for the Anthropic Messages API.
// Unlike the OpenAI-compatible family, Anthropic's wire format differs
// enough (x-api-key auth, a separate system field, content-block arrays,
// its own SSE event sequence) that this variant implements agent.Agent
// directly rather than embedding openaicompat.Agent.
package anthropic
