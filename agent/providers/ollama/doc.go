// Package ollama implements agent.Agent for Ollama. Ollama's chat
// completion endpoint is OpenAI-compatible, so this package embeds
// openaicompat.Agent for that part of the wire format and only overrides
// the health/model-discovery probe, which Ollama serves from its own
// /api/tags endpoint rather than /v1/models.
package ollama
