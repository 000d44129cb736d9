// Package llamacpp implements agent.Agent for llama.cpp's server binary.
// It embeds openaicompat.Agent for the OpenAI-compatible chat completion
// endpoint llama.cpp also serves, and overrides only the health probe:
// llama.cpp exposes a liveness-only /health endpoint with no model listing
// endpoint, so ListModels always fails, which the health checker treats as
// "preserve the last known model list" rather than a probe failure.
package llamacpp
