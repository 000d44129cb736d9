// Package openaicompat implements agent.Agent for every backend family that
// already speaks the OpenAI wire format natively: vLLM, Exo, LM Studio, and
// any Generic OpenAI-compatible server, plus it is embedded by the OpenAI
// variant itself for the bearer-auth and tiktoken specialization, and by
// the Ollama and llama.cpp variants for their shared chat-completion wire
// format.
package openaicompat
