// Package openai implements agent.Agent for the hosted OpenAI API. It
// embeds openaicompat.Agent — whose wire format OpenAI itself defines — and
// overrides only Profile and CountTokens, to use and advertise an exact
// tiktoken byte-pair-encoding count instead of the heuristic every other
// provider falls back to.
package openai
