// Package google implements agent.Agent for the Gemini API. Auth is an API
// key passed as a URL query parameter rather than a header; the request and
// response shapes (systemInstruction, parts arrays, candidates) differ
// enough from OpenAI's that this variant implements agent.Agent directly,
// including its own finish-reason and assistant/model role-remap rules.
package google
