// Package tokencount provides the two counting strategies agent variants
// use to implement Agent.CountTokens: an exact byte-pair-encoding counter
// for OpenAI (wrapping github.com/pkoukk/tiktoken-go) and a cheap
// CJK-aware heuristic for every other provider, which declares itself
// Heuristic rather than Exact.
package tokencount
