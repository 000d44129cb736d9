package tokencount

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/nexusrouter/nexus/core"
)

// modelEncoding names the tiktoken encoding for each OpenAI model family
// this router counts exactly.
var modelEncoding = map[string]string{
	"gpt-4o":        "o200k_base",
	"gpt-4o-mini":   "o200k_base",
	"gpt-5.2":       "o200k_base",
	"gpt-4":         "cl100k_base",
	"gpt-4-turbo":   "cl100k_base",
	"gpt-3.5-turbo": "cl100k_base",
}

const defaultEncoding = "o200k_base"

// TiktokenCounter counts tokens exactly for OpenAI models using a
// byte-pair-encoding tokenizer, with a per-process cache of encodings to
// avoid rebuilding the BPE ranks on every call. Safe for concurrent use:
// Count may be called from many request handlers at once.
type TiktokenCounter struct {
	mu    sync.Mutex
	cache map[string]*tiktoken.Tiktoken
}

// NewTiktokenCounter constructs an empty counter; encodings are built
// lazily on first use of each encoding name.
func NewTiktokenCounter() *TiktokenCounter {
	return &TiktokenCounter{cache: make(map[string]*tiktoken.Tiktoken)}
}

// Count returns an Exact token count for text under model's encoding. If
// the encoding cannot be loaded (an unexpected environment problem, not a
// missing-model situation — every OpenAI model maps to a known encoding
// above or the o200k_base default), Count falls back to the heuristic
// rather than propagating an error.
func (c *TiktokenCounter) Count(model, text string) core.TokenCount {
	enc := modelEncoding[model]
	if enc == "" {
		enc = defaultEncoding
	}

	c.mu.Lock()
	tk, ok := c.cache[enc]
	if !ok {
		built, err := tiktoken.GetEncoding(enc)
		if err != nil {
			c.mu.Unlock()
			return Estimate(text)
		}
		tk = built
		c.cache[enc] = tk
	}
	c.mu.Unlock()

	tokens := tk.Encode(text, nil, nil)
	return core.NewExactTokenCount(len(tokens))
}
