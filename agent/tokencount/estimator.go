package tokencount

import "github.com/nexusrouter/nexus/core"

// cjkCharsPerToken and asciiCharsPerToken are the rough chars-per-token
// ratios used by the heuristic estimator: CJK text tokenizes far denser
// than Latin-script text under typical BPE vocabularies.
const (
	cjkCharsPerToken   = 1.5
	asciiCharsPerToken = 4.0
)

// Estimate returns a Heuristic token count for text, used by every agent
// variant except OpenAI. It refines the floor(len/4) fallback with a
// CJK/ASCII split, while still degrading to floor(len/4) for pure-ASCII
// text.
func Estimate(text string) core.TokenCount {
	if text == "" {
		return core.NewHeuristicTokenCount(0)
	}

	runes := []rune(text)
	cjkCount := 0
	for _, r := range runes {
		if isCJK(r) {
			cjkCount++
		}
	}
	total := len(runes)
	asciiCount := total - cjkCount

	tokens := float64(cjkCount)/cjkCharsPerToken + float64(asciiCount)/asciiCharsPerToken
	return core.NewHeuristicTokenCount(int(tokens))
}

// isCJK reports whether r falls in a CJK Unicode block.
func isCJK(r rune) bool {
	switch {
	case r >= 0x4E00 && r <= 0x9FFF: // CJK Unified Ideographs
		return true
	case r >= 0x3040 && r <= 0x30FF: // Hiragana, Katakana
		return true
	case r >= 0xAC00 && r <= 0xD7AF: // Hangul Syllables
		return true
	case r >= 0x3400 && r <= 0x4DBF: // CJK Extension A
		return true
	default:
		return false
	}
}
