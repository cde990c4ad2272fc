package pattern

import "unicode/utf8"

// ContextWindowSize is the number of characters inspected on each side of a
// match span when evaluating confidence factors.
const ContextWindowSize = 50

// Score combines a pattern's base confidence with every factor whose trigger
// matches the context window. Each triggered factor adds its weight; the
// result is clamped to [0, 1].
//
// Scoring is deterministic: the same (baseConfidence, contextWindow, factors)
// tuple always yields the same value. There is no randomness and no I/O,
// which is what makes confidence accuracy testable against a fixed corpus.
// The scorer is exposed independently of the detector so callers can re-score
// an existing match set against a different factor set.
func Score(baseConfidence float64, contextWindow string, factors []Factor) float64 {
	confidence := baseConfidence
	for _, f := range factors {
		if f.compiled == nil {
			// Factors built outside RegisterFactor are inert rather than a panic.
			continue
		}
		if f.compiled.MatchString(contextWindow) {
			confidence += f.Weight
		}
	}
	return clamp01(confidence)
}

// contextWindow extracts the fixed-size character window around a span,
// truncated at text boundaries. The window counts runes, not bytes, so
// multibyte text is never sliced mid-character.
func contextWindow(text string, span Span) string {
	start := span.Start
	for i := 0; i < ContextWindowSize && start > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:start])
		start -= size
	}
	end := span.End
	for i := 0; i < ContextWindowSize && end < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}
	return text[start:end]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
