package textutil

import "regexp"

// trailingPossessive matches a possessive 's at the end of the string.
// Only the apostrophe is dropped, and only in the trailing form:
// "jack daniel's" and "jack daniels" should compare equal, but an
// interior possessive still counts as a real textual difference for the
// edit-distance fallback to weigh.
var trailingPossessive = regexp.MustCompile(`'s$`)

// ocrConfusions lists glyph pairs that OCR routinely swaps. Inputs are
// normalized (lower case) before these run. Each substitution is tried
// independently, not combinatorially.
var ocrConfusions = [][2]string{
	{"0", "o"},
	{"o", "0"},
	{"1", "l"},
	{"l", "1"},
	{"1", "i"},
	{"i", "1"},
	{"5", "s"},
	{"s", "5"},
	{"8", "b"},
	{"b", "8"},
	{"rn", "m"},
	{"m", "rn"},
}

// Similarity returns a normalized Levenshtein similarity in [0,1] over the
// canonical forms of a and b. Identical strings score 1.0; an empty side
// scores 0.0. This is a metric, not a probability; callers pick thresholds.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		return 1.0
	}
	if na == "" || nb == "" {
		return 0.0
	}
	dist := levenshtein(na, nb)
	maxLen := len(na)
	if len(nb) > maxLen {
		maxLen = len(nb)
	}
	return 1.0 - float64(dist)/float64(maxLen)
}

// SemanticallyEqual reports whether a and b are the same text modulo case,
// whitespace, quote glyphs, a trailing possessive, and single OCR glyph
// confusions. It is a cheap escape valve, not exhaustive fuzzy matching;
// Similarity is the fallback for everything else.
func SemanticallyEqual(a, b string) bool {
	na := trailingPossessive.ReplaceAllString(Normalize(a), "s")
	nb := trailingPossessive.ReplaceAllString(Normalize(b), "s")
	if na == nb {
		return true
	}
	for _, sub := range ocrConfusions {
		if substitutesTo(na, nb, sub[0], sub[1]) {
			return true
		}
	}
	return false
}

// substitutesTo reports whether replacing exactly one occurrence of old in
// s with repl yields want. Replacing every occurrence would overshoot when
// the same glyph appears more than once and only one of them was misread.
func substitutesTo(s, want, old, repl string) bool {
	for i := 0; i+len(old) <= len(s); i++ {
		if s[i:i+len(old)] != old {
			continue
		}
		if s[:i]+repl+s[i+len(old):] == want {
			return true
		}
	}
	return false
}

// levenshtein computes edit distance with unit costs using the standard
// two-row dynamic program.
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
