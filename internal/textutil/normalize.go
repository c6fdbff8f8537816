// Package textutil provides the text canonicalization and fuzzy matching
// primitives used by every field comparator.
package textutil

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var multiSpace = regexp.MustCompile(`\s+`)

// glyphFolder maps typographic glyphs that OCR and label designers love to
// their plain ASCII equivalents. Acute and grave accents show up as
// apostrophe substitutes often enough to fold them too.
var glyphFolder = strings.NewReplacer(
	"‘", "'", // left single quote
	"’", "'", // right single quote
	"‚", "'", // single low quote
	"‛", "'", // single reversed quote
	"´", "'", // acute accent
	"`", "'", // grave accent
	"“", `"`, // left double quote
	"”", `"`, // right double quote
	"„", `"`, // double low quote
	"–", "-", // en dash
	"—", "-", // em dash
	"…", "...", // horizontal ellipsis
)

// Normalize canonicalizes text for comparison: smart quote / dash /
// ellipsis folding, Unicode compatibility normalization, lower case, and
// whitespace collapsed to single spaces. The glyph fold runs before NFKC
// because NFKC decomposes the acute accent into space plus a combining
// mark, which would put it out of the fold's reach.
func Normalize(s string) string {
	s = glyphFolder.Replace(s)
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
