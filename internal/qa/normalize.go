// Package qa answers questions about a chat transcript with lexical
// heuristics: it resolves which participant a question is about, picks an
// intent from keywords and synthesizes a short answer from matching sentences.
package qa

import (
	"regexp"
	"strings"
)

var (
	quoteReplacer = strings.NewReplacer(
		"’", "'",
		"‘", "'",
		"“", `"`,
		"”", `"`,
	)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// Normalize straightens curly quotes, collapses whitespace runs into a single
// space and trims the result.
func Normalize(s string) string {
	s = quoteReplacer.Replace(s)
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeValue normalizes v when it is a string and returns "" otherwise.
func NormalizeValue(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return Normalize(s)
}
