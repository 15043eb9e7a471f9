package analyzer

import (
	"regexp"
	"strings"
	"unicode"
)

// maxQueryLength is the cap on sanitized query length, in runes.
const maxQueryLength = 500

// tagPattern matches any HTML-like tag, including script/iframe openers
// and closers. Content between tags is preserved.
var tagPattern = regexp.MustCompile(`<[^>]*>`)

// Sanitize strips HTML-like tags and control characters, trims
// surrounding whitespace and truncates to maxQueryLength runes. An input
// that sanitizes to the empty string signals a blocked query, not an
// error.
func Sanitize(raw string) string {
	text := tagPattern.ReplaceAllString(raw, " ")

	text = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, text)

	text = strings.TrimSpace(text)

	runes := []rune(text)
	if len(runes) > maxQueryLength {
		text = strings.TrimSpace(string(runes[:maxQueryLength]))
	}
	return text
}

// Normalize lowercases and collapses internal whitespace. Used for
// cache keys so trivially different spellings of the same query share an
// entry.
func Normalize(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(Sanitize(raw))), " ")
}
