package vector

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/atelierhq/atelier/store"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// markdownToPlain renders markdown and strips the resulting markup so
// embeddings see prose, not syntax. On render failure the raw text is
// used as-is.
func markdownToPlain(markdown string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return markdown
	}
	text := htmlTagPattern.ReplaceAllString(buf.String(), " ")
	return strings.Join(strings.Fields(html.UnescapeString(text)), " ")
}

// EmbeddingText builds the text that represents a resource in embedding
// space: name, description, tags and curator note concatenated.
func EmbeddingText(r *store.Resource) string {
	parts := []string{r.Name}
	if r.Description != "" {
		parts = append(parts, markdownToPlain(r.Description))
	}
	if len(r.Tags) > 0 {
		parts = append(parts, strings.Join(r.Tags, " "))
	}
	if r.CuratorNote != "" {
		parts = append(parts, markdownToPlain(r.CuratorNote))
	}
	return strings.Join(parts, "\n")
}
