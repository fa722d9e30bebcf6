// Package security cleans user-supplied post and comment text.
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizer applies an allow-list policy to rich text and a strict
// policy to plain fields. It is safe for concurrent use.
type ContentSanitizer struct {
	rich  *bluemonday.Policy
	plain *bluemonday.Policy
}

// NewContentSanitizer builds the policies. Post bodies come from a rich-text
// editor, so headings, lists, code blocks, links and images are allowed.
func NewContentSanitizer() *ContentSanitizer {
	rich := bluemonday.UGCPolicy()
	rich.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("pre", "code", "span", "p")
	rich.AllowURLSchemes("http", "https", "mailto")
	rich.AddTargetBlankToFullyQualifiedLinks(true)
	rich.RequireNoReferrerOnLinks(true)

	return &ContentSanitizer{
		rich:  rich,
		plain: bluemonday.StrictPolicy(),
	}
}

// SanitizeHTML removes scripts, event handlers and unsafe URLs from s.
func (s *ContentSanitizer) SanitizeHTML(raw string) string {
	return s.rich.Sanitize(raw)
}

// maxStripPasses bounds how many layers of entity encoding StripTags unwraps.
const maxStripPasses = 8

// StripTags removes all markup from s. Entities escaped by the policy are
// turned back into text since the result is stored as plain text, so the
// policy is reapplied until unescaping no longer changes the result. Input
// still changing after maxStripPasses is returned in escaped form.
func (s *ContentSanitizer) StripTags(raw string) string {
	cur := raw
	for i := 0; i < maxStripPasses; i++ {
		next := html.UnescapeString(s.plain.Sanitize(cur))
		if next == cur {
			return strings.TrimSpace(next)
		}
		cur = next
	}
	return strings.TrimSpace(s.plain.Sanitize(cur))
}
