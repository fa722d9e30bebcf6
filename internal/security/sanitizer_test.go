package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentSanitizer_SanitizeHTML(t *testing.T) {
	s := NewContentSanitizer()

	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "script removed",
			input:    `<p>hello</p><script>alert(1)</script>`,
			contains: []string{"<p>hello</p>"},
			excludes: []string{"<script", "alert(1)"},
		},
		{
			name:     "event handler removed",
			input:    `<img src="https://example.com/a.png" onerror="alert(1)">`,
			contains: []string{`src="https://example.com/a.png"`},
			excludes: []string{"onerror"},
		},
		{
			name:     "javascript url removed",
			input:    `<a href="javascript:alert(1)">x</a>`,
			excludes: []string{"javascript:"},
		},
		{
			name:     "external link gets rel and target",
			input:    `<a href="https://example.com">x</a>`,
			contains: []string{`target="_blank"`, "noreferrer"},
		},
		{
			name:     "editor markup kept",
			input:    `<h2>Title</h2><pre class="ql-syntax">code</pre><ul><li>a</li></ul>`,
			contains: []string{"<h2>Title</h2>", `<pre class="ql-syntax">code</pre>`, "<li>a</li>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := s.SanitizeHTML(tt.input)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, bad := range tt.excludes {
				assert.NotContains(t, out, bad)
			}
		})
	}
}

func TestContentSanitizer_StripTags(t *testing.T) {
	s := NewContentSanitizer()

	assert.Equal(t, "bold move", s.StripTags("<b>bold</b> move"))
	assert.Equal(t, "Tom & Jerry", s.StripTags("Tom & Jerry"))
	assert.Equal(t, "", s.StripTags("<script></script>"))
	assert.Equal(t, "a < b", s.StripTags("a < b"))
}

func TestContentSanitizer_StripTagsEncodedMarkup(t *testing.T) {
	s := NewContentSanitizer()

	tests := []struct {
		name string
		raw  string
	}{
		{"escaped script", "&lt;script&gt;alert(1)&lt;/script&gt;"},
		{"escaped img handler", "&lt;img src=x onerror=alert(1)&gt;"},
		{"double escaped", "&amp;lt;img src=x onerror=alert(1)&amp;gt;"},
		{"numeric entities", "&#60;script&#62;alert(1)&#60;/script&#62;"},
		{"mixed with text", "hi &lt;b onclick=x&gt;there&lt;/b&gt;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.StripTags(tt.raw)
			assert.NotContains(t, got, "<")
			assert.NotContains(t, got, "onerror")
			assert.NotContains(t, got, "onclick")
		})
	}

	assert.Equal(t, "", s.StripTags("&lt;script&gt;alert(1)&lt;/script&gt;"))
	assert.Equal(t, "hi there", s.StripTags("hi &lt;b onclick=x&gt;there&lt;/b&gt;"))
}
