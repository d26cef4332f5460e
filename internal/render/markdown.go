// Package render converts model output, which is usually markdown, to HTML
// that is safe to inject into the page.
package render

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func New() *Renderer {
	policy := bluemonday.UGCPolicy()
	// Keep fenced-code language hints for client-side highlighting.
	policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code")

	return &Renderer{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: policy,
	}
}

// HTML renders text as sanitized HTML. Conversion failures fall back to
// the escaped plain text.
func (r *Renderer) HTML(text string) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		return r.policy.Sanitize("<pre>" + bluemonday.StrictPolicy().Sanitize(text) + "</pre>")
	}
	return string(r.policy.SanitizeBytes(buf.Bytes()))
}
