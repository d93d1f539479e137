// Package content turns user-submitted text into HTML that is safe to embed.
package content

import (
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy = bluemonday.StrictPolicy()
	ugcPolicy    = bluemonday.UGCPolicy()
)

// Plain strips every tag. Used for titles, comments and other single-line fields.
func Plain(s string) string {
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}

// Markdown renders md and sanitizes the result with the UGC policy.
func Markdown(md string) string {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(md))

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	unsafe := markdown.Render(doc, renderer)

	return string(ugcPolicy.SanitizeBytes(unsafe))
}

// Tags trims, de-duplicates and caps a tag list.
func Tags(in []string, max int) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, t := range in {
		t = Plain(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) == max {
			break
		}
	}
	return out
}
