// Package markup turns user-written markdown into HTML that is safe to embed
// in pages.
package markup

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewRenderer() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)

	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	return &Renderer{md: md, policy: policy}
}

// Convert renders source as markdown and strips anything the UGC policy does
// not allow.
func (r *Renderer) Convert(source string) ([]byte, error) {
	var buf bytes.Buffer

	err := r.md.Convert([]byte(source), &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to convert markdown: %w", err)
	}

	return r.policy.SanitizeBytes(buf.Bytes()), nil
}

// Render is Convert for templates. On a conversion error the escaped source is
// returned instead.
func (r *Renderer) Render(source string) template.HTML {
	out, err := r.Convert(source)
	if err != nil {
		slog.ErrorContext(context.Background(), "failed to render markdown", "error", err)

		return template.HTML(template.HTMLEscapeString(source)) //nolint:gosec
	}

	return template.HTML(out) //nolint:gosec
}
