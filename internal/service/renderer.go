package service

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer turns revision markdown into sanitized HTML.
type Renderer struct {
	markdown  goldmark.Markdown
	sanitizer *bluemonday.Policy
	stripper  *bluemonday.Policy
}

// NewRenderer creates a Renderer instance.
func NewRenderer() *Renderer {
	return &Renderer{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
			goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
		),
		sanitizer: bluemonday.UGCPolicy(),
		stripper:  bluemonday.StrictPolicy(),
	}
}

// Render converts markdown to HTML safe for embedding.
func (r *Renderer) Render(content string) (string, error) {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	return string(r.sanitizer.SanitizeBytes(buf.Bytes())), nil
}

// HasContent reports whether the title or body would show anything once
// rendered. Markup that sanitizes away does not count.
func (r *Renderer) HasContent(title, content string) bool {
	if strings.TrimSpace(title) != "" {
		return true
	}
	if strings.TrimSpace(content) == "" {
		return false
	}

	rendered, err := r.Render(content)
	if err != nil {
		return true
	}
	if strings.Contains(rendered, "<img") {
		return true
	}
	text := r.stripper.Sanitize(rendered)
	return strings.TrimSpace(strings.ReplaceAll(text, "&nbsp;", "")) != ""
}
