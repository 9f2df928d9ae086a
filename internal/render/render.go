// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns assistant Markdown into sanitized HTML for the web UI,
// styled text for terminals, and plain text for copying.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/jeranaias/chatweb/internal/model"
)

// =============================================================================
// HTML
// =============================================================================

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
	)

	// SECURITY: Model output is untrusted; everything goes through the UGC policy.
	policy = newPolicy()
)

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// HTML converts Markdown to sanitized HTML. Conversion errors fall back to
// the escaped source in a paragraph.
func HTML(md string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return template.HTML("<p>" + template.HTMLEscapeString(md) + "</p>")
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes()))
}

// =============================================================================
// TERMINAL
// =============================================================================

// DefaultWidth is the wrap width used when the terminal size is unknown.
const DefaultWidth = 80

var (
	termMu        sync.Mutex
	termRenderers = map[int]*glamour.TermRenderer{}
)

func termRenderer(width int) (*glamour.TermRenderer, error) {
	termMu.Lock()
	defer termMu.Unlock()
	if r, ok := termRenderers[width]; ok {
		return r, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	termRenderers[width] = r
	return r, nil
}

// Terminal renders Markdown for a terminal of the given width. It returns
// md unchanged if rendering fails.
func Terminal(md string, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	r, err := termRenderer(width)
	if err != nil {
		return md
	}
	termMu.Lock()
	out, err := r.Render(md)
	termMu.Unlock()
	if err != nil {
		return md
	}
	return out
}

// =============================================================================
// TEXT
// =============================================================================

var plainReplacer = strings.NewReplacer("#", "", "*", "", "`", "")

// PlainText strips the Markdown marker characters #, * and backtick. It is
// what the "copy as text" actions produce.
func PlainText(md string) string {
	return plainReplacer.Replace(md)
}

// MessageMarkdown returns msg's content followed by its sources as a
// Markdown list, in citation order.
func MessageMarkdown(msg model.Message) string {
	if !msg.HasSources() {
		return msg.Content
	}
	var sb strings.Builder
	sb.WriteString(msg.Content)
	sb.WriteString("\n\n**Sources**\n\n")
	for _, src := range msg.Sources {
		fmt.Fprintf(&sb, "- [%s](%s)\n", escapeLinkText(src.Title), src.URI)
	}
	return sb.String()
}

func escapeLinkText(s string) string {
	return strings.NewReplacer("[", `\[`, "]", `\]`).Replace(s)
}
