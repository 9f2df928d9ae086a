// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/jeranaias/chatweb/internal/model"
	"github.com/jeranaias/chatweb/internal/render"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports sessions to a standalone HTML page with embedded CSS.
// Message bodies go through render.HTML, so model output is sanitized.
type HTMLExporter struct {
	options *Options
	now     func() time.Time
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts, now: time.Now}
}

type htmlMessage struct {
	Class     string
	Label     string
	Timestamp string
	Body      template.HTML
	Sources   []model.Source
}

type htmlPage struct {
	Title        string
	Theme        string
	Created      string
	CreatedISO   string
	MessageCount int
	Metadata     bool
	Messages     []htmlMessage
	Exported     string
}

// Export converts a session to HTML format.
func (e *HTMLExporter) Export(sess *model.Session) ([]byte, error) {
	if err := validate(sess); err != nil {
		return nil, err
	}

	page := htmlPage{
		Title:        sess.Title,
		Theme:        e.theme(),
		MessageCount: len(sess.Messages),
		Metadata:     e.options.IncludeMetadata,
		Exported:     e.now().Format("January 2, 2006 at 3:04 PM"),
	}
	if !sess.CreatedAt.IsZero() {
		page.Created = formatTimestamp(sess.CreatedAt)
		page.CreatedISO = sess.CreatedAt.Format(time.RFC3339)
	}

	for _, msg := range sess.Messages {
		hm := htmlMessage{
			Class: string(msg.Role) + "-message",
			Label: msg.Role.DisplayName(),
			Body:  render.HTML(msg.Content),
		}
		if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
			hm.Timestamp = formatShortTimestamp(msg.Timestamp)
		}
		if e.options.IncludeSources {
			hm.Sources = msg.Sources
		}
		page.Messages = append(page.Messages, hm)
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

func (e *HTMLExporter) theme() string {
	if e.options.Theme == "light" {
		return "light"
	}
	return "dark"
}

// =============================================================================
// TEMPLATE
// =============================================================================

// The palette matches the terminal one in ui/styles.
var pageTemplate = template.Must(template.New("export").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<meta name="generator" content="chatweb">
{{- if .CreatedISO}}
<meta name="date" content="{{.CreatedISO}}">
{{- end}}
<style>
.dark-theme  { --bg: #11111b; --panel: #181825; --line: #313244; --fg: #cdd6f4; --dim: #6c7086; --user: #93c5fd; --bot: #c4b5fd; --link: #60a5fa; }
.light-theme { --bg: #fafafa; --panel: #ffffff; --line: #e5e5e5; --fg: #1f2937; --dim: #9ca3af; --user: #1e40af; --bot: #5b4b8a; --link: #2563eb; }
html, body { margin: 0; }
body { background: var(--bg); color: var(--fg); font: 15px/1.6 system-ui, sans-serif; }
main { max-width: 820px; margin: 0 auto; padding: 24px 16px; }
header { border-bottom: 1px solid var(--line); margin-bottom: 20px; padding-bottom: 12px; }
header h1 { font-size: 24px; margin: 0 0 6px; }
.meta { color: var(--dim); font-size: 13px; display: flex; gap: 14px; align-items: center; }
.meta button { margin-left: auto; background: none; border: 1px solid var(--line); color: var(--fg); border-radius: 4px; cursor: pointer; }
.turn { background: var(--panel); border: 1px solid var(--line); border-radius: 6px; padding: 12px 16px; margin-bottom: 14px; }
.turn .who { font-weight: 600; font-size: 13px; }
.turn .when { color: var(--dim); font: 12px ui-monospace, monospace; float: right; }
.user-message .who { color: var(--user); }
.assistant-message .who { color: var(--bot); }
.body pre { overflow-x: auto; padding: 10px; border: 1px solid var(--line); border-radius: 4px; }
.body code { font-family: ui-monospace, monospace; font-size: 13px; }
.sources { border-top: 1px dashed var(--line); margin-top: 10px; padding-top: 6px; font-size: 13px; }
a { color: var(--link); }
footer { color: var(--dim); font-size: 12px; text-align: center; margin-top: 24px; }
@media print { .meta button { display: none; } .turn { break-inside: avoid; } }
</style>
</head>
<body class="{{.Theme}}-theme">
<main>
{{- if .Metadata}}
<header>
<h1>{{.Title}}</h1>
<div class="meta">
{{- if .Created}}
<span>Created {{.Created}}</span>
{{- end}}
<span>{{.MessageCount}} messages</span>
<button onclick="toggleTheme()" title="Toggle theme">&#9680;</button>
</div>
</header>
{{- end}}
{{- range .Messages}}
<section class="turn {{.Class}}">
{{- if .Timestamp}}
<span class="when">{{.Timestamp}}</span>
{{- end}}
<div class="who">{{.Label}}</div>
<div class="body">{{.Body}}</div>
{{- if .Sources}}
<div class="sources">
<strong>Sources</strong>
<ol>
{{- range .Sources}}
<li><a href="{{.URI}}" rel="nofollow noopener" target="_blank">{{.Title}}</a></li>
{{- end}}
</ol>
</div>
{{- end}}
</section>
{{- end}}
<footer>Exported from chatweb on {{.Exported}}</footer>
</main>
<script>
function toggleTheme() {
  var b = document.body;
  var next = b.classList.contains('dark-theme') ? 'light' : 'dark';
  b.className = next + '-theme';
  localStorage.setItem('chatweb-export-theme', next);
}
(function () {
  var saved = localStorage.getItem('chatweb-export-theme');
  if (saved === 'light' || saved === 'dark') { document.body.className = saved + '-theme'; }
})();
</script>
</body>
</html>
`))
