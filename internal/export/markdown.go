// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/chatweb/internal/model"
	"github.com/jeranaias/chatweb/internal/render"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// frontmatter is the YAML header of a Markdown export. yaml.v3 does the
// quoting, so titles cannot inject keys.
type frontmatter struct {
	Title     string `yaml:"title"`
	Date      string `yaml:"date,omitempty"`
	Messages  int    `yaml:"messages"`
	Exported  string `yaml:"exported"`
	Generator string `yaml:"generator"`
}

// MarkdownExporter exports sessions to Markdown format.
type MarkdownExporter struct {
	options *Options
	now     func() time.Time
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts, now: time.Now}
}

// Export converts a session to Markdown format.
func (e *MarkdownExporter) Export(sess *model.Session) ([]byte, error) {
	if err := validate(sess); err != nil {
		return nil, err
	}

	var sb strings.Builder
	exported := e.now()

	if e.options.IncludeMetadata {
		fm := frontmatter{
			Title:     sess.Title,
			Messages:  len(sess.Messages),
			Exported:  exported.Format(time.RFC3339),
			Generator: "chatweb",
		}
		if !sess.CreatedAt.IsZero() {
			fm.Date = sess.CreatedAt.Format(time.RFC3339)
		}
		data, err := yaml.Marshal(fm)
		if err != nil {
			return nil, fmt.Errorf("encode frontmatter: %w", err)
		}
		sb.WriteString("---\n")
		sb.Write(data)
		sb.WriteString("---\n\n")
	}

	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(sess.Title))

	for i, msg := range sess.Messages {
		label := formatRoleLabel(msg.Role)
		if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
			fmt.Fprintf(&sb, "### %s <sub>%s</sub>\n\n", label, formatShortTimestamp(msg.Timestamp))
		} else {
			fmt.Fprintf(&sb, "### %s\n\n", label)
		}

		if e.options.IncludeSources {
			sb.WriteString(strings.TrimSpace(render.MessageMarkdown(msg)))
		} else {
			sb.WriteString(strings.TrimSpace(msg.Content))
		}
		sb.WriteString("\n\n")

		if i < len(sess.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString("\n---\n\n")
	fmt.Fprintf(&sb, "*Exported from chatweb on %s*\n", exported.Format("January 2, 2006 at 3:04 PM"))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

func formatRoleLabel(role model.Role) string {
	if role == "" {
		return "Unknown"
	}
	return "[" + role.DisplayName() + "]"
}

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	// Only characters that would break formatting in headings.
	return strings.NewReplacer(
		"#", "\\#",
		"*", "\\*",
		"_", "\\_",
		"[", "\\[",
		"]", "\\]",
		"\n", " ",
		"\r", "",
	).Replace(s)
}

