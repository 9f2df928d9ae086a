// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/chatweb/internal/model"
	"github.com/jeranaias/chatweb/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for session exporters.
type Exporter interface {
	// Export converts a session to the target format and returns the content.
	Export(sess *model.Session) ([]byte, error)

	// FileExtension returns the file extension including the dot (".md").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// ErrNilSession is returned when Export is called with a nil session.
var ErrNilSession = errors.New("session is nil")

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// IncludeSources appends the web citations after assistant answers.
	IncludeSources bool

	// IncludeTimestamps includes per-message timestamps when the message has one.
	IncludeTimestamps bool

	// IncludeMetadata adds a header with title, creation date and message count.
	IncludeMetadata bool

	// Theme for HTML export ("light" or "dark").
	// Default: "dark"
	Theme string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		IncludeSources:    true,
		IncludeTimestamps: true,
		IncludeMetadata:   true,
		Theme:             "dark",
	}
}

// Formats lists the names accepted by ForFormat.
var Formats = []string{"md", "json", "html"}

// ForFormat returns the exporter for a format name. Matching is
// case-insensitive and accepts "markdown" and "htm" as aliases.
func ForFormat(name string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	case "html", "htm":
		return NewHTMLExporter(opts), nil
	default:
		return nil, fmt.Errorf("unknown export format %q (want one of %s)", name, strings.Join(Formats, ", "))
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile exports a session into dir using the given exporter and
// returns the written path. The directory is created if needed.
func ExportToFile(sess *model.Session, exporter Exporter, dir string) (string, error) {
	content, err := exporter.Export(sess)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}
	if dir == "" {
		dir = "."
	}

	outputPath := filepath.Join(dir, Filename(sess, exporter, time.Now()))
	if err := util.AtomicWriteFileWithDir(outputPath, content, 0644, 0755); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// Filename returns the download name for an export of sess taken at t.
func Filename(sess *model.Session, exporter Exporter, t time.Time) string {
	return fmt.Sprintf("chat_%s_%s%s",
		sanitizeFilename(sess.Title),
		t.Format("20060102_150405"),
		exporter.FileExtension(),
	)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

var filenameReplacer = map[rune]rune{
	'/':  '-',
	'\\': '-',
	':':  '-',
	'*':  '-',
	'?':  '-',
	'"':  '-',
	'<':  '-',
	'>':  '-',
	'|':  '-',
	' ':  '_',
	'\t': '_',
	'\n': '_',
	'\r': '_',
}

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	const maxLen = 50
	runes := []rune(strings.TrimSpace(s))
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	result := make([]rune, 0, len(runes))
	for _, r := range runes {
		if replacement, found := filenameReplacer[r]; found {
			result = append(result, replacement)
		} else if r < 32 || r == 127 {
			result = append(result, '-')
		} else {
			result = append(result, r)
		}
	}

	out := strings.Trim(string(result), ".")
	if out == "" {
		return "session"
	}
	return out
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// formatShortTimestamp formats a timestamp for inline display.
func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}

func validate(sess *model.Session) error {
	if sess == nil {
		return ErrNilSession
	}
	return nil
}
