// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a chat session to Markdown, JSON or a standalone
// HTML page.
//
// # Supported Formats
//
//   - md: human-readable with YAML frontmatter and a sources list per answer
//   - json: the session exactly as stored, without the history obfuscation
//   - html: themed page; message bodies are rendered and sanitized by
//     package render
//
// # Usage
//
//	exp, err := export.ForFormat("html", export.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	path, err := export.ExportToFile(&sess, exp, "exports")
package export
