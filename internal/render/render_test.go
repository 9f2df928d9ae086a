// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/chatweb/internal/model"
)

func TestHTML(t *testing.T) {
	out := string(HTML("# Title\n\nSome **bold** text\nnext line\n\n| a | b |\n|---|---|\n| 1 | 2 |"))
	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, "<br")
	assert.Contains(t, out, "<table>")
}

func TestHTML_Sanitizes(t *testing.T) {
	out := string(HTML("hi <script>alert(1)</script> <img src=x onerror=alert(1)> [x](javascript:alert(1))"))
	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "onerror")
	assert.NotContains(t, out, "javascript:")
}

func TestHTML_Links(t *testing.T) {
	out := string(HTML("[Paris](https://en.wikipedia.org/wiki/Paris)"))
	assert.Contains(t, out, `href="https://en.wikipedia.org/wiki/Paris"`)
	assert.Contains(t, out, "nofollow")
}

func TestTerminal(t *testing.T) {
	out := Terminal("# Heading\n\nbody text", 40)
	assert.Contains(t, out, "Heading")
	assert.Contains(t, out, "body text")

	assert.Contains(t, Terminal("plain", 0), "plain")
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, " Title\nbold and code", PlainText("# Title\n**bold** and `code`"))
	assert.Equal(t, "안녕 😀", PlainText("안녕 😀"))
}

func TestMessageMarkdown(t *testing.T) {
	msg := model.NewAssistantMessage("Paris.", []model.Source{
		{Title: "Wiki [1]", URI: "https://a"},
		{Title: "B", URI: "https://b"},
	})
	out := MessageMarkdown(msg)
	assert.True(t, strings.HasPrefix(out, "Paris.\n\n"))
	assert.Less(t, strings.Index(out, "https://a"), strings.Index(out, "https://b"))
	assert.Contains(t, out, `- [Wiki \[1\]](https://a)`)

	assert.Equal(t, "no sources", MessageMarkdown(model.NewAssistantMessage("no sources", nil)))
}
