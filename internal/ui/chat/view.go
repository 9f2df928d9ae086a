// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatweb/internal/model"
	"github.com/jeranaias/chatweb/internal/render"
	"github.com/jeranaias/chatweb/internal/util"
)

// =============================================================================
// RENDER CACHE
// =============================================================================

// maxCachedRenders bounds the glamour cache; it is dropped wholesale when full.
const maxCachedRenders = 256

// renderCache keeps glamour output per width and Markdown source, so
// switching projects or resizing does not re-render every answer.
type renderCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newRenderCache() *renderCache {
	return &renderCache{entries: make(map[string]string)}
}

func (c *renderCache) terminal(md string, width int) string {
	k := fmt.Sprintf("%d\x00%s", width, md)
	c.mu.Lock()
	defer c.mu.Unlock()
	if out, ok := c.entries[k]; ok {
		return out
	}
	if len(c.entries) >= maxCachedRenders {
		c.entries = make(map[string]string)
	}
	out := render.Terminal(md, width)
	c.entries[k] = out
	return out
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refresh re-renders the current project into the viewport.
func (m *Model) refresh(toBottom bool) {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.transcript())
	if toBottom {
		m.viewport.GotoBottom()
	}
}

func (m *Model) transcript() string {
	sess := m.app.Registry.Current()
	width := max(m.width-2, 20)

	var b strings.Builder
	if sess.IsEmpty() && !(m.busy && m.pendingID == sess.ID) {
		b.WriteString(m.theme.Empty.Render("No messages yet. Type a prompt and press enter."))
		return b.String()
	}

	for _, msg := range sess.Messages {
		m.writeMessage(&b, msg, width)
	}

	if m.busy && m.pendingID == sess.ID {
		// The controller appends the prompt itself; until it has, show it here.
		if n := len(sess.Messages); n == 0 || sess.Messages[n-1].Role != model.RoleUser || sess.Messages[n-1].Content != m.pendingPrompt {
			m.writeMessage(&b, model.NewUserMessage(m.pendingPrompt), width)
		}
		b.WriteString(m.theme.AssistantLabel.Render("Assistant"))
		b.WriteString("\n  ")
		b.WriteString(m.theme.Empty.Render("Thinking..."))
		b.WriteString("\n")
	}

	if m.notice != "" && m.noticeID == sess.ID {
		b.WriteString(m.theme.Notice.Width(width).Render(m.notice))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) writeMessage(b *strings.Builder, msg model.Message, width int) {
	switch msg.Role {
	case model.RoleUser:
		b.WriteString(m.theme.UserLabel.Render(msg.Role.DisplayName()))
		b.WriteString("\n")
		b.WriteString(m.theme.UserText.Width(width).Render(msg.Content))
		b.WriteString("\n\n")
	default:
		b.WriteString(m.theme.AssistantLabel.Render(msg.Role.DisplayName()))
		b.WriteString("\n")
		b.WriteString(m.cache.terminal(render.MessageMarkdown(msg), width))
		b.WriteString("\n")
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	sep := m.theme.Separator.Render(strings.Repeat("─", max(m.width, 1)))
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		sep,
		m.input.View(),
		m.renderStatus(),
	)
}

func (m Model) renderHeader() string {
	reg := m.app.Registry
	cur := reg.Current()
	pos := 0
	list := reg.List()
	for i, s := range list {
		if s.Current {
			pos = i + 1
			break
		}
	}
	title := m.theme.HeaderTitle.Render("chatweb")
	meta := m.theme.HeaderMeta.Render(fmt.Sprintf("  %s  (%d/%d, max %d)",
		util.TruncateWidth(util.SingleLine(cur.Title), max(m.width/2, 10)), pos, len(list), reg.Max()))
	return m.theme.Header.Width(m.width).Render(title + meta)
}

func (m Model) renderStatus() string {
	t := m.theme
	search := t.StatusOff.Render("search off")
	if m.settings.SearchGrounding {
		search = t.StatusOn.Render("search on")
	}
	left := t.StatusItem.Render(m.settings.Model) + "  " + search

	var right string
	switch {
	case m.busy:
		right = m.spinner.View() + " " + t.StatusInfo.Render("waiting for Gemini")
		if m.info != "" {
			right += "  " + t.StatusInfo.Render(m.info)
		}
	case m.lastErr != "":
		right = t.StatusError.Render(util.TruncateWidth(util.SingleLine(m.lastErr), max(m.width-lipgloss.Width(left)-6, 10)))
	case m.info != "":
		right = t.StatusInfo.Render(m.info)
	default:
		right = t.Help.Render(m.helpLine())
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return t.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) helpLine() string {
	parts := make([]string, 0, len(m.keys.ShortHelp()))
	for _, k := range m.keys.ShortHelp() {
		h := k.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " · ")
}
