// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	chatctl "github.com/jeranaias/chatweb/internal/chat"
	"github.com/jeranaias/chatweb/internal/render"
	"github.com/jeranaias/chatweb/internal/session"
)

// =============================================================================
// MESSAGES
// =============================================================================

// turnDoneMsg carries the outcome of a turn started by runTurn.
type turnDoneMsg struct {
	sessionID string
	result    *chatctl.Result
	err       error
}

// runTurn starts a turn in the background. The model keeps the cancel
// function so Esc can abort it.
func (m Model) runTurn(sessionID, prompt string) tea.Cmd {
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelMgr.set(cancel)
	a, s := m.app, m.settings
	return func() tea.Msg {
		res, err := a.Turn(ctx, sessionID, prompt, s)
		return turnDoneMsg{sessionID: sessionID, result: res, err: err}
	}
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case turnDoneMsg:
		return m.handleTurnDone(msg), nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height

	// header + separator + input + status line
	chrome := 1 + 1 + inputHeight + 1
	vh := m.height - chrome
	if vh < 1 {
		vh = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = vh
	m.input.SetWidth(m.width)
	m.ready = true
	m.refresh(true)
	return m
}

func (m Model) handleTurnDone(msg turnDoneMsg) Model {
	m.busy = false
	m.pendingID = ""
	m.pendingPrompt = ""
	m.cancelMgr.cancel()

	m.notice, m.noticeID = "", ""
	switch {
	case msg.err != nil:
		m.lastErr = turnErrorText(msg.err)
	case msg.result != nil && msg.result.Retried && msg.result.Message != nil:
		m.notice = strings.TrimSpace(strings.TrimPrefix(msg.result.Display, msg.result.Message.Content))
		m.noticeID = msg.sessionID
	}
	m.refresh(true)
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.info = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancelMgr.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.busy {
			m.cancelMgr.cancel()
			m.info = "Cancelling..."
			return m, nil
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.NewSession):
		m.lastErr = ""
		if _, err := m.app.CreateSession(m.app.Registry.SuggestName()); err != nil {
			m.lastErr = sessionErrorText(err)
		}
		m.refresh(true)
		return m, nil

	case key.Matches(msg, m.keys.NextSession):
		m.cycle(1)
		return m, nil

	case key.Matches(msg, m.keys.PrevSession):
		m.cycle(-1)
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		m.lastErr = ""
		id := m.app.Registry.CurrentID()
		if m.busy && id == m.pendingID {
			m.lastErr = "Wait for the answer before deleting this project."
			return m, nil
		}
		if err := m.app.DeleteSession(id); err != nil {
			m.lastErr = sessionErrorText(err)
		}
		m.refresh(true)
		return m, nil

	case key.Matches(msg, m.keys.ToggleSearch):
		m.settings.SearchGrounding = !m.settings.SearchGrounding
		return m, nil

	case key.Matches(msg, m.keys.CopyMarkdown):
		m.copyLast(false)
		return m, nil

	case key.Matches(msg, m.keys.CopyText):
		m.copyLast(true)
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit starts a turn with the textarea content on the current project.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.busy {
		m.info = "Still waiting for the previous answer."
		return m, nil
	}
	prompt := strings.TrimSpace(m.input.Value())
	if prompt == "" {
		return m, nil
	}
	if m.settings.APIKey == "" {
		m.lastErr = "No API key configured. Set api.key or $CHATWEB_API_KEY."
		return m, nil
	}

	id := m.app.Registry.CurrentID()
	m.busy = true
	m.pendingID = id
	m.pendingPrompt = prompt
	m.lastErr = ""
	m.notice, m.noticeID = "", ""
	m.input.Reset()
	m.refresh(true)
	return m, tea.Batch(m.spinner.Tick, m.runTurn(id, prompt))
}

// cycle moves the current project by delta, wrapping around.
func (m *Model) cycle(delta int) {
	list := m.app.Registry.List()
	if len(list) < 2 {
		return
	}
	cur := 0
	for i, s := range list {
		if s.Current {
			cur = i
			break
		}
	}
	next := (cur + delta + len(list)) % len(list)
	if err := m.app.SelectSession(list[next].ID); err != nil {
		m.lastErr = sessionErrorText(err)
	}
	m.refresh(true)
}

// copyLast copies the current project's last answer, as Markdown with its
// sources or as plain text.
func (m *Model) copyLast(plain bool) {
	msg, ok := m.app.Registry.Current().LastAssistant()
	if !ok {
		m.info = "Nothing to copy yet."
		return
	}
	text, what := render.MessageMarkdown(msg), "Markdown"
	if plain {
		text, what = render.PlainText(msg.Content), "text"
	}
	if err := m.clip(text); err != nil {
		m.lastErr = "Clipboard unavailable: " + err.Error()
		return
	}
	m.info = "Copied answer as " + what + "."
}

// =============================================================================
// ERROR TEXT
// =============================================================================

func turnErrorText(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	case errors.Is(err, chatctl.ErrTurnInProgress):
		return "A turn is already running for this project."
	case errors.Is(err, chatctl.ErrMissingCredential):
		return "No API key configured."
	}
	return err.Error()
}

func sessionErrorText(err error) string {
	switch {
	case errors.Is(err, session.ErrSessionLimit):
		return "Project limit reached; delete one first."
	case errors.Is(err, session.ErrDuplicateName):
		return "A project with that name already exists."
	case errors.Is(err, session.ErrNotFound):
		return "That project no longer exists."
	}
	return err.Error()
}
