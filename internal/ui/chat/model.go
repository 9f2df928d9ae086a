// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatweb/internal/app"
	"github.com/jeranaias/chatweb/internal/ui/styles"
)

// inputHeight is the number of textarea rows.
const inputHeight = 3

// Model is the Bubble Tea model of the chat view.
type Model struct {
	app      *app.App
	settings app.Settings
	keys     KeyMap
	theme    *styles.Theme

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model

	width  int
	height int
	ready  bool

	// In-flight turn.
	busy          bool
	pendingID     string
	pendingPrompt string

	// lastErr is the last turn or action error, shown until the next action.
	lastErr string
	// info is a transient confirmation such as "Copied".
	info string
	// notice is the retry disclaimer of the last answer in noticeID.
	notice   string
	noticeID string

	ctx       context.Context
	cancelMgr *cancelManager
	cache     *renderCache
	clip      func(string) error
}

// New creates the chat view for a.
func New(ctx context.Context, a *app.App, s app.Settings) Model {
	theme := styles.NewTheme()

	ta := textarea.New()
	ta.Placeholder = "Ask Gemini..."
	ta.ShowLineNumbers = false
	ta.Prompt = "┃ "
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	sp := spinner.New(
		spinner.WithSpinner(styles.DotsSpinner.Spinner()),
		spinner.WithStyle(theme.Spinner),
	)

	if ctx == nil {
		ctx = context.Background()
	}
	return Model{
		app:       a,
		settings:  s,
		keys:      DefaultKeyMap(),
		theme:     theme,
		viewport:  viewport.New(0, 0),
		input:     ta,
		spinner:   sp,
		ctx:       ctx,
		cancelMgr: newCancelManager(),
		cache:     newRenderCache(),
		clip:      clipboard.WriteAll,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Run starts the chat view and blocks until the user quits.
func Run(ctx context.Context, a *app.App, s app.Settings) error {
	m := New(ctx, a, s)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.cancelMgr.cancel()
	}
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// Settings returns the view's current turn settings.
func (m Model) Settings() app.Settings {
	return m.settings
}
