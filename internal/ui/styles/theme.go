// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components of the chat TUI.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderMeta  lipgloss.Style

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	UserText       lipgloss.Style
	Notice         lipgloss.Style
	Empty          lipgloss.Style

	Separator lipgloss.Style

	StatusBar   lipgloss.Style
	StatusItem  lipgloss.Style
	StatusOn    lipgloss.Style
	StatusOff   lipgloss.Style
	StatusError lipgloss.Style
	StatusInfo  lipgloss.Style
	Spinner     lipgloss.Style
	Help        lipgloss.Style
}

// NewTheme creates a theme for the current terminal.
func NewTheme() *Theme {
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)
	t.HeaderMeta = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(UserLabelFg)
	t.AssistantLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(AssistantLabelFg)
	t.UserText = lipgloss.NewStyle().
		Foreground(TextPrimary).
		PaddingLeft(2)
	t.Notice = lipgloss.NewStyle().
		Foreground(Amber).
		Italic(true).
		PaddingLeft(2)
	t.Empty = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.Separator = lipgloss.NewStyle().
		Foreground(Overlay)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.StatusItem = lipgloss.NewStyle().
		Foreground(TextSecondary)
	t.StatusOn = lipgloss.NewStyle().
		Foreground(Emerald)
	t.StatusOff = lipgloss.NewStyle().
		Foreground(TextMuted)
	t.StatusError = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)
	t.StatusInfo = lipgloss.NewStyle().
		Foreground(Cyan)
	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)
	t.Help = lipgloss.NewStyle().
		Foreground(TextMuted)
}
