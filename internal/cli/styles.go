// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared styles for CLI output.
//
// Colors come from the ui/styles palette so the CLI and the TUI agree.
// Styling is dropped entirely for non-TTY output.

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatweb/internal/ui/styles"
)

func init() {
	lipgloss.SetColorProfile(ColorProfile())
}

var (
	// TitleStyle is used for command headers.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.Cyan)

	// LabelStyle is used for field labels.
	LabelStyle = lipgloss.NewStyle().Foreground(styles.TextSecondary).Width(16)

	SuccessStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.Emerald)
	ErrorStyle   = lipgloss.NewStyle().Bold(true).Foreground(styles.Rose)
	WarningStyle = lipgloss.NewStyle().Foreground(styles.Amber)
	DimStyle     = lipgloss.NewStyle().Foreground(styles.TextMuted)

	// PromptStyle is the REPL prompt.
	PromptStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.Purple)

	// SeparatorStyle is used for horizontal rules.
	SeparatorStyle = lipgloss.NewStyle().Foreground(styles.OverlayDim)
)

// paint applies style only when colors are enabled.
func paint(style lipgloss.Style, text string) string {
	if !ColorEnabled() {
		return text
	}
	return style.Render(text)
}

// separator renders a rule sized to the terminal, capped at 80 columns.
func separator() string {
	w := TerminalWidth() - 4
	if w > 80 {
		w = 80
	}
	return paint(SeparatorStyle, strings.Repeat("─", w))
}

// label renders a fixed-width field label.
func label(text string) string {
	if !ColorEnabled() {
		return text + ":" + strings.Repeat(" ", max(1, 15-len(text)))
	}
	return LabelStyle.Render(text + ":")
}
