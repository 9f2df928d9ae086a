// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keyboard bindings of the chat view.
type KeyMap struct {
	Submit       key.Binding
	NewSession   key.Binding
	NextSession  key.Binding
	PrevSession  key.Binding
	Delete       key.Binding
	ToggleSearch key.Binding
	CopyMarkdown key.Binding
	CopyText     key.Binding
	PageUp       key.Binding
	PageDown     key.Binding
	Cancel       key.Binding
	Quit         key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		NewSession: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new"),
		),
		NextSession: key.NewBinding(
			key.WithKeys("ctrl+right"),
			key.WithHelp("C-→", "next"),
		),
		PrevSession: key.NewBinding(
			key.WithKeys("ctrl+left"),
			key.WithHelp("C-←", "prev"),
		),
		Delete: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("C-d", "delete"),
		),
		ToggleSearch: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("C-g", "search"),
		),
		CopyMarkdown: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("C-y", "copy md"),
		),
		CopyText: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "copy txt"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel/quit"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the status line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.NewSession, k.PrevSession, k.NextSession, k.ToggleSearch, k.CopyMarkdown, k.Cancel}
}
