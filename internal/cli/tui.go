// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"

	"github.com/spf13/cobra"

	chatui "github.com/jeranaias/chatweb/internal/ui/chat"
)

func newTUICommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the full-screen chat UI",
		Long: `Start the terminal UI.

Keys: enter send, ctrl+n new project, ctrl+left/right switch project,
ctrl+d delete project, ctrl+g toggle search, ctrl+y copy answer as
Markdown, ctrl+t copy as text, esc or ctrl+c quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !IsTTY() || !IsStdoutTTY() {
				return errors.New("the TUI needs an interactive terminal; try chatweb chat")
			}
			a, err := e.unlockedApp(cmd)
			if err != nil {
				return err
			}
			return chatui.Run(cmd.Context(), a, a.DefaultSettings())
		},
	}
}
