// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
)

type askOptions struct {
	session  string
	model    string
	noSearch bool
	json     bool
}

func newAskCommand(e *env) *cobra.Command {
	var opts askOptions
	cmd := &cobra.Command{
		Use:   "ask PROMPT...",
		Short: "Ask one question and print the answer",
		Long: `Run a single turn and print the answer with its sources.

The turn is appended to the chosen project (the current one by default) and
saved to history like any other turn.`,
		Example: `  chatweb ask "What is the capital of France?"
  chatweb ask --session Research --no-search "Summarize our discussion"
  chatweb ask --json "hello" | jq .message.content`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.unlockedApp(cmd)
			if err != nil {
				return err
			}
			id, err := resolveSession(a, opts.session)
			if err != nil {
				return err
			}

			settings := a.DefaultSettings()
			if opts.model != "" {
				settings.Model = opts.model
			}
			if opts.noSearch {
				settings.SearchGrounding = false
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			res, err := a.Turn(ctx, id, strings.Join(args, " "), settings)
			out := cmd.OutOrStdout()
			if opts.json {
				if jerr := writeTurnJSON(out, res, err); jerr != nil {
					return jerr
				}
				return err
			}
			if err != nil {
				return err
			}
			printAnswer(out, res, IsStdoutTTY() && ColorEnabled())
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.session, "session", "s", "", "project id or title (default current)")
	f.StringVarP(&opts.model, "model", "m", "", "model id (default from config)")
	f.BoolVar(&opts.noSearch, "no-search", false, "disable search grounding")
	f.BoolVar(&opts.json, "json", false, "print the result as JSON")
	return cmd
}

// sessionLine is the one-line description of a session used by several
// commands.
func sessionLine(title, id string, count int) string {
	return fmt.Sprintf("%s %s (%d messages)", title, paint(DimStyle, "["+shortID(id)+"]"), count)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
