// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatweb/internal/session"
	"github.com/jeranaias/chatweb/internal/util"
)

func newSessionsCommand(e *env) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"projects"},
		Short:   "Manage projects",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.unlockedApp(cmd)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"sessions":           a.Registry.List(),
					"current_session_id": a.Registry.CurrentID(),
					"max_sessions":       a.Registry.Max(),
				})
			}
			writeSessionTable(cmd.OutOrStdout(), a.Registry.List(), TerminalWidth())
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", paint(DimStyle,
				fmt.Sprintf("%d of %d projects", a.Registry.Len(), a.Registry.Max())))
			return nil
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	create := &cobra.Command{
		Use:   "new [NAME]",
		Short: "Create a project and make it current",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.unlockedApp(cmd)
			if err != nil {
				return err
			}
			name := a.Registry.SuggestName()
			if len(args) == 1 {
				name = args[0]
			}
			id, err := a.CreateSession(name)
			if err != nil {
				return sessionError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), paint(SuccessStyle, "Created ")+sessionLine(name, id, 0))
			return nil
		},
	}

	rename := &cobra.Command{
		Use:   "rename SESSION TITLE",
		Short: "Rename a project",
		Long:  "Rename a project. An empty title resets it to the default title.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.unlockedApp(cmd)
			if err != nil {
				return err
			}
			id, err := resolveSession(a, args[0])
			if err != nil {
				return err
			}
			if err := a.RenameSession(id, args[1]); err != nil {
				return sessionError(err)
			}
			sess, _ := a.Registry.Get(id)
			fmt.Fprintln(cmd.OutOrStdout(), "Renamed to "+sess.Title)
			return nil
		},
	}

	remove := &cobra.Command{
		Use:     "delete SESSION",
		Aliases: []string{"rm"},
		Short:   "Delete a project",
		Long:    "Delete a project. Deleting the only project leaves a fresh empty one.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.unlockedApp(cmd)
			if err != nil {
				return err
			}
			id, err := resolveSession(a, args[0])
			if err != nil {
				return err
			}
			if err := a.DeleteSession(id); err != nil {
				return sessionError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted; current project is "+a.Registry.Current().Title)
			return nil
		},
	}

	sel := &cobra.Command{
		Use:     "select SESSION",
		Aliases: []string{"use"},
		Short:   "Make a project current",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.unlockedApp(cmd)
			if err != nil {
				return err
			}
			id, err := resolveSession(a, args[0])
			if err != nil {
				return err
			}
			if err := a.SelectSession(id); err != nil {
				return sessionError(err)
			}
			cur := a.Registry.Current()
			fmt.Fprintln(cmd.OutOrStdout(), "Current project: "+sessionLine(cur.Title, cur.ID, len(cur.Messages)))
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear [SESSION]",
		Short: "Remove all messages from a project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.unlockedApp(cmd)
			if err != nil {
				return err
			}
			ref := ""
			if len(args) == 1 {
				ref = args[0]
			}
			id, err := resolveSession(a, ref)
			if err != nil {
				return err
			}
			if err := a.ClearSession(id); err != nil {
				return sessionError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cleared")
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show [SESSION]",
		Short: "Print a project's messages",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.unlockedApp(cmd)
			if err != nil {
				return err
			}
			ref := ""
			if len(args) == 1 {
				ref = args[0]
			}
			id, err := resolveSession(a, ref)
			if err != nil {
				return err
			}
			sess, _ := a.Registry.Get(id)
			printTranscript(cmd.OutOrStdout(), sess, IsStdoutTTY() && ColorEnabled())
			return nil
		},
	}

	cmd.AddCommand(list, create, rename, remove, sel, clearCmd, show)
	return cmd
}

// writeSessionTable prints sessions as a table fitted to width. Titles are
// truncated by display width so wide characters keep the columns aligned.
func writeSessionTable(w io.Writer, sessions []session.Summary, width int) {
	const (
		markW  = 2
		idW    = 8
		countW = 8
	)
	titleW := width - markW - idW - countW - 3
	if titleW > 48 {
		titleW = 48
	}
	if titleW < 10 {
		titleW = 10
	}

	fmt.Fprintf(w, "%s %s %s %s\n",
		util.PadWidth("", markW),
		paint(DimStyle, util.PadWidth("ID", idW)),
		paint(DimStyle, util.PadWidth("TITLE", titleW)),
		paint(DimStyle, "MESSAGES"))
	for _, s := range sessions {
		mark := util.PadWidth("", markW)
		title := util.PadWidth(util.SingleLine(s.Title), titleW)
		if s.Current {
			mark = paint(SuccessStyle, util.PadWidth("*", markW))
			title = paint(TitleStyle, title)
		}
		fmt.Fprintf(w, "%s %s %s %s\n",
			mark,
			util.PadWidth(shortID(s.ID), idW),
			title,
			strconv.Itoa(s.MessageCount))
	}
}
