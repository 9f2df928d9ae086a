// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatweb/internal/export"
)

func newExportCommand(e *env) *cobra.Command {
	var (
		format   string
		outDir   string
		noSource bool
		theme    string
	)
	cmd := &cobra.Command{
		Use:   "export [SESSION]",
		Short: "Export a project to Markdown, JSON or HTML",
		Long: `Export a project (the current one by default) to a file.

Use --out - to write to stdout instead of a file.`,
		Example: `  chatweb export --format html
  chatweb export Research --format md --out ~/notes`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := export.DefaultOptions()
			opts.IncludeSources = !noSource
			opts.Theme = theme
			exp, err := export.ForFormat(format, opts)
			if err != nil {
				return err
			}

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

			if outDir == "-" {
				data, err := exp.Export(&sess)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			path, err := export.ExportToFile(&sess, exp, outDir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), paint(SuccessStyle, "Exported ")+path)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&format, "format", "f", "md", "export format: "+strings.Join(export.Formats, ", "))
	f.StringVarP(&outDir, "out", "o", ".", "output directory, or - for stdout")
	f.BoolVar(&noSource, "no-sources", false, "leave out source links")
	f.StringVar(&theme, "theme", "dark", "HTML theme: dark or light")
	return cmd
}

func newHistoryCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage the history file",
	}

	var yes bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the history file and all projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.unlockedApp(cmd)
			if err != nil {
				return err
			}
			if !yes {
				if !IsTTY() {
					return errors.New("refusing to clear history without --yes")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Delete all %d projects? [y/N] ", a.Registry.Len())
				answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
				if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
					return nil
				}
			}
			if err := a.ClearHistory(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), paint(SuccessStyle, "History cleared"))
			return nil
		},
	}
	clearCmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the history file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.openApp(cmd, true)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.Store.Path())
			return nil
		},
	}

	cmd.AddCommand(clearCmd, path)
	return cmd
}
