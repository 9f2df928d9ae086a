// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatweb/internal/catalog"
	"github.com/jeranaias/chatweb/internal/chat"
	"github.com/jeranaias/chatweb/internal/util"
)

func newModelsCommand(e *env) *cobra.Command {
	var (
		refresh bool
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the models available to the configured API key",
		Long: `List Gemini models that support generateContent for the configured key.

Without a key, or when listing fails, a built-in fallback list is shown.
Results are cached; --refresh forces a new listing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The catalog does not need history, so no access code is asked for.
			a, err := e.openApp(cmd, true)
			if err != nil {
				return err
			}
			if refresh {
				a.Catalog.Refresh()
			}
			settings := a.DefaultSettings()
			cat := a.Models(cmd.Context(), settings.APIKey)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), cat)
			}
			writeCatalog(cmd.OutOrStdout(), cat, settings.Model)
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the model cache")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newProbeCommand(e *env) *cobra.Command {
	var modelID string
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check whether a model accepts search grounding",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.openApp(cmd, true)
			if err != nil {
				return err
			}
			settings := a.DefaultSettings()
			if modelID != "" {
				settings.Model = modelID
			}
			p := a.Probe(cmd.Context(), settings)
			writeProbe(cmd.OutOrStdout(), p)
			if p.Status == chat.ProbeError {
				return fmt.Errorf("probe failed: %s", p.Detail)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&modelID, "model", "m", "", "model id (default from config)")
	return cmd
}

// writeCatalog prints the catalog, marking current.
func writeCatalog(w io.Writer, cat catalog.Catalog, current string) {
	header := cat.Group
	if cat.Fallback {
		header += " " + paint(WarningStyle, "(fallback list)")
	}
	fmt.Fprintln(w, paint(TitleStyle, header))

	width := 0
	for _, m := range cat.Models {
		width = max(width, util.StringWidth(m.ID))
	}
	for _, m := range cat.Models {
		mark := "  "
		if m.ID == current {
			mark = paint(SuccessStyle, "* ")
		}
		fmt.Fprintf(w, "%s%s  %s\n", mark, util.PadWidth(m.ID, width), paint(DimStyle, m.Label))
	}
	if current != "" && !cat.Contains(current) {
		fmt.Fprintln(w, paint(DimStyle, "configured model "+current+" is not in this list"))
	}
}

var probeLabels = map[chat.ProbeStatus]string{
	chat.ProbeOK:    "Search available",
	chat.ProbeMaybe: "Unclear (200 OK)",
	chat.ProbeNo:    "Search unsupported (likely)",
	chat.ProbeError: "Error",
	chat.ProbeNoKey: "Key required",
}

func writeProbe(w io.Writer, p chat.Probe) {
	text := probeLabels[p.Status]
	switch p.Status {
	case chat.ProbeOK:
		text = paint(SuccessStyle, text)
	case chat.ProbeError, chat.ProbeNo:
		text = paint(ErrorStyle, text)
	default:
		text = paint(WarningStyle, text)
	}
	fmt.Fprintf(w, "%s %s\n", label("Model"), p.Model)
	fmt.Fprintf(w, "%s %s\n", label("Search"), text)
	if p.Detail != "" {
		fmt.Fprintf(w, "%s %s\n", label("Detail"), truncate(p.Detail, TerminalWidth()-17))
	}
}
