// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatweb/internal/config"
)

func newConfigCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show, create or edit the configuration file",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := e.loadConfig(cmd, false)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg.String())
			return nil
		},
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := e.loadConfig(cmd, false); err != nil {
				return err
			}
			if e.cfgPath != "" {
				fmt.Fprintln(cmd.OutOrStdout(), e.cfgPath)
				return nil
			}
			def, err := config.DefaultPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), def+" "+paint(DimStyle, "(not created)"))
			return nil
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [PATH]",
		Short: "Write a configuration file with the defaults",
		Long: `Write the default configuration. The format follows the extension:
.toml (default), .json, .yaml or .yml.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := e.configPath
			if len(args) == 1 {
				target = args[0]
			}
			if target == "" {
				def, err := config.DefaultPath()
				if err != nil {
					return err
				}
				target = def
			}
			if _, err := os.Stat(target); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", target)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := config.Save(config.Default(), target); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), paint(SuccessStyle, "Wrote ")+target)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	get := &cobra.Command{
		Use:   "get [KEY]",
		Short: "Print one setting, or every setting when no key is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := e.loadConfig(cmd, false)
			if err != nil {
				return err
			}
			keys := config.Keys()
			if len(args) == 1 {
				keys = args
			}
			out := cmd.OutOrStdout()
			for _, k := range keys {
				v, err := cfg.Get(k)
				if err != nil {
					return err
				}
				if config.IsSecret(k) && v != "" {
					v = "[REDACTED]"
				}
				if len(args) == 1 {
					fmt.Fprintln(out, v)
				} else {
					fmt.Fprintf(out, "%s = %v\n", k, v)
				}
			}
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change one setting in the configuration file",
		Example: `  chatweb config set generation.model gemini-1.5-pro
  chatweb config set generation.search_grounding false`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := e.configPath
			if target == "" {
				if _, path, err := config.Load(); err == nil && path != "" {
					target = path
				} else if target, err = config.DefaultPath(); err != nil {
					return err
				}
			}
			if err := config.Update(target, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s in %s\n", paint(SuccessStyle, "Set"), args[0], target)
			return nil
		},
	}

	cmd.AddCommand(show, path, initCmd, get, set)
	return cmd
}
