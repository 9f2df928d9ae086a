// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/chatweb/internal/app"
	"github.com/jeranaias/chatweb/internal/config"
	"github.com/jeranaias/chatweb/internal/logging"
	"github.com/jeranaias/chatweb/internal/session"
)

// AccessCodeEnv is read when --access-code is not given.
const AccessCodeEnv = "CHATWEB_ACCESS_CODE"

// ErrWrongCode is printed when the access code does not unlock history.
var ErrWrongCode = errors.New("Wrong Code")

// env carries the persistent flags and the lazily built app through the
// command tree.
type env struct {
	version    string
	configPath string
	logLevel   string
	accessCode string

	cfg     *config.Config
	cfgPath string
	logger  *zap.Logger
	app     *app.App

	// getenv and readCode are replaced in tests.
	getenv   func(string) string
	readCode func() (string, error)
}

// Execute runs the root command.
func Execute(version string) error {
	return NewRootCommand(version).Execute()
}

// ErrorLine formats a command error for stderr. A wrong access code is
// printed as is.
func ErrorLine(err error) string {
	if errors.Is(err, ErrWrongCode) {
		return paint(ErrorStyle, err.Error())
	}
	return paint(ErrorStyle, "Error: ") + err.Error()
}

// NewRootCommand builds the chatweb command tree.
func NewRootCommand(version string) *cobra.Command {
	e := &env{
		version: version,
		getenv:  os.Getenv,
	}
	e.readCode = func() (string, error) {
		return readSecret(os.Stderr, "Access code: ")
	}

	root := &cobra.Command{
		Use:   "chatweb",
		Short: "Gemini chat with projects, search grounding and a web UI",
		Long: `chatweb is a Gemini chat client.

Conversations are grouped into projects and kept in an obfuscated history
file unlocked by an access code. The same history is shared by the web UI
(chatweb serve), the REPL (chatweb chat), the TUI (chatweb tui) and the
one-shot and management commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.logger != nil {
				_ = e.logger.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&e.configPath, "config", "", "config file (default ~/.chatweb/config.toml)")
	pf.StringVar(&e.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&e.accessCode, "access-code", "", "access code (default $"+AccessCodeEnv+" or prompt)")

	root.AddCommand(
		newServeCommand(e),
		newAskCommand(e),
		newChatCommand(e),
		newTUICommand(e),
		newSessionsCommand(e),
		newModelsCommand(e),
		newProbeCommand(e),
		newExportCommand(e),
		newHistoryCommand(e),
		newConfigCommand(e),
		newVersionCommand(e),
	)
	return root
}

// =============================================================================
// SETUP
// =============================================================================

// loadConfig reads the configuration once. --log-level wins over the file;
// without either, interactive commands log warnings only so output stays
// readable.
func (e *env) loadConfig(cmd *cobra.Command, quiet bool) (*config.Config, error) {
	if e.cfg != nil {
		return e.cfg, nil
	}

	var (
		cfg  *config.Config
		path string
		err  error
	)
	if e.configPath != "" {
		path = e.configPath
		cfg, err = config.LoadFromPath(path)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	switch {
	case e.logLevel != "":
		cfg.Logging.Level = e.logLevel
	case quiet && !cmd.Flags().Changed("log-level") && e.getenv("CHATWEB_LOG_LEVEL") == "":
		cfg.Logging.Level = "warn"
	}

	e.cfg = cfg
	e.cfgPath = path
	return cfg, nil
}

// openApp builds the app without unlocking it.
func (e *env) openApp(cmd *cobra.Command, quiet bool) (*app.App, error) {
	if e.app != nil {
		return e.app, nil
	}
	cfg, err := e.loadConfig(cmd, quiet)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	e.logger = logger
	e.app = a
	return a, nil
}

// unlockedApp builds the app and unlocks it with the access code.
func (e *env) unlockedApp(cmd *cobra.Command) (*app.App, error) {
	a, err := e.openApp(cmd, true)
	if err != nil {
		return nil, err
	}
	if a.Unlocked() {
		return a, nil
	}
	code, err := e.resolveAccessCode()
	if err != nil {
		return nil, err
	}
	if err := a.Unlock(code); err != nil {
		if errors.Is(err, app.ErrAccessDenied) {
			return nil, ErrWrongCode
		}
		return nil, err
	}
	return a, nil
}

// resolveAccessCode takes the code from --access-code, then the
// environment, then a hidden prompt.
func (e *env) resolveAccessCode() (string, error) {
	if e.accessCode != "" {
		return e.accessCode, nil
	}
	if code := e.getenv(AccessCodeEnv); code != "" {
		return code, nil
	}
	code, err := e.readCode()
	if errors.Is(err, ErrNoTTY) {
		return "", fmt.Errorf("access code required: use --access-code or $%s", AccessCodeEnv)
	}
	return code, err
}

// resolveSession maps a session reference (id or title) to an id. An empty
// reference means the current session.
func resolveSession(a *app.App, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return a.Registry.CurrentID(), nil
	}
	sess, ok := a.Registry.Lookup(ref)
	if !ok {
		return "", fmt.Errorf("%w: %q", session.ErrNotFound, ref)
	}
	return sess.ID, nil
}

// =============================================================================
// VERSION
// =============================================================================

func newVersionCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "chatweb %s\n", e.version)
		},
	}
}
