// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/chatweb/internal/config"
	"github.com/jeranaias/chatweb/internal/server"
)

func newServeCommand(e *env) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI",
		Long: `Serve the chat web UI and JSON API.

History stays locked until someone signs in with the access code. The
config file is watched; model and generation defaults are applied without a
restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.openApp(cmd, false)
			if err != nil {
				return err
			}
			srv, err := server.New(a, server.WithLogger(e.logger), server.WithAddr(addr))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if e.cfgPath != "" {
				go func() {
					err := config.Watch(ctx, e.cfgPath, e.logger, func(cfg *config.Config) {
						a.ApplyConfig(cfg)
						srv.ReloadDefaults()
					})
					if err != nil && !errors.Is(err, context.Canceled) {
						e.logger.Warn("config watch stopped", zap.Error(err))
					}
				}()
			}

			e.logger.Info("chatweb serving", zap.String("addr", srv.Addr()), zap.String("version", e.version))
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
