// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for chatweb.
//
// TOML, JSON and YAML files are supported, selected by extension, with
// defaults, environment variable overrides and validation.
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (CHATWEB_*, GEMINI_API_KEY)
//   - The first of ~/.chatweb/config.toml, config.json, config.yaml
//   - Built-in defaults
//
// # Usage
//
//	cfg, path, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Watch reloads a file on change for long-running processes:
//
//	go config.Watch(ctx, path, logger, func(cfg *config.Config) { ... })
package config
