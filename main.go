// chatweb - Gemini chat with projects, search grounding and a web UI.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	"github.com/jeranaias/chatweb/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	version := Version
	if GitCommit != "unknown" {
		version += " (" + GitCommit + ", " + BuildDate + ")"
	}
	if err := cli.Execute(version); err != nil {
		fmt.Fprintln(os.Stderr, cli.ErrorLine(err))
		os.Exit(1)
	}
}
