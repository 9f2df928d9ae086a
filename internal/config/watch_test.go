// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWatch_ReloadsValidChanges(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[generation]\nmodel = \"first\"\n")

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan *Config, 16)
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, path, 20*time.Millisecond, zap.NewNop(), func(c *Config) { changes <- c })
	}()

	// The watcher may not be registered yet; keep writing until a reload lands.
	var got *Config
	require.Eventually(t, func() bool {
		writeFile(t, path, "[generation]\nmodel = \"second\"\n")
		select {
		case got = <-changes:
			return true
		default:
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)
	assert.Equal(t, "second", got.Generation.Model)

	cancel()
	require.NoError(t, <-done)
}

func TestWatch_SkipsInvalidAndUnrelatedFiles(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, "[generation]\nmodel = \"first\"\n")

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, path, 20*time.Millisecond, nil, func(*Config) { calls.Add(1) })
	}()

	for i := 0; i < 5; i++ {
		writeFile(t, path, "[generation]\nhistory_window = 1000\n")
		require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("other%d.toml", i)), []byte("x"), 0600))
		time.Sleep(30 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, calls.Load())

	cancel()
	require.NoError(t, <-done)
}

func TestWatch_MissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "config.toml"), nil, func(*Config) {})
	assert.Error(t, err)
}
