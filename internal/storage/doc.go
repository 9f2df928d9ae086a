// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists the session registry to a single obfuscated file.
//
// The whole registry state is serialized to JSON, passed through the codec,
// and written over the history file in one atomic replace. Loading never
// fails: a missing, empty, undecodable, or malformed file yields the default
// single-session state.
//
// # Usage
//
//	c, _ := codec.New(accessCode)
//	store := storage.NewStore("~/.chatweb/system_log.dat", c)
//	reg := session.FromState(store.Load())
//	...
//	if err := store.Save(reg.State()); err != nil {
//	    logger.Warn("history not saved", zap.Error(err))
//	}
//
// # Storage Location
//
// The history file defaults to ~/.chatweb/system_log.dat and is written with
// 0600 permissions.
package storage
