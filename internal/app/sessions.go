// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"go.uber.org/zap"

	"github.com/jeranaias/chatweb/internal/session"
)

// Session operations that change the registry save it afterwards, so a
// failed turn's prompt is persisted by the next one of these.

// CreateSession adds and selects a session named name.
func (a *App) CreateSession(name string) (string, error) {
	id, err := a.Registry.Create(name)
	if err != nil {
		return "", err
	}
	a.Logger.Info("session created", zap.String("session_id", id))
	_ = a.Persist()
	return id, nil
}

// SelectSession makes id current.
func (a *App) SelectSession(id string) error {
	if !a.Registry.Select(id) {
		return session.ErrNotFound
	}
	_ = a.Persist()
	return nil
}

// RenameSession retitles id.
func (a *App) RenameSession(id, title string) error {
	if err := a.Registry.Rename(id, title); err != nil {
		return err
	}
	_ = a.Persist()
	return nil
}

// DeleteSession removes id, or resets it when it is the only session.
func (a *App) DeleteSession(id string) error {
	if err := a.Registry.Delete(id); err != nil {
		return err
	}
	a.Logger.Info("session deleted", zap.String("session_id", id))
	_ = a.Persist()
	return nil
}

// ClearSession empties id's messages.
func (a *App) ClearSession(id string) error {
	if err := a.Registry.Clear(id); err != nil {
		return err
	}
	_ = a.Persist()
	return nil
}
