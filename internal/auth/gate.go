// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth provides the access passphrase gate and the signed tokens
// that keep a web login alive.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// maxPassphraseBytes is bcrypt's input limit.
const maxPassphraseBytes = 72

var (
	// ErrEmptyPassphrase is returned by NewGate for an empty passphrase.
	ErrEmptyPassphrase = errors.New("access passphrase must not be empty")

	// ErrPassphraseTooLong is returned by NewGate for passphrases bcrypt
	// would silently truncate.
	ErrPassphraseTooLong = fmt.Errorf("access passphrase must be at most %d bytes", maxPassphraseBytes)
)

// Gate checks entered access codes against a configured passphrase. Only
// the bcrypt hash is kept in memory.
type Gate struct {
	hash []byte
}

// NewGate hashes passphrase with bcrypt.DefaultCost.
func NewGate(passphrase string) (*Gate, error) {
	return newGate(passphrase, bcrypt.DefaultCost)
}

func newGate(passphrase string, cost int) (*Gate, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	if len(passphrase) > maxPassphraseBytes {
		return nil, ErrPassphraseTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash passphrase: %w", err)
	}
	return &Gate{hash: hash}, nil
}

// Check reports whether input matches the passphrase.
func (g *Gate) Check(input string) bool {
	if input == "" || len(input) > maxPassphraseBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword(g.hash, []byte(input)) == nil
}
