// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package codec implements the at-rest obfuscation used for the history file.
//
// Each character of the plaintext is XORed with the key's characters in a
// repeating schedule, the resulting code points are written with the UTF-8
// bit layout, and the bytes are framed as standard base64.
//
// # Security
//
// This is obfuscation, not encryption. The key is short, fixed, and reused
// across the whole file, so anyone holding the file and a guess at the key
// recovers the plaintext. Do not treat it as a confidentiality control.
//
// # Usage
//
//	c, err := codec.New("1111")
//	blob := c.Encode(`{"sessions":[]}`)
//	plain := c.Decode(blob) // "" when blob is not recoverable
package codec
