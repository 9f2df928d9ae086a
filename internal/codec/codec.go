// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package codec

import (
	"encoding/base64"
	"errors"
	"strings"
)

// ErrEmptyKey is returned by New when the key has no characters.
var ErrEmptyKey = errors.New("codec: key must not be empty")

// maxCodePoint is the largest value the 4-byte UTF-8 layout can carry.
// XOR of two Unicode scalars can exceed utf8.MaxRune, so the codec writes
// raw code points instead of going through unicode/utf8.
const maxCodePoint = 0x1FFFFF

// Codec applies the XOR/base64 transform with a fixed key.
type Codec struct {
	key []rune
}

// New creates a Codec for key.
func New(key string) (*Codec, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	return &Codec{key: []rune(key)}, nil
}

// Encode obfuscates plaintext.
func (c *Codec) Encode(plaintext string) string {
	var buf []byte
	i := 0
	for _, r := range plaintext {
		buf = appendCodePoint(buf, r^c.key[i%len(c.key)])
		i++
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// Decode reverses Encode. Any failure yields "", which callers must treat
// as "no recoverable data".
func (c *Codec) Decode(opaque string) string {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(opaque))
	if err != nil {
		return ""
	}

	var sb strings.Builder
	sb.Grow(len(raw))
	for i := 0; len(raw) > 0; i++ {
		cp, n, ok := readCodePoint(raw)
		if !ok {
			return ""
		}
		raw = raw[n:]
		r := cp ^ c.key[i%len(c.key)]
		if r < 0 || r > 0x10FFFF || (r >= 0xD800 && r <= 0xDFFF) {
			return ""
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Encode obfuscates plaintext with key. An empty key yields "".
func Encode(plaintext, key string) string {
	c, err := New(key)
	if err != nil {
		return ""
	}
	return c.Encode(plaintext)
}

// Decode reverses Encode. An empty key or unrecoverable input yields "".
func Decode(opaque, key string) string {
	c, err := New(key)
	if err != nil {
		return ""
	}
	return c.Decode(opaque)
}

// =============================================================================
// CODE POINT LAYOUT
// =============================================================================

// appendCodePoint writes cp using the UTF-8 bit layout. Unlike utf8.AppendRune
// it does not replace surrogates or values above utf8.MaxRune.
func appendCodePoint(buf []byte, cp rune) []byte {
	switch {
	case cp < 0x80:
		return append(buf, byte(cp))
	case cp < 0x800:
		return append(buf, 0xC0|byte(cp>>6), 0x80|byte(cp)&0x3F)
	case cp < 0x10000:
		return append(buf, 0xE0|byte(cp>>12), 0x80|byte(cp>>6)&0x3F, 0x80|byte(cp)&0x3F)
	default:
		cp &= maxCodePoint
		return append(buf, 0xF0|byte(cp>>18), 0x80|byte(cp>>12)&0x3F,
			0x80|byte(cp>>6)&0x3F, 0x80|byte(cp)&0x3F)
	}
}

// readCodePoint parses one code point written by appendCodePoint.
func readCodePoint(b []byte) (rune, int, bool) {
	lead := b[0]
	var n int
	var cp rune
	switch {
	case lead < 0x80:
		return rune(lead), 1, true
	case lead&0xE0 == 0xC0:
		n, cp = 2, rune(lead&0x1F)
	case lead&0xF0 == 0xE0:
		n, cp = 3, rune(lead&0x0F)
	case lead&0xF8 == 0xF0:
		n, cp = 4, rune(lead&0x07)
	default:
		return 0, 0, false
	}
	if len(b) < n {
		return 0, 0, false
	}
	for _, cb := range b[1:n] {
		if cb&0xC0 != 0x80 {
			return 0, 0, false
		}
		cp = cp<<6 | rune(cb&0x3F)
	}
	return cp, n, true
}
