// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the turn controller: one user prompt in, one
// assistant message (or a typed failure) out.
//
// # Turn lifecycle
//
//	Idle -> AwaitingResponse -> Success
//	                         -> RetryWithoutTools -> Success | Failed
//	                         -> Failed
//
// The user message is appended before the provider is called, so it is
// visible while the request is in flight and stays in the log if the turn
// fails. On success the assistant message is appended and the whole
// registry is saved. Save errors are logged and swallowed.
//
// When search grounding was attached and the provider answers with a
// non-2xx status, the identical request is sent once more without tools.
// A successful retry carries a disclaimer on its displayed text and no
// sources. The retry fires for any non-2xx status, including failures
// unrelated to tools such as quota errors.
//
// Only one turn may be in flight per session. A second Run on a busy
// session returns ErrTurnInProgress without touching the log.
package chat
