// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server serves the browser UI and a small JSON API over one
// app.App.
//
// # Endpoints
//
//   - GET  /login, POST /login  - access code form; sets the session cookie
//   - GET  /                    - sidebar and transcript of the current project
//   - POST /chat                - run a turn on the current project
//   - POST /settings            - API key, model, search and generation settings
//   - POST /sessions/...        - create, select, rename, delete, clear projects
//   - GET  /sessions/{id}/export/{format}
//   - POST /api/login           - exchange the access code for a bearer token
//   - GET  /api/sessions, GET /api/sessions/{id}, POST /api/turn, GET /api/models
//   - GET  /healthz             - unauthenticated liveness check
//
// Everything except /healthz, the login endpoints and static assets needs
// a valid token, from the chatweb_session cookie or an Authorization
// Bearer header.
//
// # Usage
//
//	srv, err := server.New(a, server.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	return srv.ListenAndServe(ctx)
package server
