// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package catalog resolves the list of selectable generation models.
//
// Resolve fetches the models list for an API key, keeps the entries that
// support generateContent, and caches the result for a bounded time.
// Failures never surface as errors: they produce a single synthetic entry
// whose label explains the problem, so a model picker always has something
// to show.
package catalog
