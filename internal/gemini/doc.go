// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini provides the client for the Gemini generative-language API.
//
// Two backends implement Generator: Client, a small REST client over
// net/http, and SDKGenerator, built on google.golang.org/genai. Both speak
// the typed wire model in types.go so the turn controller never sees
// untyped JSON.
//
// # Key Types
//
//   - Client: REST client for generateContent and the models list
//   - SDKGenerator: Generator backed by the official Go SDK
//   - GenerateContentRequest / GenerateContentResponse: Typed wire model
//   - APIError: Non-2xx response with the raw body preserved
//   - TransportError: Network, timeout, or decode failure
//
// # Usage
//
//	client := gemini.NewClient(gemini.WithTimeout(60 * time.Second))
//	resp, err := client.GenerateContent(ctx, apiKey, "gemini-2.0-flash", &gemini.GenerateContentRequest{
//	    Contents: []gemini.Content{gemini.TextContent("user", "Hello")},
//	    Tools:    gemini.SearchTools("gemini-2.0-flash"),
//	})
//	text, _ := gemini.ExtractText(resp)
//	sources := gemini.ExtractSources(resp)
//
// SECURITY: API keys are never logged. Use MaskKey for diagnostics.
package gemini
