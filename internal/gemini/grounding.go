// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"strings"

	"github.com/jeranaias/chatweb/internal/model"
)

const (
	// legacySearchFamily is the model prefix that still needs the
	// google_search_retrieval descriptor.
	legacySearchFamily = "gemini-1.5"

	// DynamicRetrievalMode and DynamicRetrievalThreshold configure
	// google_search_retrieval.
	DynamicRetrievalMode      = "MODE_DYNAMIC"
	DynamicRetrievalThreshold = 0.7
)

// SearchTools returns the single search-grounding tool descriptor for the
// given model family.
func SearchTools(modelID string) []Tool {
	if strings.HasPrefix(modelID, legacySearchFamily) {
		return []Tool{{
			GoogleSearchRetrieval: &GoogleSearchRetrieval{
				DynamicRetrievalConfig: &DynamicRetrievalConfig{
					Mode:             DynamicRetrievalMode,
					DynamicThreshold: DynamicRetrievalThreshold,
				},
			},
		}}
	}
	return []Tool{{GoogleSearch: &GoogleSearch{}}}
}

// ExtractText concatenates the text parts of the first candidate, in order,
// and trims the result. It returns false when nothing usable was found.
func ExtractText(resp *GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", false
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	return text, text != ""
}

// ExtractSources returns one Source per grounding chunk of the first
// candidate that has a web reference with both a title and a URI, in chunk
// order. Other chunks are skipped.
func ExtractSources(resp *GenerateContentResponse) []model.Source {
	sources := []model.Source{}
	if resp == nil || len(resp.Candidates) == 0 {
		return sources
	}
	gm := resp.Candidates[0].GroundingMetadata
	if gm == nil {
		return sources
	}
	for _, chunk := range gm.GroundingChunks {
		if chunk.Web == nil || chunk.Web.Title == "" || chunk.Web.URI == "" {
			continue
		}
		sources = append(sources, model.Source{Title: chunk.Web.Title, URI: chunk.Web.URI})
	}
	return sources
}

// HasGroundingMetadata reports whether the first candidate carries search
// chunks or search queries.
func HasGroundingMetadata(resp *GenerateContentResponse) bool {
	if resp == nil || len(resp.Candidates) == 0 {
		return false
	}
	gm := resp.Candidates[0].GroundingMetadata
	return gm != nil && (len(gm.GroundingChunks) > 0 || len(gm.WebSearchQueries) > 0)
}
