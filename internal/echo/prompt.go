package echo

import (
	"encoding/json"
	"fmt"
	"strings"
)

func buildCurationPrompt(feeling string) string {
	return "You are the keeper of an archive of human expression: poetry, songs, paintings, letters, film.\n" +
		"A visitor describes how they feel. Curate 1-3 echoes from the archive that resonate with that exact feeling -- " +
		"real works, precisely attributed, each with a short quote or evocative description.\n" +
		"Also produce: a single-word thematic key naming the mood; a hex color for that mood, light enough to read " +
		"against a near-black background; one observation about how people across time have shared this feeling; " +
		"and a short web search query a visitor could use to find more works like these.\n\n" +
		"The visitor writes: " + feeling
}

// curationSchema mirrors the Result shape so the service is held to the
// response contract rather than trusted to improvise JSON.
func curationSchema() map[string]any {
	echoItem := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type":    map[string]any{"type": "string"},
			"title":   map[string]any{"type": "string"},
			"creator": map[string]any{"type": "string"},
			"year":    map[string]any{"type": "string"},
			"content": map[string]any{"type": "string"},
		},
		"required": []string{"type", "title", "creator", "year", "content"},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"thematic_key": map[string]any{"type": "string"},
			"color_hex":    map[string]any{"type": "string"},
			"echoes": map[string]any{
				"type":     "array",
				"minItems": 1,
				"maxItems": 3,
				"items":    echoItem,
			},
			"community_insight": map[string]any{"type": "string"},
			"search_query":      map[string]any{"type": "string"},
		},
		"required": []string{"thematic_key", "color_hex", "echoes", "community_insight", "search_query"},
	}
}

// parseResult decodes the service reply. Schema-pinned responses should be
// bare JSON, but models occasionally wrap the object in prose, so a
// brace-extracted candidate is tried as well before giving up.
func parseResult(raw string) (*Result, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty curation response")
	}

	candidates := []string{raw}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			candidates = append(candidates, raw[start:end+1])
		}
	}

	var lastErr error
	for _, candidate := range candidates {
		var result Result
		if err := json.Unmarshal([]byte(candidate), &result); err != nil {
			lastErr = err
			continue
		}
		sanitizeResult(&result)
		if err := result.Validate(); err != nil {
			lastErr = err
			continue
		}
		return &result, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("unable to parse curation payload: %w", lastErr)
	}
	return nil, fmt.Errorf("unable to parse curation payload")
}
