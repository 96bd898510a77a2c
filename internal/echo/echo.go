package echo

import (
	"fmt"
	"net/url"
	"strings"
)

// Item is one curated artifact anchoring the feeling: a quote, a song,
// a painting description. All fields are free text supplied by the
// curation service.
type Item struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Creator string `json:"creator"`
	Year    string `json:"year"`
	Content string `json:"content"`
}

// Result is the full curated response for one feeling query.
type Result struct {
	ThematicKey      string `json:"thematic_key"`
	ColorHex         string `json:"color_hex"`
	Echoes           []Item `json:"echoes"`
	CommunityInsight string `json:"community_insight"`
	SearchQuery      string `json:"search_query"`
}

// Validate enforces the caller-side contract on the service payload.
// Every named field must be present and at least one echo returned;
// anything less is treated as a parse failure by the client.
func (r *Result) Validate() error {
	if r == nil {
		return fmt.Errorf("missing result payload")
	}
	if strings.TrimSpace(r.ThematicKey) == "" {
		return fmt.Errorf("missing thematic_key")
	}
	if strings.TrimSpace(r.ColorHex) == "" {
		return fmt.Errorf("missing color_hex")
	}
	if len(r.Echoes) == 0 {
		return fmt.Errorf("no echoes returned")
	}
	if strings.TrimSpace(r.CommunityInsight) == "" {
		return fmt.Errorf("missing community_insight")
	}
	if strings.TrimSpace(r.SearchQuery) == "" {
		return fmt.Errorf("missing search_query")
	}
	return nil
}

// SearchURL builds the external search link advertised on the result screen.
func SearchURL(r *Result) string {
	if r == nil || strings.TrimSpace(r.SearchQuery) == "" {
		return ""
	}
	return "https://www.google.com/search?q=" + url.QueryEscape(strings.TrimSpace(r.SearchQuery))
}

func sanitizeResult(r *Result) {
	r.ThematicKey = strings.TrimSpace(r.ThematicKey)
	r.ColorHex = strings.TrimSpace(r.ColorHex)
	r.CommunityInsight = strings.TrimSpace(r.CommunityInsight)
	r.SearchQuery = strings.TrimSpace(r.SearchQuery)
	cleaned := make([]Item, 0, len(r.Echoes))
	for _, item := range r.Echoes {
		item.Type = strings.TrimSpace(item.Type)
		item.Title = strings.TrimSpace(item.Title)
		item.Creator = strings.TrimSpace(item.Creator)
		item.Year = strings.TrimSpace(item.Year)
		item.Content = strings.TrimSpace(item.Content)
		if item.Title == "" && item.Content == "" {
			continue
		}
		cleaned = append(cleaned, item)
	}
	r.Echoes = cleaned
}
