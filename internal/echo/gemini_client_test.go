package echo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func geminiReply(text string) string {
	type part struct {
		Text string `json:"text"`
	}
	payload := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []part{{Text: text}}}},
		},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func TestGeminiClientCurate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if !strings.Contains(r.URL.Path, "/models/gemini-2.5-flash:generateContent") {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		var payload struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
			GenerationConfig struct {
				ResponseMimeType string         `json:"responseMimeType"`
				ResponseSchema   map[string]any `json:"responseSchema"`
			} `json:"generationConfig"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		if payload.GenerationConfig.ResponseMimeType != "application/json" {
			t.Fatalf("expected schema-pinned JSON response, got %q", payload.GenerationConfig.ResponseMimeType)
		}
		if payload.GenerationConfig.ResponseSchema == nil {
			t.Fatal("request missing response schema")
		}
		if len(payload.Contents) != 1 || !strings.Contains(payload.Contents[0].Parts[0].Text, "quiet and very far from home") {
			t.Fatalf("prompt missing feeling: %#v", payload.Contents)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(geminiReply(validPayload)))
	}))
	defer server.Close()

	client := &geminiClient{
		apiKey: "test-key",
		model:  "gemini-2.5-flash",
		base:   server.URL,
		client: server.Client(),
	}

	result, err := client.Curate(context.Background(), "quiet and very far from home")
	if err != nil {
		t.Fatalf("curate failed: %v", err)
	}
	if result.ThematicKey != "Solitude" {
		t.Fatalf("unexpected thematic key: %s", result.ThematicKey)
	}
}

func TestGeminiClientCurateSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := &geminiClient{apiKey: "k", model: "m", base: server.URL, client: server.Client()}
	if _, err := client.Curate(context.Background(), "adrift"); err == nil {
		t.Fatal("expected error for 429 response")
	}
}

func TestGeminiClientCurateRejectsContractViolation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// Structurally valid transport reply, but the payload breaks the contract.
		w.Write([]byte(geminiReply(`{"thematic_key":"Grief","echoes":[]}`)))
	}))
	defer server.Close()

	client := &geminiClient{apiKey: "k", model: "m", base: server.URL, client: server.Client()}
	if _, err := client.Curate(context.Background(), "hollow"); err == nil {
		t.Fatal("expected contract violation to fail the call")
	}
}

func TestGeminiClientCurateRejectsEmptyFeeling(t *testing.T) {
	client := &geminiClient{apiKey: "k", model: "m", base: "http://unused", client: http.DefaultClient}
	if _, err := client.Curate(context.Background(), "   "); err == nil {
		t.Fatal("expected error for blank feeling")
	}
}

func TestNewFromEnvRequiresKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	if _, err := NewFromEnv(Config{}); err == nil {
		t.Fatal("expected missing-key error")
	}
	if client, err := NewFromEnv(Config{APIKey: "k"}); err != nil || client == nil {
		t.Fatalf("expected client with explicit key, got %v", err)
	}
}
