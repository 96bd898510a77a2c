package echo

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultModel   = "gemini-2.5-flash"
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

// Curation calls often sit behind a queue on the provider side; rely on the
// caller's context for anything tighter.
const defaultHTTPTimeout = 2 * time.Minute

// Config describes how to build a curation client.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// Client retrieves a curated set of echoes for a free-text feeling.
type Client interface {
	Curate(ctx context.Context, feeling string) (*Result, error)
	Name() string
}

// NewFromEnv builds a client from CLI options and environment variables.
func NewFromEnv(cfg Config) (Client, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv("GEMINI_API_KEY")
	}
	if key == "" {
		return nil, errMissingAPIKey
	}
	model := cfg.Model
	if model == "" {
		if env := os.Getenv("RESONANCE_MODEL"); env != "" {
			model = env
		} else {
			model = defaultModel
		}
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return &geminiClient{
		apiKey: key,
		model:  model,
		base:   strings.TrimRight(base, "/"),
		client: pickHTTPClient(cfg.HTTPClient),
	}, nil
}

func pickHTTPClient(custom *http.Client) *http.Client {
	if custom != nil {
		return custom
	}
	return &http.Client{Timeout: defaultHTTPTimeout}
}
