package artifact

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"net/http"
	"net/url"
	"os"
	"strings"

	// Registered so decode verification accepts either encoding the
	// synthesis service emits.
	_ "image/jpeg"
	_ "image/png"

	"github.com/avenn/resonance/internal/echo"
)

const (
	defaultBaseURL   = "https://image.pollinations.ai"
	defaultImageSize = 1024
)

// Config describes how to build a Synthesizer.
type Config struct {
	BaseURL    string
	ImageSize  int
	CacheDir   string
	HTTPClient *http.Client
}

// Synthesizer derives an image prompt from a curated result, requests a
// rendered artifact from the image service, and verifies the reply actually
// decodes before anyone is shown an artifact screen.
type Synthesizer struct {
	base  string
	size  int
	cache *imageCache
}

// New builds a Synthesizer, honoring RESONANCE_IMAGE_HOST when no base URL
// is configured.
func New(cfg Config) (*Synthesizer, error) {
	base := cfg.BaseURL
	if base == "" {
		if env := os.Getenv("RESONANCE_IMAGE_HOST"); env != "" {
			base = env
		} else {
			base = defaultBaseURL
		}
	}
	size := cfg.ImageSize
	if size <= 0 {
		size = defaultImageSize
	}
	cache, err := newImageCache(cfg.CacheDir, cfg.HTTPClient)
	if err != nil {
		return nil, err
	}
	return &Synthesizer{base: strings.TrimRight(base, "/"), size: size, cache: cache}, nil
}

// ImageURL builds the prompt-in-path request URL for the image service.
// Deterministic for a given prompt and size.
func ImageURL(base, prompt string, size int) string {
	return fmt.Sprintf("%s/prompt/%s?width=%d&height=%d&nologo=true",
		strings.TrimRight(base, "/"), url.PathEscape(prompt), size, size)
}

// Synthesize requests an artifact for the result and returns its URL once
// the rendered image is confirmed to decode. A reply that fetches but does
// not decode is reported the same way as a transport failure.
func (s *Synthesizer) Synthesize(ctx context.Context, result *echo.Result) (string, error) {
	prompt := DerivePrompt(result)
	if prompt == "" {
		return "", fmt.Errorf("no result to synthesize from")
	}
	imageURL := ImageURL(s.base, prompt, s.size)

	path, err := s.cache.Fetch(ctx, imageURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch artifact: %w", err)
	}
	if err := verifyDecodes(path); err != nil {
		return "", fmt.Errorf("artifact did not render: %w", err)
	}
	return imageURL, nil
}

// Load returns the decoded artifact plus its raw bytes for the compositor.
// The raw bytes survive as the export fallback when composition fails.
func (s *Synthesizer) Load(ctx context.Context, imageURL string) (image.Image, []byte, error) {
	path, err := s.cache.Fetch(ctx, imageURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch artifact: %w", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, raw, fmt.Errorf("failed to decode artifact: %w", err)
	}
	return img, raw, nil
}

func verifyDecodes(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, _, err := image.DecodeConfig(file); err != nil {
		return err
	}
	return nil
}
