package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/avenn/resonance/internal/artifact"
	"github.com/avenn/resonance/internal/card"
	"github.com/avenn/resonance/internal/echo"
)

func curateJob(client echo.Client, feeling string, gen int) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, 2*time.Minute)
		defer cancel()
		result, err := client.Curate(ctx, feeling)
		return curateResultMsg{gen: gen, result: result, err: err}, err
	}
}

func synthesizeJob(synth *artifact.Synthesizer, result *echo.Result, gen int) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, 2*time.Minute)
		defer cancel()
		url, err := synth.Synthesize(ctx, result)
		return synthesisResultMsg{gen: gen, url: url, err: err}, err
	}
}

// exportJob renders the keepsake card and writes it to disk. A composition
// failure downgrades to exporting the raw artwork rather than failing the
// whole export.
func exportJob(synth *artifact.Synthesizer, result *echo.Result, imageURL, dir string) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, time.Minute)
		defer cancel()
		artwork, raw, err := synth.Load(ctx, imageURL)
		if err != nil && len(raw) == 0 {
			return exportResultMsg{err: err}, err
		}
		var composed []byte
		if artwork != nil {
			width := artwork.Bounds().Dx()
			if width <= 0 {
				width = 1024
			}
			composed, _ = card.Compose(artwork, result, width, time.Now())
		}
		path, fallback, err := card.Export(dir, result, composed, raw)
		if err != nil {
			return exportResultMsg{err: err}, err
		}
		return exportResultMsg{path: path, fallback: fallback}, nil
	}
}
