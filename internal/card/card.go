// Package card composes a shareable keepsake from a synthesized artwork and
// the curation that inspired it, and writes it to disk as a PNG.
package card

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/avenn/resonance/internal/echo"
)

const (
	headerBand   = 150
	echoRowBand  = 80
	cardPadding  = 24
	backgroundHx = "#101014"
	mutedTextHx  = "#9A9AA6"
	brightTextHx = "#E8E8EF"
)

// Height returns the pixel height of a card holding a square artwork of the
// given width plus n echo rows.
func Height(imageWidth, n int) int {
	return imageWidth + headerBand + echoRowBand*n
}

// Compose renders the card as PNG bytes. The artwork is scaled to a
// width-by-width square at the top, followed by the thematic key in the
// curation's color and one row per echo.
func Compose(artwork image.Image, result *echo.Result, width int, now time.Time) ([]byte, error) {
	if artwork == nil || result == nil {
		return nil, fmt.Errorf("nothing to compose")
	}
	if width <= 0 {
		width = 1200
	}
	height := Height(width, len(result.Echoes))

	dc := gg.NewContext(width, height)
	dc.SetHexColor(backgroundHx)
	dc.Clear()

	bounds := artwork.Bounds()
	if bounds.Dx() > 0 && bounds.Dy() > 0 {
		dc.Push()
		dc.Scale(float64(width)/float64(bounds.Dx()), float64(width)/float64(bounds.Dy()))
		dc.DrawImage(artwork, 0, 0)
		dc.Pop()
	}

	dc.SetFontFace(basicfont.Face7x13)

	keyColor := result.ColorHex
	if keyColor == "" {
		keyColor = brightTextHx
	}
	dc.SetHexColor(keyColor)
	dc.DrawStringAnchored(strings.ToUpper(result.ThematicKey),
		float64(width)/2, float64(width)+headerBand*0.4, 0.5, 0.5)

	dc.SetHexColor(mutedTextHx)
	dc.DrawStringAnchored(now.Format("January 2, 2006"),
		float64(width)-cardPadding, float64(width)+headerBand-cardPadding, 1, 1)

	for i, item := range result.Echoes {
		top := float64(width + headerBand + echoRowBand*i)
		dc.SetHexColor(brightTextHx)
		dc.DrawStringAnchored(strings.ToUpper(item.Title),
			cardPadding, top+echoRowBand*0.35, 0, 0.5)
		dc.SetHexColor(mutedTextHx)
		dc.DrawStringAnchored(fmt.Sprintf("%s / %s", item.Creator, item.Year),
			cardPadding, top+echoRowBand*0.7, 0, 0.5)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("failed to encode card: %w", err)
	}
	return buf.Bytes(), nil
}

// Export writes the composed card into dir, named after the thematic key.
// When composed is empty it falls back to the raw artwork bytes so the user
// still walks away with the image itself.
func Export(dir string, result *echo.Result, composed, raw []byte) (string, bool, error) {
	if result == nil {
		return "", false, fmt.Errorf("nothing to export")
	}
	data := composed
	fallback := false
	if len(data) == 0 {
		if len(raw) == 0 {
			return "", false, fmt.Errorf("no image data to export")
		}
		data = raw
		fallback = true
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fallback, err
		}
		dir = home
	}
	path := filepath.Join(dir, Filename(result.ThematicKey))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fallback, fmt.Errorf("failed to write card: %w", err)
	}
	return path, fallback, nil
}

// Filename derives the export file name from a thematic key.
func Filename(thematicKey string) string {
	key := strings.ToLower(strings.TrimSpace(thematicKey))
	key = strings.ReplaceAll(key, " ", "-")
	if key == "" {
		key = "echo"
	}
	return "resonance-" + key + ".png"
}
