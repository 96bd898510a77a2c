package artifact

import (
	"fmt"
	"strings"

	"github.com/avenn/resonance/internal/echo"
)

// promptSuffix pins the rendering style so repeated sessions feel like one
// body of work: muted, painterly, no text baked into the image.
const promptSuffix = "oil painting, muted dusk palette, soft diffuse light, early 20th century mood, " +
	"evocative and abstract, no text, no letters, no watermark, no people's faces"

// DerivePrompt turns a curated result into an image-generation prompt.
// Deterministic for a given result: same thematic key and echo list, same
// prompt.
func DerivePrompt(result *echo.Result) string {
	if result == nil {
		return ""
	}
	refs := make([]string, 0, len(result.Echoes))
	for _, item := range result.Echoes {
		refs = append(refs, fmt.Sprintf("%s (%s)", item.Title, item.Type))
	}
	return fmt.Sprintf("An atmospheric artwork expressing %q, inspired by %s. %s",
		strings.ToLower(result.ThematicKey), strings.Join(refs, ", "), promptSuffix)
}
