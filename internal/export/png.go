package export

import (
	"fmt"
	"io"
	"path"
	"strings"

	"LiveBoard/internal/canvas"
	"LiveBoard/internal/state"
)

// PNG replays cmds onto a fresh surface of pixelW x pixelH and encodes it.
func PNG(w io.Writer, extent state.Extent, pixelW, pixelH int, cmds []state.Command) error {
	surface := canvas.NewSurface(extent, pixelW, pixelH)
	for _, s := range visible(cmds) {
		if err := surface.DrawPolyline(s.Path, s.Color, s.Width); err != nil {
			return fmt.Errorf("export png: %w", err)
		}
	}
	if err := surface.EncodePNG(w); err != nil {
		return fmt.Errorf("export png: %w", err)
	}
	return nil
}

// Write picks the format from the extension of name (.pdf or .png) and
// writes the board to w. PNG frames are one pixel per logical unit.
func Write(w io.Writer, name string, extent state.Extent, cmds []state.Command) error {
	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".pdf":
		return PDF(w, extent, cmds)
	case ".png":
		return PNG(w, extent, int(extent.Width), int(extent.Height), cmds)
	default:
		return fmt.Errorf("export: unsupported file type %q", ext)
	}
}
