package board

import (
	"LiveBoard/internal/presence"
	"LiveBoard/internal/state"
)

type Tool int

const (
	Brush Tool = iota
	Eraser
)

func (t Tool) String() string {
	if t == Eraser {
		return "eraser"
	}
	return "brush"
}

const (
	DefaultColor = "#000000"
	DefaultWidth = 3.0
	EraserColor  = "#FFFFFF"
	EraserWidth  = 20.0
	MinWidth     = 1.0
	MaxWidth     = 50.0
)

// View is what the presentation layer needs to render everything around the
// raster: presence, tool state and connection health.
type View struct {
	Self      string
	Peers     []presence.Peer
	Count     int
	Tool      Tool
	Color     string
	Width     float64
	Drawing   bool
	Strokes   int
	Connected bool
	Err       error
	Extent    state.Extent
}
