package state

// Point is a position in logical canvas coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one sealed pen gesture.
type Stroke struct {
	Path  []Point `json:"path"`
	Color string  `json:"color"`
	Width float64 `json:"width"`
}

// Drawable reports whether the stroke renders as a connected line.
func (s Stroke) Drawable() bool {
	return len(s.Path) >= 2
}

// Clone returns a deep copy so the path can't be mutated through the original slice.
func (s Stroke) Clone() Stroke {
	path := make([]Point, len(s.Path))
	copy(path, s.Path)
	return Stroke{Path: path, Color: s.Color, Width: s.Width}
}

type CommandType string

const (
	CommandStroke CommandType = "stroke"
	CommandClear  CommandType = "clear"
)

// Command is one entry of the drawing history.
type Command struct {
	Type CommandType `json:"type"`
	Data *Stroke     `json:"data,omitempty"`
}

func StrokeCommand(s Stroke) Command {
	c := s.Clone()
	return Command{Type: CommandStroke, Data: &c}
}

func ClearCommand() Command {
	return Command{Type: CommandClear}
}

// TaggedPoint is a point of an in-progress remote path together with the
// tool that was active when the peer sent it.
type TaggedPoint struct {
	Point
	Color string  `json:"color"`
	Width float64 `json:"width"`
}

// Extent is the fixed logical size of the canvas.
type Extent struct {
	Width  float64
	Height float64
}

// Clamp keeps p inside the extent.
func (e Extent) Clamp(p Point) Point {
	if p.X < 0 {
		p.X = 0
	}
	if p.Y < 0 {
		p.Y = 0
	}
	if e.Width > 0 && p.X > e.Width {
		p.X = e.Width
	}
	if e.Height > 0 && p.Y > e.Height {
		p.Y = e.Height
	}
	return p
}
