package state

// LocalStroke is the buffer of the stroke the local user is drawing.
type LocalStroke struct {
	active bool
	path   []Point
	color  string
	width  float64
}

// Begin starts a new stroke at p, discarding any unsealed previous one.
func (l *LocalStroke) Begin(p Point, color string, width float64) {
	l.active = true
	l.path = []Point{p}
	l.color = color
	l.width = width
}

// Append adds p and returns the previous point so the caller can draw the
// connecting segment. ok is false when no stroke is active.
func (l *LocalStroke) Append(p Point) (prev Point, ok bool) {
	if !l.active || len(l.path) == 0 {
		return Point{}, false
	}
	prev = l.path[len(l.path)-1]
	l.path = append(l.path, p)
	return prev, true
}

// Seal closes the active stroke and returns it. The buffer is cleared.
func (l *LocalStroke) Seal() (Stroke, bool) {
	if !l.active {
		return Stroke{}, false
	}
	s := Stroke{Path: l.path, Color: l.color, Width: l.width}
	l.active = false
	l.path = nil
	return s, true
}

func (l *LocalStroke) Active() bool {
	return l.active
}

// Current returns a copy of the unsealed stroke.
func (l *LocalStroke) Current() Stroke {
	return Stroke{Path: l.path, Color: l.color, Width: l.width}.Clone()
}
