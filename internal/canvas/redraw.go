package canvas

import (
	"errors"

	"LiveBoard/internal/state"
)

// Redraw repaints the whole surface: open remote paths first, then every
// committed command in order. It is the only full-repaint path.
func Redraw(s *Surface, remote *state.RemotePaths, history *state.History) error {
	s.Clear()
	var errs []error
	if remote != nil {
		remote.Each(func(_ string, path []state.TaggedPoint) {
			if len(path) < 2 {
				return
			}
			pts := make([]state.Point, len(path))
			for i, p := range path {
				pts[i] = p.Point
			}
			errs = append(errs, s.DrawPolyline(pts, path[0].Color, path[0].Width))
		})
	}
	if history != nil {
		history.Each(func(c state.Command) {
			errs = append(errs, Replay(s, c))
		})
	}
	return errors.Join(errs...)
}

// RedrawWithLocal is Redraw followed by the unsealed local stroke.
func RedrawWithLocal(s *Surface, remote *state.RemotePaths, history *state.History, local state.Stroke) error {
	err := Redraw(s, remote, history)
	return errors.Join(err, s.DrawPolyline(local.Path, local.Color, local.Width))
}

// Replay applies a single history command to the surface.
func Replay(s *Surface, c state.Command) error {
	switch c.Type {
	case state.CommandClear:
		s.Clear()
	case state.CommandStroke:
		if c.Data != nil {
			return s.DrawPolyline(c.Data.Path, c.Data.Color, c.Data.Width)
		}
	}
	return nil
}
