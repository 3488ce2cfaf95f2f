package state

// History is the ordered log of committed commands that determines the
// canvas contents. It is owned by a single goroutine and is not safe for
// concurrent use.
type History struct {
	commands []Command
}

func NewHistory() *History {
	return &History{commands: make([]Command, 0)}
}

// AppendStroke commits a sealed stroke. Strokes with fewer than two points
// are still recorded; they are no-ops on replay.
func (h *History) AppendStroke(s Stroke) {
	h.commands = append(h.commands, StrokeCommand(s))
}

// Reset truncates the history. A clear is a reset, not a replayed marker.
func (h *History) Reset() {
	h.commands = h.commands[:0]
}

// Replace reseeds the history wholesale from a server snapshot.
func (h *History) Replace(cmds []Command) {
	h.commands = make([]Command, 0, len(cmds))
	for _, c := range cmds {
		switch c.Type {
		case CommandStroke:
			if c.Data == nil {
				continue
			}
			h.commands = append(h.commands, StrokeCommand(*c.Data))
		case CommandClear:
			h.commands = append(h.commands, ClearCommand())
		}
	}
}

// Commands returns a copy of the log in commit order.
func (h *History) Commands() []Command {
	out := make([]Command, len(h.commands))
	copy(out, h.commands)
	return out
}

// Each calls fn for every command in order without copying the log.
func (h *History) Each(fn func(Command)) {
	for _, c := range h.commands {
		fn(c)
	}
}

func (h *History) Len() int {
	return len(h.commands)
}

// Strokes returns the strokes visible after replay, i.e. those committed
// after the last clear in the log.
func (h *History) Strokes() []Stroke {
	var out []Stroke
	for _, c := range h.commands {
		switch c.Type {
		case CommandClear:
			out = out[:0]
		case CommandStroke:
			out = append(out, *c.Data)
		}
	}
	return out
}
