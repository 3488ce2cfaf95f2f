package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryAppendResetReplace(t *testing.T) {
	h := NewHistory()
	h.AppendStroke(Stroke{Path: []Point{{0, 0}, {1, 1}}, Color: "red", Width: 2})
	h.AppendStroke(Stroke{Path: []Point{{5, 5}}, Color: "blue", Width: 1})
	require.Equal(t, 2, h.Len())

	h.Reset()
	assert.Equal(t, 0, h.Len())
	assert.Empty(t, h.Commands())

	h.Replace([]Command{
		StrokeCommand(Stroke{Path: []Point{{0, 0}, {2, 2}}, Color: "#000", Width: 3}),
		ClearCommand(),
		{Type: CommandStroke},
		StrokeCommand(Stroke{Path: []Point{{1, 1}, {3, 3}}, Color: "#fff", Width: 3}),
	})
	cmds := h.Commands()
	require.Len(t, cmds, 3, "stroke commands without data are dropped")
	assert.Equal(t, CommandClear, cmds[1].Type)

	strokes := h.Strokes()
	require.Len(t, strokes, 1)
	assert.Equal(t, "#fff", strokes[0].Color)
}

func TestHistoryCopiesCommittedPaths(t *testing.T) {
	h := NewHistory()
	path := []Point{{0, 0}, {1, 1}}
	h.AppendStroke(Stroke{Path: path, Color: "red", Width: 1})
	path[0] = Point{99, 99}

	assert.Equal(t, Point{0, 0}, h.Commands()[0].Data.Path[0])
}

func TestRemotePathsIgnoreOrphanMoves(t *testing.T) {
	r := NewRemotePaths()
	_, ok := r.Extend("a", TaggedPoint{Point: Point{1, 1}})
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())

	r.Begin("a", TaggedPoint{Point: Point{0, 0}, Color: "red", Width: 2})
	prev, ok := r.Extend("a", TaggedPoint{Point: Point{10, 10}, Color: "blue", Width: 4})
	require.True(t, ok)
	assert.Equal(t, Point{0, 0}, prev.Point)
	r.Each(func(_ string, path []TaggedPoint) { assert.Len(t, path, 2) })

	assert.True(t, r.End("a"))
	assert.False(t, r.End("a"))
	assert.Equal(t, 0, r.Len())

	r.Begin("a", TaggedPoint{})
	r.Begin("b", TaggedPoint{})
	r.Reset()
	assert.Equal(t, 0, r.Len())
}

func TestRemotePathsEachIsOrdered(t *testing.T) {
	r := NewRemotePaths()
	for _, id := range []string{"c", "a", "b"} {
		r.Begin(id, TaggedPoint{})
	}
	var seen []string
	r.Each(func(peer string, _ []TaggedPoint) { seen = append(seen, peer) })
	assert.Equal(t, []string{"a", "b", "c"}, seen)
}

func TestLocalStrokeLifecycle(t *testing.T) {
	var l LocalStroke
	_, ok := l.Append(Point{1, 1})
	assert.False(t, ok)
	_, ok = l.Seal()
	assert.False(t, ok)

	l.Begin(Point{0, 0}, "red", 2)
	prev, ok := l.Append(Point{10, 10})
	require.True(t, ok)
	assert.Equal(t, Point{0, 0}, prev)
	assert.True(t, l.Active())

	s, ok := l.Seal()
	require.True(t, ok)
	assert.Equal(t, []Point{{0, 0}, {10, 10}}, s.Path)
	assert.True(t, s.Drawable())
	assert.False(t, l.Active())
	assert.Empty(t, l.Current().Path)
}

func TestExtentClamp(t *testing.T) {
	e := Extent{Width: 100, Height: 50}
	assert.Equal(t, Point{0, 50}, e.Clamp(Point{-3, 70}))
	assert.Equal(t, Point{100, 20}, e.Clamp(Point{140, 20}))
	assert.Equal(t, Point{30, 20}, e.Clamp(Point{30, 20}))
}
