package canvas

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/gogpu/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/colornames"

	"LiveBoard/internal/state"
)

var extent = state.Extent{Width: 100, Height: 100}

func isBackground(c gg.RGBA) bool {
	return c.R > 0.99 && c.G > 0.99 && c.B > 0.99
}

func TestParseColor(t *testing.T) {
	assert.Equal(t, gg.Hex("#FF5733"), ParseColor("#FF5733"))
	assert.Equal(t, gg.Hex("#fff"), ParseColor(" #fff "))
	assert.Equal(t, gg.FromColor(colornames.Red), ParseColor("Red"))
	assert.Equal(t, gg.Black, ParseColor("#12345"))
	assert.Equal(t, gg.Black, ParseColor("#zzzzzz"))
	assert.Equal(t, gg.Black, ParseColor("not-a-color"))
}

func TestNewSurfaceIsBlank(t *testing.T) {
	s := NewSurface(extent, 0, 0)
	w, h := s.Size()
	assert.Equal(t, 100, w)
	assert.Equal(t, 100, h)
	assert.True(t, isBackground(s.Pixel(50, 50)))
}

func TestDrawPolylineSkipsShortPaths(t *testing.T) {
	s := NewSurface(extent, 0, 0)
	before := s.Image().Pix
	require.NoError(t, s.DrawPolyline([]state.Point{{X: 50, Y: 50}}, "red", 10))
	require.NoError(t, s.DrawPolyline(nil, "red", 10))
	assert.Equal(t, before, s.Image().Pix)
}

func TestDrawSegmentPaintsAlongTheLine(t *testing.T) {
	s := NewSurface(extent, 0, 0)
	require.NoError(t, s.DrawSegment(state.Point{X: 10, Y: 50}, state.Point{X: 90, Y: 50}, "#FF0000", 6))

	mid := s.Pixel(50, 50)
	assert.InDelta(t, 1.0, mid.R, 0.05)
	assert.InDelta(t, 0.0, mid.G, 0.05)
	assert.True(t, isBackground(s.Pixel(50, 10)))
}

func TestSurfaceScalesLogicalCoordinates(t *testing.T) {
	s := NewSurface(state.Extent{Width: 400, Height: 300}, 200, 150)
	require.NoError(t, s.DrawSegment(state.Point{X: 0, Y: 150}, state.Point{X: 400, Y: 150}, "black", 8))

	assert.False(t, isBackground(s.Pixel(100, 75)))
	assert.True(t, isBackground(s.Pixel(100, 20)))
	assert.Equal(t, state.Point{X: 200, Y: 150}, s.ToLogical(100, 75))
}

func TestEncodePNGWritesCurrentFrame(t *testing.T) {
	s := NewSurface(extent, 60, 40)
	require.NoError(t, s.DrawSegment(state.Point{X: 0, Y: 50}, state.Point{X: 100, Y: 50}, "#ff0000", 10))

	var buf bytes.Buffer
	require.NoError(t, s.EncodePNG(&buf))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 60, img.Bounds().Dx())
	assert.Equal(t, 40, img.Bounds().Dy())

	frame := s.Image()
	for _, pt := range [][2]int{{30, 20}, {30, 3}} {
		r1, g1, b1, _ := frame.At(pt[0], pt[1]).RGBA()
		r2, g2, b2, _ := img.At(pt[0], pt[1]).RGBA()
		assert.Equal(t, [3]uint32{r1, g1, b1}, [3]uint32{r2, g2, b2}, "pixel %v", pt)
	}
}

func TestResizeBlanksAndRescales(t *testing.T) {
	s := NewSurface(extent, 0, 0)
	require.NoError(t, s.DrawSegment(state.Point{X: 0, Y: 50}, state.Point{X: 100, Y: 50}, "black", 8))
	require.NoError(t, s.Resize(50, 50))

	w, h := s.Size()
	assert.Equal(t, 50, w)
	assert.Equal(t, 50, h)
	assert.True(t, isBackground(s.Pixel(25, 25)))
	assert.Error(t, s.Resize(0, 10))
}

func TestRedrawMatchesIncrementalRendering(t *testing.T) {
	history := state.NewHistory()
	live := NewSurface(extent, 0, 0)

	strokes := []state.Stroke{
		{Path: []state.Point{{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 20, Y: 5}}, Color: "red", Width: 2},
		{Path: []state.Point{{X: 30, Y: 30}}, Color: "blue", Width: 4},
		{Path: []state.Point{{X: 40, Y: 80}, {X: 90, Y: 20}}, Color: "#00ff00", Width: 5},
	}
	for _, st := range strokes {
		history.AppendStroke(st)
		require.NoError(t, Replay(live, state.StrokeCommand(st)))
	}

	replayed := NewSurface(extent, 0, 0)
	require.NoError(t, Redraw(replayed, state.NewRemotePaths(), history))
	assert.Equal(t, live.Image().Pix, replayed.Image().Pix)
}

func TestRedrawAppliesClearCommands(t *testing.T) {
	history := state.NewHistory()
	history.Replace([]state.Command{
		state.StrokeCommand(state.Stroke{Path: []state.Point{{X: 0, Y: 50}, {X: 100, Y: 50}}, Color: "black", Width: 6}),
		state.ClearCommand(),
	})
	s := NewSurface(extent, 0, 0)
	require.NoError(t, Redraw(s, nil, history))
	assert.True(t, isBackground(s.Pixel(50, 50)))
}

func TestRedrawIncludesOpenRemotePaths(t *testing.T) {
	remote := state.NewRemotePaths()
	remote.Begin("peer", state.TaggedPoint{Point: state.Point{X: 10, Y: 50}, Color: "black", Width: 6})
	remote.Extend("peer", state.TaggedPoint{Point: state.Point{X: 90, Y: 50}, Color: "black", Width: 6})

	s := NewSurface(extent, 0, 0)
	require.NoError(t, Redraw(s, remote, state.NewHistory()))
	assert.False(t, isBackground(s.Pixel(50, 50)))

	require.NoError(t, RedrawWithLocal(s, nil, nil, state.Stroke{
		Path: []state.Point{{X: 50, Y: 0}, {X: 50, Y: 100}}, Color: "black", Width: 6,
	}))
	assert.True(t, isBackground(s.Pixel(20, 50)))
	assert.False(t, isBackground(s.Pixel(50, 20)))
}
