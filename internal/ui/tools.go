package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"LiveBoard/internal/board"
	lbcanvas "LiveBoard/internal/canvas"
)

// Swatches are the brush colors offered in the toolbar.
var Swatches = []string{"#000000", "#FF0000", "#00AA00", "#0000FF", "#FFAA00", "#AA00FF", "#00AAAA"}

type colorSwatch struct {
	widget.BaseWidget
	Color    string
	OnTapped func(string)
}

func newColorSwatch(hex string, tapped func(string)) *colorSwatch {
	s := &colorSwatch{Color: hex, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	c := lbcanvas.ParseColor(s.Color)
	rect := canvas.NewRectangle(color.NRGBA{R: channel(c.R), G: channel(c.G), B: channel(c.B), A: 255})
	rect.SetMinSize(fyne.NewSize(28, 28))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(*fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

func channel(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

// Toolbar holds the drawing controls. Every control posts a command to the
// engine; OnClear and OnExport let the window confirm or pick a file first.
type Toolbar struct {
	Slider   *widget.Slider
	Swatches []*colorSwatch

	post     func(any)
	OnClear  func()
	OnExport func()
}

func NewToolbar(post func(any)) *Toolbar {
	t := &Toolbar{post: post}
	t.Slider = widget.NewSlider(board.MinWidth, board.MaxWidth)
	t.Slider.Step = 1
	t.Slider.SetValue(board.DefaultWidth)
	t.Slider.OnChanged = func(v float64) { t.post(board.SetWidth{Width: v}) }

	for _, hex := range Swatches {
		t.Swatches = append(t.Swatches, newColorSwatch(hex, func(c string) {
			t.post(board.SetColor{Color: c})
		}))
	}
	return t
}

// Sync moves the slider to the engine's width without echoing a command.
func (t *Toolbar) Sync(v board.View) {
	if t.Slider.Value == v.Width {
		return
	}
	onChanged := t.Slider.OnChanged
	t.Slider.OnChanged = nil
	t.Slider.SetValue(v.Width)
	t.Slider.OnChanged = onChanged
}

func (t *Toolbar) Object() fyne.CanvasObject {
	tools := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentCreateIcon(), func() { t.post(board.SetTool{Tool: board.Brush}) }),
		widget.NewToolbarAction(theme.ContentRemoveIcon(), func() { t.post(board.SetTool{Tool: board.Eraser}) }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DeleteIcon(), func() {
			if t.OnClear != nil {
				t.OnClear()
			}
		}),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), func() {
			if t.OnExport != nil {
				t.OnExport()
			}
		}),
	)

	colors := container.NewHBox()
	for _, s := range t.Swatches {
		colors.Add(s)
	}

	return container.NewHBox(
		widget.NewLabel("Tool:"),
		tools,
		widget.NewSeparator(),
		widget.NewLabel("Color:"),
		colors,
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), t.Slider),
		layout.NewSpacer(),
	)
}
