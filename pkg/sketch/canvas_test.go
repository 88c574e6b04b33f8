package sketch

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drawLine(t *testing.T, c *Canvas, tool Tool, from, to Point) {
	t.Helper()
	require.True(t, c.BeginStroke(from, tool, DeviceMouse))
	require.True(t, c.ExtendStroke(Point{X: (from.X + to.X) / 2, Y: (from.Y + to.Y) / 2}))
	require.True(t, c.ExtendStroke(to))
	require.True(t, c.EndStroke())
}

func TestNewCanvas_Defaults(t *testing.T) {
	c := NewCanvas(CanvasOptions{})

	assert.Equal(t, DefaultWidth, c.Width())
	assert.Equal(t, DefaultHeight, c.Height())
	assert.Equal(t, 1, c.HistoryLen())
	assert.Equal(t, 0, c.Cursor())
	assert.False(t, c.CanUndo())

	snap := c.Snapshot()
	assert.Equal(t, color.RGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff}, snap.RGBAAt(0, 0), "grid line at origin")
	assert.Equal(t, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, snap.RGBAAt(20, 20), "paper between grid lines")
	assert.Equal(t, color.RGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff}, snap.RGBAAt(40, 17), "vertical grid line")
}

func TestPenStrokePaintsInk(t *testing.T) {
	c := NewCanvas(CanvasOptions{})
	drawLine(t, c, PenBlack, Point{X: 100, Y: 50}, Point{X: 110, Y: 50})

	px := c.Snapshot().RGBAAt(105, 49)
	assert.Less(t, px.R, uint8(32), "expected dark ink, got %v", px)
	assert.Equal(t, uint8(0xff), px.A)

	assert.Equal(t, 2, c.HistoryLen())
	assert.True(t, c.CanUndo())
}

func TestUndoRoundTrip(t *testing.T) {
	c := NewCanvas(CanvasOptions{})
	initial := c.Snapshot()

	strokes := []struct {
		tool     Tool
		from, to Point
	}{
		{PenBlack, Point{X: 10, Y: 10}, Point{X: 300, Y: 200}},
		{PenRed, Point{X: 500, Y: 20}, Point{X: 520, Y: 380}},
		{Eraser(), Point{X: 0, Y: 100}, Point{X: 900, Y: 120}},
		{PenBlue, Point{X: 700, Y: 300}, Point{X: 701, Y: 301}},
	}
	for _, s := range strokes {
		drawLine(t, c, s.tool, s.from, s.to)
	}
	require.NotEqual(t, initial.Pix, c.Snapshot().Pix)

	for range strokes {
		require.True(t, c.Undo())
	}

	assert.Equal(t, initial.Pix, c.Snapshot().Pix)
	assert.False(t, c.Undo(), "undo at the oldest snapshot is a no-op")
	assert.Equal(t, initial.Pix, c.Snapshot().Pix)
}

func TestUndoTruncatesRedoHistory(t *testing.T) {
	c := NewCanvas(CanvasOptions{})
	initial := c.Snapshot()

	drawLine(t, c, PenBlack, Point{X: 100, Y: 100}, Point{X: 200, Y: 100}) // A
	afterA := c.Snapshot()
	require.True(t, c.Undo())

	drawLine(t, c, PenRed, Point{X: 100, Y: 300}, Point{X: 200, Y: 300}) // B
	assert.Equal(t, 2, c.HistoryLen(), "stroke A must have been discarded")
	assert.False(t, c.CanRedo())

	require.True(t, c.Undo())
	assert.Equal(t, initial.Pix, c.Snapshot().Pix)
	assert.NotEqual(t, afterA.Pix, c.Snapshot().Pix)

	require.True(t, c.Redo())
	px := c.Snapshot().RGBAAt(150, 299)
	assert.Equal(t, uint8(0xef), px.R, "redo restores stroke B, got %v", px)
}

func TestCoordinateScaling(t *testing.T) {
	c := NewCanvas(CanvasOptions{})
	initial := c.Snapshot()

	// Displayed at twice the internal resolution.
	c.SetDisplaySize(2*float64(DefaultWidth), 2*float64(DefaultHeight))

	assert.Equal(t, Point{X: 100, Y: 50}, c.ToSurface(Point{X: 200, Y: 100}))

	drawLine(t, c, PenBlack, Point{X: 210, Y: 100}, Point{X: 230, Y: 100})

	snap := c.Snapshot()
	assert.Less(t, snap.RGBAAt(110, 49).R, uint8(32), "stroke lands at half the display coordinate")
	assert.Equal(t, initial.RGBAAt(220, 99), snap.RGBAAt(220, 99), "nothing painted at the unscaled coordinate")

	c.SetDisplaySize(0, 0)
	assert.Equal(t, Point{X: 7, Y: 9}, c.ToSurface(Point{X: 7, Y: 9}))
}

func TestLockedModeGate(t *testing.T) {
	c := NewCanvas(CanvasOptions{})
	drawLine(t, c, PenBlack, Point{X: 10, Y: 10}, Point{X: 50, Y: 50})
	before := c.Snapshot()

	c.SetMode(ModeLocked)

	assert.False(t, c.BeginStroke(Point{X: 100, Y: 100}, PenBlack, DeviceStylus))
	assert.False(t, c.ExtendStroke(Point{X: 200, Y: 200}))
	assert.False(t, c.EndStroke())
	assert.False(t, c.Undo(), "undo is disabled while locked")
	assert.False(t, c.CanUndo())

	assert.Equal(t, 2, c.HistoryLen())
	assert.Equal(t, before.Pix, c.Snapshot().Pix)

	c.SetMode(ModeDraw)
	assert.True(t, c.Undo())
}

func TestPanAndStylusOnlyModes(t *testing.T) {
	c := NewCanvas(CanvasOptions{})

	c.SetMode(ModePan)
	assert.False(t, c.BeginStroke(Point{X: 1, Y: 1}, PenBlack, DeviceStylus))

	c.SetMode(ModeStylusOnly)
	assert.False(t, c.BeginStroke(Point{X: 1, Y: 1}, PenBlack, DeviceTouch))
	assert.False(t, c.BeginStroke(Point{X: 1, Y: 1}, PenBlack, DeviceMouse))
	assert.True(t, c.BeginStroke(Point{X: 1, Y: 1}, PenBlack, DeviceStylus))
	assert.True(t, c.EndStroke())
	assert.Equal(t, 2, c.HistoryLen())
}

func TestEraserClearsToTransparent(t *testing.T) {
	c := NewCanvas(CanvasOptions{})
	drawLine(t, c, PenBlack, Point{X: 100, Y: 50}, Point{X: 110, Y: 50})
	drawLine(t, c, Eraser(), Point{X: 90, Y: 50}, Point{X: 120, Y: 50})

	snap := c.Snapshot()
	assert.Equal(t, color.RGBA{}, snap.RGBAAt(105, 49), "ink removed, not painted white")
	assert.Equal(t, color.RGBA{}, snap.RGBAAt(95, 45), "paper inside the eraser is cleared as well")
	assert.Equal(t, uint8(0xff), snap.RGBAAt(95, 80).A, "outside the eraser width stays opaque")

	require.True(t, c.Undo())
	assert.Less(t, c.Snapshot().RGBAAt(105, 49).R, uint8(32), "undo recovers the erased ink")
}

func TestEraserWidthIsFixed(t *testing.T) {
	tool := Tool{Kind: ToolEraser, Width: 1}.normalized()
	assert.Equal(t, EraserWidth, tool.Width)

	pen := Tool{Kind: ToolPen}.normalized()
	assert.Equal(t, DefaultPenWidth, pen.Width)

	wide := Pen(color.NRGBA{A: 0xff}, 1e9).normalized()
	assert.Equal(t, MaxPenWidth, wide.Width)
}

func TestSegmentMaskIsClippedToSurface(t *testing.T) {
	c := NewCanvas(CanvasOptions{})
	surface := image.Rect(0, 0, c.Width(), c.Height())

	mask, offset := rasterizeSegment(c.raster, Point{X: 10, Y: 10}, Point{X: 20000, Y: 20000}, MaxPenWidth, surface)
	assert.True(t, mask.Rect.Add(offset).In(surface), "mask %v at %v exceeds surface", mask.Rect, offset)

	mask, _ = rasterizeSegment(c.raster, Point{X: -5000, Y: -5000}, Point{X: -4000, Y: -6000}, MaxPenWidth, surface)
	assert.True(t, mask.Rect.Empty())

	require.True(t, c.BeginStroke(Point{X: 10, Y: 10}, PenBlack, DeviceMouse))
	require.True(t, c.ExtendStroke(Point{X: 20000, Y: 20000}))
	require.True(t, c.EndStroke())

	snap := c.Snapshot()
	assert.Less(t, snap.RGBAAt(100, 100).R, uint8(32), "visible part of the segment is painted")
	assert.Equal(t, 2, c.HistoryLen())
}

func TestClearIsUndoable(t *testing.T) {
	c := NewCanvas(CanvasOptions{})
	initial := c.Snapshot()
	drawLine(t, c, PenBlack, Point{X: 10, Y: 10}, Point{X: 90, Y: 90})
	drawn := c.Snapshot()

	c.Clear()
	assert.Equal(t, initial.Pix, c.Snapshot().Pix)
	assert.Equal(t, 3, c.HistoryLen())

	require.True(t, c.Undo())
	assert.Equal(t, drawn.Pix, c.Snapshot().Pix)
}

func TestRestoreSeedsHistory(t *testing.T) {
	src := NewCanvas(CanvasOptions{})
	drawLine(t, src, PenBlue, Point{X: 300, Y: 200}, Point{X: 400, Y: 220})

	var buf bytes.Buffer
	require.NoError(t, src.EncodePNG(&buf))
	img, err := png.Decode(&buf)
	require.NoError(t, err)

	c := NewCanvas(CanvasOptions{})
	drawLine(t, c, PenBlack, Point{X: 1, Y: 1}, Point{X: 5, Y: 5})
	c.Restore(img)

	assert.Equal(t, 1, c.HistoryLen())
	assert.Equal(t, 0, c.Cursor())
	assert.Equal(t, src.Snapshot().Pix, c.Snapshot().Pix)
	assert.False(t, c.Undo())
}

func TestRestoreSmallerImageLeavesTransparentArea(t *testing.T) {
	small := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for i := range small.Pix {
		small.Pix[i] = 0xff
	}

	c := NewCanvas(CanvasOptions{Width: 20, Height: 20})
	c.Restore(small)

	snap := c.Snapshot()
	assert.Equal(t, uint8(0xff), snap.RGBAAt(5, 5).A)
	assert.Equal(t, uint8(0), snap.RGBAAt(15, 15).A)
}

func TestCancelStrokeDiscardsPaint(t *testing.T) {
	c := NewCanvas(CanvasOptions{})
	initial := c.Snapshot()

	require.True(t, c.BeginStroke(Point{X: 10, Y: 10}, PenBlack, DeviceMouse))
	require.True(t, c.ExtendStroke(Point{X: 200, Y: 200}))
	c.CancelStroke()

	assert.False(t, c.Stroking())
	assert.Equal(t, 1, c.HistoryLen())
	assert.Equal(t, initial.Pix, c.Snapshot().Pix)
}

func TestExtendWithoutStroke(t *testing.T) {
	c := NewCanvas(CanvasOptions{})
	assert.False(t, c.ExtendStroke(Point{X: 1, Y: 1}))
	assert.False(t, c.EndStroke())
	assert.Equal(t, 1, c.HistoryLen())
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#ef4444")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0xef, G: 0x44, B: 0x44, A: 0xff}, c)

	c, err = ParseColor("fff")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, c)

	_, err = ParseColor("#12345")
	assert.Error(t, err)
	_, err = ParseColor("#zzzzzz")
	assert.Error(t, err)
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeDraw, ModeLocked, ModePan, ModeStylusOnly} {
		parsed, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}
	_, err := ParseMode("scroll")
	assert.Error(t, err)
}
