// Package sketch implements the free-hand drawing surface of the measurement
// editor: pen and eraser strokes on a fixed-resolution graph-paper bitmap,
// with undo based on full raster snapshots.
//
// A Canvas is not safe for concurrent use; the editor serializes access.
package sketch

import (
	"image"
	"image/draw"
	"image/png"
	"io"

	"golang.org/x/image/vector"
)

const (
	DefaultWidth    = 960
	DefaultHeight   = 400
	DefaultGridSize = 40
)

// Point is a coordinate on the surface or on the display
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CanvasOptions configures a Canvas
type CanvasOptions struct {
	Width    int
	Height   int
	GridSize int
}

func (o CanvasOptions) withDefaults() CanvasOptions {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.GridSize == 0 {
		o.GridSize = DefaultGridSize
	}
	return o
}

// stroke is the uncommitted path between BeginStroke and EndStroke
type stroke struct {
	tool Tool
	last Point
	// coverage of the whole path so far, in surface coordinates
	mask *image.Alpha
	// surface content before the stroke started
	base *image.RGBA
}

// Canvas is the sketch drawing surface with its undo history
type Canvas struct {
	opts    CanvasOptions
	surface *image.RGBA

	// history holds immutable snapshots; cursor indexes the displayed one
	history []*image.RGBA
	cursor  int

	mode     Mode
	displayW float64
	displayH float64

	active *stroke
	raster *vector.Rasterizer
}

// NewCanvas creates a blank graph-paper canvas whose history contains the
// blank surface as snapshot zero
func NewCanvas(opts CanvasOptions) *Canvas {
	opts = opts.withDefaults()
	surface := newPaper(opts.Width, opts.Height, opts.GridSize)

	return &Canvas{
		opts:    opts,
		surface: surface,
		history: []*image.RGBA{cloneRGBA(surface)},
		cursor:  0,
		raster:  vector.NewRasterizer(0, 0),
	}
}

// Width returns the internal surface width
func (c *Canvas) Width() int { return c.opts.Width }

// Height returns the internal surface height
func (c *Canvas) Height() int { return c.opts.Height }

// Mode returns the current input mode
func (c *Canvas) Mode() Mode { return c.mode }

// SetMode switches the input mode. An active stroke is committed first.
func (c *Canvas) SetMode(m Mode) {
	if c.active != nil && m != c.mode {
		c.EndStroke()
	}
	c.mode = m
}

// SetDisplaySize sets the on-screen size of the surface. Input coordinates
// are scaled by surface size / display size. Zero disables scaling.
func (c *Canvas) SetDisplaySize(width, height float64) {
	c.displayW = width
	c.displayH = height
}

// ToSurface maps a display coordinate to a surface coordinate
func (c *Canvas) ToSurface(p Point) Point {
	if c.displayW > 0 {
		p.X = p.X * float64(c.opts.Width) / c.displayW
	}
	if c.displayH > 0 {
		p.Y = p.Y * float64(c.opts.Height) / c.displayH
	}
	return p
}

// Stroking reports whether a stroke is in progress
func (c *Canvas) Stroking() bool {
	return c.active != nil
}

// BeginStroke starts a path at p (display coordinates) with the given tool.
// It does nothing and returns false when the canvas is locked or in pan
// mode, or when stylus-only input is active and device is not a stylus.
func (c *Canvas) BeginStroke(p Point, tool Tool, device Device) bool {
	switch c.mode {
	case ModeLocked, ModePan:
		return false
	case ModeStylusOnly:
		if device != DeviceStylus {
			return false
		}
	}

	if c.active != nil {
		c.EndStroke()
	}

	c.active = &stroke{
		tool: tool.normalized(),
		last: c.ToSurface(p),
		mask: image.NewAlpha(c.surface.Rect),
		base: c.history[c.cursor],
	}
	return true
}

// ExtendStroke paints a segment from the last point to p (display
// coordinates). It returns false when no stroke is active.
func (c *Canvas) ExtendStroke(p Point) bool {
	s := c.active
	if s == nil {
		return false
	}

	next := c.ToSurface(p)
	seg, offset := rasterizeSegment(c.raster, s.last, next, s.tool.Width, c.surface.Rect)
	mergeMax(s.mask, seg, offset)

	dirty := seg.Rect.Add(offset)
	if s.tool.Kind == ToolEraser {
		compositeDestinationOut(c.surface, s.base, s.mask, dirty)
	} else {
		compositeOver(c.surface, s.base, s.mask, dirty, s.tool.Color)
	}

	s.last = next
	return true
}

// EndStroke finalizes the active stroke and pushes a full-surface snapshot,
// discarding any snapshots after the cursor. It returns false when no
// stroke is active.
func (c *Canvas) EndStroke() bool {
	if c.active == nil {
		return false
	}
	c.active = nil
	c.push()
	return true
}

// CancelStroke discards the active stroke and repaints the pre-stroke state
func (c *Canvas) CancelStroke() {
	if c.active == nil {
		return
	}
	copy(c.surface.Pix, c.active.base.Pix)
	c.active = nil
}

// Undo moves the history cursor back one snapshot and repaints the surface.
// It returns false at the oldest snapshot or while locked.
func (c *Canvas) Undo() bool {
	if c.mode == ModeLocked {
		return false
	}
	if c.active != nil {
		c.EndStroke()
	}
	if c.cursor == 0 {
		return false
	}
	c.cursor--
	copy(c.surface.Pix, c.history[c.cursor].Pix)
	return true
}

// Redo moves the history cursor forward one snapshot. It returns false at
// the newest snapshot or while locked.
func (c *Canvas) Redo() bool {
	if c.mode == ModeLocked || c.active != nil {
		return false
	}
	if c.cursor >= len(c.history)-1 {
		return false
	}
	c.cursor++
	copy(c.surface.Pix, c.history[c.cursor].Pix)
	return true
}

// CanUndo reports whether Undo would change the surface
func (c *Canvas) CanUndo() bool {
	return c.mode != ModeLocked && c.cursor > 0
}

// CanRedo reports whether Redo would change the surface
func (c *Canvas) CanRedo() bool {
	return c.mode != ModeLocked && c.cursor < len(c.history)-1
}

// Clear erases the surface to blank paper and records it as a snapshot
func (c *Canvas) Clear() {
	c.active = nil
	paintPaper(c.surface, c.opts.GridSize)
	c.push()
}

// Restore loads img as the surface content and resets the history so that
// img is snapshot zero. Areas not covered by img are transparent.
func (c *Canvas) Restore(img image.Image) {
	c.active = nil
	clear(c.surface.Pix)
	if img != nil {
		draw.Draw(c.surface, c.surface.Rect, img, img.Bounds().Min, draw.Src)
	}
	c.history = []*image.RGBA{cloneRGBA(c.surface)}
	c.cursor = 0
}

// HistoryLen returns the number of snapshots in the undo history
func (c *Canvas) HistoryLen() int {
	return len(c.history)
}

// Cursor returns the index of the displayed snapshot
func (c *Canvas) Cursor() int {
	return c.cursor
}

// Snapshot returns a copy of the surface as currently displayed
func (c *Canvas) Snapshot() *image.RGBA {
	return cloneRGBA(c.surface)
}

// EncodePNG writes the current surface as PNG
func (c *Canvas) EncodePNG(w io.Writer) error {
	return png.Encode(w, c.surface)
}

// push truncates redo states and appends the current surface
func (c *Canvas) push() {
	c.history = append(c.history[:c.cursor+1], cloneRGBA(c.surface))
	c.cursor = len(c.history) - 1
}
