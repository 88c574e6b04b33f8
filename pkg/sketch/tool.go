package sketch

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ToolKind selects how a stroke is composited onto the surface
type ToolKind int

const (
	// ToolPen paints opaque ink (source-over)
	ToolPen ToolKind = iota
	// ToolEraser clears to transparent (destination-out)
	ToolEraser
)

const (
	// DefaultPenWidth is the line width of the pen presets
	DefaultPenWidth = 2.0
	// EraserWidth is the fixed line width of the eraser
	EraserWidth = 20.0
	// MaxPenWidth caps the pen line width
	MaxPenWidth = 40.0
)

// Tool is the active drawing tool
type Tool struct {
	Kind  ToolKind
	Color color.NRGBA
	Width float64
}

var (
	PenBlack = Pen(color.NRGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xff}, DefaultPenWidth)
	PenRed   = Pen(color.NRGBA{R: 0xef, G: 0x44, B: 0x44, A: 0xff}, DefaultPenWidth)
	PenBlue  = Pen(color.NRGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff}, DefaultPenWidth)
)

// Pen returns a pen tool with the given colour and width
func Pen(c color.NRGBA, width float64) Tool {
	return Tool{Kind: ToolPen, Color: c, Width: width}
}

// Eraser returns the eraser tool
func Eraser() Tool {
	return Tool{Kind: ToolEraser, Width: EraserWidth}
}

// normalized returns the tool with defaults applied
func (t Tool) normalized() Tool {
	if t.Kind == ToolEraser {
		t.Width = EraserWidth
		return t
	}
	switch {
	case !(t.Width > 0):
		t.Width = DefaultPenWidth
	case t.Width > MaxPenWidth:
		t.Width = MaxPenWidth
	}
	return t
}

// ParseColor parses a colour in #rrggbb or #rgb notation
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q", s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}

	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// Device identifies the kind of pointer that produced an input event
type Device int

const (
	DeviceMouse Device = iota
	DeviceTouch
	DeviceStylus
)

// ParseDevice converts a pointer type name to a Device
func ParseDevice(s string) Device {
	switch strings.ToLower(s) {
	case "pen", "stylus":
		return DeviceStylus
	case "touch":
		return DeviceTouch
	}
	return DeviceMouse
}

// Mode gates stroke input. Modes are mutually exclusive.
type Mode int

const (
	ModeDraw Mode = iota
	ModeLocked
	ModePan
	ModeStylusOnly
)

func (m Mode) String() string {
	switch m {
	case ModeDraw:
		return "draw"
	case ModeLocked:
		return "locked"
	case ModePan:
		return "pan"
	case ModeStylusOnly:
		return "stylus_only"
	}
	return "unknown"
}

// ParseMode converts a mode name to a Mode
func ParseMode(s string) (Mode, error) {
	switch s {
	case "draw":
		return ModeDraw, nil
	case "locked":
		return ModeLocked, nil
	case "pan":
		return ModePan, nil
	case "stylus_only":
		return ModeStylusOnly, nil
	}
	return ModeDraw, fmt.Errorf("invalid mode: %s (valid: draw, locked, pan, stylus_only)", s)
}

// MarshalText implements encoding.TextMarshaler
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *Mode) UnmarshalText(b []byte) error {
	mode, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}
