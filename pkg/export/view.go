// Package export rasterizes the editor view into a single bitmap and
// encodes it as a PNG image or a single-page PDF document.
package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"time"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/AndreasQService/QToolKlone-sub000/pkg/models"
)

const (
	DefaultScale = 2
	MaxScale     = 4

	// maxPixels bounds the rendered bitmap
	maxPixels = 64 << 20

	minContentWidth = 640
	padding         = 20
	lineHeight      = 13
	rowHeight       = 24
	sectionGap      = 16
)

var (
	colorText   = color.RGBA{0x11, 0x18, 0x27, 0xff}
	colorMuted  = color.RGBA{0x6b, 0x72, 0x80, 0xff}
	colorBorder = color.RGBA{0xe5, 0xe7, 0xeb, 0xff}
	colorHeader = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
)

// fonts only cover ASCII
var asciiReplacer = strings.NewReplacer(
	"ä", "ae", "ö", "oe", "ü", "ue",
	"Ä", "Ae", "Ö", "Oe", "Ü", "Ue",
	"ß", "ss", "°", "",
)

// View is everything visible in the editor at save time
type View struct {
	Title        string
	ProjectTitle string
	RoomName     string
	Metadata     models.SessionMetadata
	Points       []models.MeasurementPoint
	Sketch       image.Image
	Created      time.Time
}

// Footer returns the footer line printed under the table
func (v View) Footer() string {
	created := v.Created
	if created.IsZero() {
		created = time.Now()
	}
	return "Erstellt mit Q-Tool | " + created.Format("02.01.2006")
}

func (v View) subtitle() string {
	var parts []string
	for _, s := range []string{v.ProjectTitle, v.RoomName, v.Title} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " / ")
}

// RenderOptions controls rasterization
type RenderOptions struct {
	// Scale is the integer pixel multiplier, DefaultScale when zero
	Scale int
}

type layout struct {
	width, height int
	sketch        image.Rectangle
	metaY         int
	tableY        int
	footerY       int
}

func computeLayout(v View) layout {
	sketchW, sketchH := 0, 0
	if v.Sketch != nil {
		sketchW, sketchH = v.Sketch.Bounds().Dx(), v.Sketch.Bounds().Dy()
	}

	l := layout{width: max(sketchW, minContentWidth) + 2*padding}

	y := padding + 2*lineHeight + 8 + sectionGap
	l.sketch = image.Rect(padding, y, padding+sketchW, y+sketchH)
	y += sketchH + sectionGap

	l.metaY = y
	y += lineHeight + 4 + rowHeight + sectionGap

	l.tableY = y
	y += rowHeight * (len(v.Points) + 1)
	y += sectionGap

	l.footerY = y
	l.height = y + lineHeight + padding
	return l
}

// Render rasterizes the whole editor view: header, sketch, metadata fields,
// measurement table and footer, on a white background.
func Render(v View, opts RenderOptions) (*image.RGBA, error) {
	scale := opts.Scale
	if scale == 0 {
		scale = DefaultScale
	}
	if scale < 1 || scale > MaxScale {
		return nil, fmt.Errorf("invalid render scale %d (valid: 1-%d)", scale, MaxScale)
	}

	l := computeLayout(v)
	if l.width*scale*l.height*scale > maxPixels {
		return nil, fmt.Errorf("rendered view too large: %dx%d", l.width*scale, l.height*scale)
	}

	base := image.NewRGBA(image.Rect(0, 0, l.width, l.height))
	draw.Draw(base, base.Bounds(), image.White, image.Point{}, draw.Src)

	contentW := l.width - 2*padding

	// header
	drawText(base, padding, padding, "Messprotokoll", colorText, contentW)
	drawText(base, padding, padding+lineHeight+4, v.subtitle(), colorMuted, contentW)
	hline(base, padding, l.width-padding, padding+2*lineHeight+8, colorBorder)

	// sketch; transparent (erased) pixels show the white background
	if v.Sketch != nil {
		draw.Draw(base, l.sketch, v.Sketch, v.Sketch.Bounds().Min, draw.Over)
		strokeRect(base, l.sketch.Inset(-1), colorBorder)
	}

	// metadata
	meta := []struct{ label, value string }{
		{"Datum", v.Metadata.Date},
		{"Raumtemp. (°C)", v.Metadata.Temperature},
		{"Luftfeuchte (%)", v.Metadata.Humidity},
		{"Messgerät", v.Metadata.DeviceName},
	}
	colW := contentW / len(meta)
	for i, m := range meta {
		x := padding + i*colW
		drawText(base, x, l.metaY, m.label, colorMuted, colW-8)
		box := image.Rect(x, l.metaY+lineHeight+4, x+colW-8, l.metaY+lineHeight+4+rowHeight)
		strokeRect(base, box, colorBorder)
		drawText(base, box.Min.X+6, box.Min.Y+(rowHeight-lineHeight)/2, m.value, colorText, box.Dx()-12)
	}

	// table
	cols := tableColumns(contentW)
	header := image.Rect(padding, l.tableY, l.width-padding, l.tableY+rowHeight)
	draw.Draw(base, header, image.NewUniform(colorHeader), image.Point{}, draw.Src)
	for i, title := range []string{"Messpunkt", "Wand", "Boden", "Bemerkung"} {
		drawText(base, cols[i].Min+8, l.tableY+(rowHeight-lineHeight)/2, title, colorMuted, cols[i].Max-cols[i].Min-16)
	}
	for r, p := range v.Points {
		top := l.tableY + (r+1)*rowHeight
		for i, value := range []string{p.PointName, p.WallValue, p.FloorValue, p.Notes} {
			drawText(base, cols[i].Min+8, top+(rowHeight-lineHeight)/2, value, colorText, cols[i].Max-cols[i].Min-16)
		}
		hline(base, padding, l.width-padding, top+rowHeight-1, colorBorder)
	}

	// footer
	footer := v.Footer()
	fx := padding + (contentW-textWidth(footer))/2
	drawText(base, max(fx, padding), l.footerY, footer, colorMuted, contentW)

	if scale == 1 {
		return base, nil
	}

	out := image.NewRGBA(image.Rect(0, 0, l.width*scale, l.height*scale))
	xdraw.NearestNeighbor.Scale(out, out.Bounds(), base, base.Bounds(), xdraw.Src, nil)
	return out, nil
}

type span struct{ Min, Max int }

// tableColumns splits the table width 30/20/20/rest
func tableColumns(width int) []span {
	w1 := width * 30 / 100
	w2 := width * 20 / 100
	x := padding
	cols := []span{
		{x, x + w1},
		{x + w1, x + w1 + w2},
		{x + w1 + w2, x + w1 + 2*w2},
		{x + w1 + 2*w2, x + width},
	}
	return cols
}

func textWidth(s string) int {
	return font.MeasureString(basicfont.Face7x13, asciiReplacer.Replace(s)).Ceil()
}

// drawText draws s with its top-left corner at (x, y), cut to maxW pixels
func drawText(dst draw.Image, x, y int, s string, c color.Color, maxW int) {
	s = asciiReplacer.Replace(s)
	if s == "" || maxW <= 0 {
		return
	}

	face := basicfont.Face7x13
	if textWidth(s) > maxW {
		chars := maxW / face.Advance
		if chars <= 3 {
			return
		}
		s = string([]rune(s)[:chars-3]) + "..."
	}

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y+face.Ascent),
	}
	d.DrawString(s)
}

func hline(dst *image.RGBA, x0, x1, y int, c color.Color) {
	draw.Draw(dst, image.Rect(x0, y, x1, y+1), image.NewUniform(c), image.Point{}, draw.Src)
}

func strokeRect(dst *image.RGBA, r image.Rectangle, c color.Color) {
	u := image.NewUniform(c)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
}
