package sketch

import (
	"image"
	"image/color"
	"image/draw"
)

var (
	// PaperColor is the background of a blank sketch
	PaperColor = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

	// GridColor is the colour of the graph-paper lines
	GridColor = color.NRGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff}
)

// newPaper returns a white surface with grid lines every gridSize pixels
func newPaper(width, height, gridSize int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	paintPaper(img, gridSize)
	return img
}

// paintPaper overwrites img with white paper and grid lines
func paintPaper(img *image.RGBA, gridSize int) {
	b := img.Bounds()
	draw.Draw(img, b, image.NewUniform(PaperColor), image.Point{}, draw.Src)

	if gridSize <= 0 {
		return
	}

	grid := image.NewUniform(GridColor)
	for x := b.Min.X; x < b.Max.X; x += gridSize {
		draw.Draw(img, image.Rect(x, b.Min.Y, x+1, b.Max.Y), grid, image.Point{}, draw.Src)
	}
	for y := b.Min.Y; y < b.Max.Y; y += gridSize {
		draw.Draw(img, image.Rect(b.Min.X, y, b.Max.X, y+1), grid, image.Point{}, draw.Src)
	}
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := &image.RGBA{
		Pix:    make([]uint8, len(src.Pix)),
		Stride: src.Stride,
		Rect:   src.Rect,
	}
	copy(dst.Pix, src.Pix)
	return dst
}

// copyRect copies r from src into dst. Both images must share bounds.
func copyRect(dst, src *image.RGBA, r image.Rectangle) {
	r = r.Intersect(dst.Rect)
	if r.Empty() {
		return
	}
	n := r.Dx() * 4
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := dst.PixOffset(r.Min.X, y)
		copy(dst.Pix[i:i+n], src.Pix[i:i+n])
	}
}

// compositeOver paints c through mask over base into dst (source-over).
// mask shares the surface coordinate space.
func compositeOver(dst, base *image.RGBA, mask *image.Alpha, r image.Rectangle, c color.NRGBA) {
	r = r.Intersect(dst.Rect).Intersect(mask.Rect)
	if r.Empty() {
		return
	}
	cr, cg, cb, ca := uint32(c.R), uint32(c.G), uint32(c.B), uint32(c.A)

	for y := r.Min.Y; y < r.Max.Y; y++ {
		mi := mask.PixOffset(r.Min.X, y)
		pi := dst.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x, mi, pi = x+1, mi+1, pi+4 {
			m := uint32(mask.Pix[mi])
			bp := base.Pix[pi : pi+4 : pi+4]
			dp := dst.Pix[pi : pi+4 : pi+4]
			if m == 0 {
				copy(dp, bp)
				continue
			}
			sa := ca * m / 0xff
			ia := 0xff - sa
			dp[0] = uint8((cr*sa + uint32(bp[0])*ia) / 0xff)
			dp[1] = uint8((cg*sa + uint32(bp[1])*ia) / 0xff)
			dp[2] = uint8((cb*sa + uint32(bp[2])*ia) / 0xff)
			dp[3] = uint8((0xff*sa + uint32(bp[3])*ia) / 0xff)
		}
	}
}

// compositeDestinationOut removes base content through mask into dst.
// Pixels fully covered by the mask become transparent.
func compositeDestinationOut(dst, base *image.RGBA, mask *image.Alpha, r image.Rectangle) {
	r = r.Intersect(dst.Rect).Intersect(mask.Rect)
	if r.Empty() {
		return
	}

	for y := r.Min.Y; y < r.Max.Y; y++ {
		mi := mask.PixOffset(r.Min.X, y)
		pi := dst.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x, mi, pi = x+1, mi+1, pi+4 {
			keep := 0xff - uint32(mask.Pix[mi])
			bp := base.Pix[pi : pi+4 : pi+4]
			dp := dst.Pix[pi : pi+4 : pi+4]
			dp[0] = uint8(uint32(bp[0]) * keep / 0xff)
			dp[1] = uint8(uint32(bp[1]) * keep / 0xff)
			dp[2] = uint8(uint32(bp[2]) * keep / 0xff)
			dp[3] = uint8(uint32(bp[3]) * keep / 0xff)
		}
	}
}

// mergeMax raises mask coverage to at least the coverage in src, where src
// is positioned at offset in mask coordinates.
func mergeMax(mask, src *image.Alpha, offset image.Point) {
	r := src.Rect.Add(offset).Intersect(mask.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			s := src.Pix[src.PixOffset(x-offset.X, y-offset.Y)]
			i := mask.PixOffset(x, y)
			if s > mask.Pix[i] {
				mask.Pix[i] = s
			}
		}
	}
}
