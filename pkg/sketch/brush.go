package sketch

import (
	"image"
	"math"

	"golang.org/x/image/vector"
)

// kappa is the cubic Bézier control distance for a quarter circle
const kappa = 0.5522847498

// segmentBounds returns the pixel rectangle touched by a round-capped
// segment, clipped to clip
func segmentBounds(a, b Point, radius float64, clip image.Rectangle) image.Rectangle {
	minX := clampCoord(math.Floor(math.Min(a.X, b.X)-radius-1), clip.Min.X, clip.Max.X)
	minY := clampCoord(math.Floor(math.Min(a.Y, b.Y)-radius-1), clip.Min.Y, clip.Max.Y)
	maxX := clampCoord(math.Ceil(math.Max(a.X, b.X)+radius+1), clip.Min.X, clip.Max.X)
	maxY := clampCoord(math.Ceil(math.Max(a.Y, b.Y)+radius+1), clip.Min.Y, clip.Max.Y)
	return image.Rect(minX, minY, maxX, maxY)
}

// clampCoord limits v to [lo, hi] before converting, NaN maps to lo
func clampCoord(v float64, lo, hi int) int {
	if !(v > float64(lo)) {
		return lo
	}
	if v > float64(hi) {
		return hi
	}
	return int(v)
}

// rasterizeSegment returns the anti-aliased coverage of a line from a to b
// with the given width and round caps, limited to clip. The returned mask is
// positioned at the origin; its offset in surface coordinates is the second
// return value.
func rasterizeSegment(z *vector.Rasterizer, a, b Point, width float64, clip image.Rectangle) (*image.Alpha, image.Point) {
	radius := width / 2
	bounds := segmentBounds(a, b, radius, clip)
	origin := bounds.Min
	if bounds.Empty() {
		return image.NewAlpha(image.Rectangle{}), origin
	}

	w, h := bounds.Dx(), bounds.Dy()
	mask := image.NewAlpha(image.Rect(0, 0, w, h))

	// Local coordinates relative to the mask origin.
	la := Point{X: a.X - float64(origin.X), Y: a.Y - float64(origin.Y)}
	lb := Point{X: b.X - float64(origin.X), Y: b.Y - float64(origin.Y)}

	z.Reset(w, h)
	addCircle(z, la, radius)
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	if la != lb {
		z.Reset(w, h)
		addCircle(z, lb, radius)
		z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

		dx, dy := lb.X-la.X, lb.Y-la.Y
		length := math.Hypot(dx, dy)
		nx, ny := -dy/length*radius, dx/length*radius

		z.Reset(w, h)
		z.MoveTo(float32(la.X+nx), float32(la.Y+ny))
		z.LineTo(float32(lb.X+nx), float32(lb.Y+ny))
		z.LineTo(float32(lb.X-nx), float32(lb.Y-ny))
		z.LineTo(float32(la.X-nx), float32(la.Y-ny))
		z.ClosePath()
		z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	}

	return mask, origin
}

// addCircle appends a closed circle path to z
func addCircle(z *vector.Rasterizer, c Point, r float64) {
	k := r * kappa
	x, y := float32(c.X), float32(c.Y)
	fr, fk := float32(r), float32(k)

	z.MoveTo(x+fr, y)
	z.CubeTo(x+fr, y+fk, x+fk, y+fr, x, y+fr)
	z.CubeTo(x-fk, y+fr, x-fr, y+fk, x-fr, y)
	z.CubeTo(x-fr, y-fk, x-fk, y-fr, x, y-fr)
	z.CubeTo(x+fk, y-fr, x+fr, y-fk, x+fr, y)
	z.ClosePath()
}
