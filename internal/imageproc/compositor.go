package imageproc

import (
	"image"
	"image/color"
	"math"

	"github.com/UnendingLoop/Watermarker/internal/model"
	"github.com/disintegration/imaging"
)

// Composite overlays layer onto canvas according to pl.Position. The canvas is not mutated.
func Composite(canvas, layer *image.NRGBA, pl model.Placement) *image.NRGBA {
	switch pl.Position {
	case model.PosTile:
		return Tile(canvas, layer, pl.Spacing, 0)
	case model.PosDiagonal:
		return Tile(canvas, layer, pl.Spacing, pl.Rotation)
	default:
		return PlaceAt(canvas, layer, pl.Position, pl.Margin)
	}
}

// Anchor returns the top-left paste point of a layer of size layer on a canvas of size canvas.
// Unknown or repeated positions anchor like top_left.
func Anchor(canvas, layer image.Point, pos model.Position, margin int) image.Point {
	switch pos {
	case model.PosTopRight:
		return image.Pt(canvas.X-layer.X-margin, margin)
	case model.PosBottomLeft:
		return image.Pt(margin, canvas.Y-layer.Y-margin)
	case model.PosBottomRight:
		return image.Pt(canvas.X-layer.X-margin, canvas.Y-layer.Y-margin)
	case model.PosCenter:
		return image.Pt((canvas.X-layer.X)/2, (canvas.Y-layer.Y)/2)
	default:
		return image.Pt(margin, margin)
	}
}

// PlaceAt pastes layer once at the anchor of pos. Parts hanging off the canvas are clipped.
func PlaceAt(canvas, layer *image.NRGBA, pos model.Position, margin int) *image.NRGBA {
	dst := imaging.Clone(canvas)
	at := Anchor(dst.Bounds().Size(), layer.Bounds().Size(), pos, margin)
	over(dst, layer, at)
	return dst
}

// Tile repeats layer over the whole canvas with one tile of overscan on every side.
// A non-zero tilt rotates the layer before tiling.
func Tile(canvas, layer *image.NRGBA, spacing int, tilt float64) *image.NRGBA {
	unit := Rotate(layer, tilt)
	dst := imaging.Clone(canvas)

	cs := dst.Bounds().Size()
	ls := unit.Bounds().Size()
	if ls.X == 0 || ls.Y == 0 {
		return dst
	}

	xs := tileOrigins(ls.X, cs.X, ls.X+spacing)
	ys := tileOrigins(ls.Y, cs.Y, ls.Y+spacing)

	for _, y := range ys {
		if y >= cs.Y || y+ls.Y <= 0 {
			continue
		}
		for _, x := range xs {
			if x >= cs.X || x+ls.X <= 0 {
				continue
			}
			over(dst, unit, image.Pt(x, y))
		}
	}
	return dst
}

// tileOrigins lists origins in [-size, extent+size) with the given step.
func tileOrigins(size, extent, step int) []int {
	if step < 1 {
		step = 1
	}
	out := make([]int, 0, (extent+2*size)/step+1)
	for v := -size; v < extent+size; v += step {
		out = append(out, v)
	}
	return out
}

// Rotate turns layer counter-clockwise by deg, growing the bounds to fit.
// Zero returns the very same layer.
func Rotate(layer *image.NRGBA, deg float64) *image.NRGBA {
	if deg == 0 {
		return layer
	}
	return imaging.Rotate(layer, deg, color.Transparent)
}

// over blends src onto dst at offset with the straight-alpha source-over operator.
// Both images must have their origin at (0, 0).
func over(dst, src *image.NRGBA, at image.Point) {
	r := src.Bounds().Add(at).Intersect(dst.Bounds())
	if r.Empty() {
		return
	}

	for y := r.Min.Y; y < r.Max.Y; y++ {
		di := dst.PixOffset(r.Min.X, y)
		si := src.PixOffset(r.Min.X-at.X, y-at.Y)
		for x := r.Min.X; x < r.Max.X; x++ {
			s := src.Pix[si : si+4 : si+4]
			d := dst.Pix[di : di+4 : di+4]

			switch s[3] {
			case 0:
				// прозрачный пиксель слоя - канва не меняется
			case 0xff:
				copy(d, s)
			default:
				blend(d, s)
			}

			di += 4
			si += 4
		}
	}
}

func blend(d, s []uint8) {
	sa := float64(s[3]) / 255
	da := float64(d[3]) / 255
	rest := da * (1 - sa)
	oa := sa + rest

	for i := 0; i < 3; i++ {
		c := (float64(s[i])*sa + float64(d[i])*rest) / oa
		d[i] = clamp8(c)
	}
	d[3] = clamp8(oa * 255)
}

func clamp8(v float64) uint8 {
	v = math.Round(v)
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}
