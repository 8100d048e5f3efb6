package imageproc

import (
	"image"
	"image/color"
	"image/color/palette"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// ColorMode is the pixel format family of a decoded source image.
type ColorMode int

const (
	ModeRGB ColorMode = iota
	ModeRGBA
	ModeGray
	ModeGray16
	ModePalette
	ModePaletteAlpha
)

var modeNames = map[ColorMode]string{
	ModeRGB:          "RGB",
	ModeRGBA:         "RGBA",
	ModeGray:         "L",
	ModeGray16:       "I;16",
	ModePalette:      "P",
	ModePaletteAlpha: "PA",
}

func (m ColorMode) String() string {
	return modeNames[m]
}

// HasAlpha reports whether the mode can carry transparency.
func (m ColorMode) HasAlpha() bool {
	return m == ModeRGBA || m == ModePaletteAlpha
}

// DetectMode classifies img by its concrete type. Sources that are nominally RGBA but
// fully opaque (PNG truecolor, 24-bit BMP) count as RGB.
func DetectMode(img image.Image) ColorMode {
	switch m := img.(type) {
	case *image.Gray:
		return ModeGray
	case *image.Gray16:
		return ModeGray16
	case *image.Paletted:
		for _, c := range m.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return ModePaletteAlpha
			}
		}
		return ModePalette
	case *image.NRGBA, *image.NRGBA64, *image.NYCbCrA, *image.Alpha, *image.Alpha16:
		return ModeRGBA
	}

	if o, ok := img.(interface{ Opaque() bool }); ok && !o.Opaque() {
		return ModeRGBA
	}
	return ModeRGB
}

// ToCanvas returns an NRGBA copy of img with its origin at (0, 0).
func ToCanvas(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}

// Flatten composites canvas over an opaque bg and returns an opaque RGBA image.
func Flatten(canvas *image.NRGBA, bg color.NRGBA) *image.RGBA {
	bg.A = 0xff
	b := canvas.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(dst, b, canvas, b.Min, draw.Over)
	return dst
}

// RestoreMode converts a working canvas back into the family of mode. Modes without
// alpha are flattened onto bg first.
func RestoreMode(canvas *image.NRGBA, mode ColorMode, bg color.NRGBA) image.Image {
	switch mode {
	case ModeRGBA:
		return canvas
	case ModePaletteAlpha:
		return quantize(canvas, alphaPalette())
	}

	flat := Flatten(canvas, bg)
	b := flat.Bounds()

	switch mode {
	case ModeGray:
		dst := image.NewGray(b)
		draw.Draw(dst, b, flat, b.Min, draw.Src)
		return dst
	case ModeGray16:
		dst := image.NewGray16(b)
		draw.Draw(dst, b, flat, b.Min, draw.Src)
		return dst
	case ModePalette:
		return quantize(flat, palette.WebSafe)
	default:
		return flat
	}
}

func quantize(src image.Image, p color.Palette) *image.Paletted {
	b := src.Bounds()
	dst := image.NewPaletted(b, p)
	draw.FloydSteinberg.Draw(dst, b, src, b.Min)
	return dst
}

func alphaPalette() color.Palette {
	p := make(color.Palette, 0, len(palette.WebSafe)+1)
	p = append(p, palette.WebSafe...)
	return append(p, color.NRGBA{})
}
