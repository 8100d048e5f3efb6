// Package imageproc builds watermark layers, composites them onto images and handles
// decoding, color-mode round-trips and encoding.
package imageproc

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// TextOptions describe a text layer. Color.A already carries the opacity.
type TextOptions struct {
	FontSize float64
	Color    color.NRGBA
	FontPath string
	Rotation float64
}

// BuildTextWatermark renders text centered on a transparent layer of the given size and
// rotates it by opts.Rotation. The layer is always usable: a returned error is a
// *FontLoadWarning about the fallback font.
func BuildTextWatermark(text string, size image.Point, opts TextOptions) (*image.NRGBA, error) {
	face, warn := LoadFace(opts.FontPath, opts.FontSize)
	defer face.Close()

	layer := image.NewNRGBA(image.Rect(0, 0, size.X, size.Y))

	// центрируем по реальному bbox глифов, а не по advance
	bounds, _ := font.BoundString(face, text)
	tw := (bounds.Max.X - bounds.Min.X).Round()
	th := (bounds.Max.Y - bounds.Min.Y).Round()

	dot := fixed.Point26_6{
		X: fixed.I((size.X-tw)/2) - bounds.Min.X,
		Y: fixed.I((size.Y-th)/2) - bounds.Min.Y,
	}

	d := &font.Drawer{
		Dst:  layer,
		Src:  image.NewUniform(opts.Color),
		Face: face,
		Dot:  dot,
	}
	d.DrawString(text)

	return Rotate(layer, opts.Rotation), warn
}

// BuildImageWatermark loads the image at path, resizes it to exactly target, scales its
// alpha by opacity and rotates it.
func BuildImageWatermark(path string, target image.Point, opacity, rotation float64) (*image.NRGBA, error) {
	src, err := imaging.Open(path)
	if err != nil {
		return nil, &WatermarkLoadError{Path: path, Err: err}
	}

	layer := imaging.Resize(imaging.Clone(src), max(target.X, 1), max(target.Y, 1), imaging.Lanczos)
	scaleAlpha(layer, opacity)

	return Rotate(layer, rotation), nil
}

// scaleAlpha multiplies every alpha value by k, keeping the existing transparency pattern.
func scaleAlpha(img *image.NRGBA, k float64) {
	switch {
	case k >= 1:
		return
	case k < 0:
		k = 0
	}

	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = clamp8(float64(img.Pix[i]) * k)
	}
}
