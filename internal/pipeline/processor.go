// Package pipeline runs a single image, or a batch of them, through decode, watermark,
// composite, mode restore and encode.
package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/UnendingLoop/Watermarker/internal/imageproc"
	"github.com/UnendingLoop/Watermarker/internal/model"
	"github.com/rs/zerolog"
)

// Default font size is this share of the shorter image side.
const fontSizeRatio = 0.05

var white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

type Options struct {
	Background  color.NRGBA
	JPEGQuality int
	WebPQuality int
	DefaultFont string
}

// Processor watermarks images one at a time. It keeps no state between images
// and is safe for concurrent use.
type Processor struct {
	log         zerolog.Logger
	Background  color.NRGBA
	JPEGQuality int
	WebPQuality int
	DefaultFont string
}

func NewProcessor(log zerolog.Logger, opts Options) *Processor {
	p := &Processor{
		log:         log,
		Background:  opts.Background,
		JPEGQuality: opts.JPEGQuality,
		WebPQuality: opts.WebPQuality,
		DefaultFont: opts.DefaultFont,
	}

	if p.Background == (color.NRGBA{}) {
		p.Background = white
	}
	if p.JPEGQuality <= 0 || p.JPEGQuality > 100 {
		p.JPEGQuality = imageproc.DefaultEncodeOptions.JPEGQuality
	}
	if p.WebPQuality <= 0 || p.WebPQuality > 100 {
		p.WebPQuality = imageproc.DefaultEncodeOptions.WebPQuality
	}
	return p
}

// Process watermarks input and writes the result to output. Errors are *imageproc.DecodeError,
// *imageproc.WatermarkLoadError, *imageproc.WriteError or the context error.
func (p *Processor) Process(ctx context.Context, input, output string, wm model.Watermark, pl model.Placement) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := imageproc.Open(input)
	if err != nil {
		return err
	}
	mode := imageproc.DetectMode(src)
	canvas := imageproc.ToCanvas(src)
	size := canvas.Bounds().Size()

	layer, err := p.buildLayer(size, wm, pl)
	if err != nil {
		return err
	}

	result := imageproc.Composite(canvas, layer, pl)
	out := imageproc.RestoreMode(result, mode, p.Background)

	opts := imageproc.EncodeOptions{JPEGQuality: p.JPEGQuality, WebPQuality: p.WebPQuality}
	if err := imageproc.Save(out, output, opts); err != nil {
		return err
	}

	p.log.Debug().
		Str("input", input).
		Str("output", output).
		Str("mode", mode.String()).
		Str("position", string(pl.Position)).
		Msg("image watermarked")
	return nil
}

func (p *Processor) buildLayer(size image.Point, wm model.Watermark, pl model.Placement) (*image.NRGBA, error) {
	if wm.Kind == model.KindImage {
		return imageproc.BuildImageWatermark(wm.ImagePath, ImageTarget(size, pl.SizeRatio), pl.Opacity, pl.Rotation)
	}

	fill := wm.Style.Color
	if fill == (color.NRGBA{}) {
		fill = white
	}
	fill.A = opacityAlpha(pl.Opacity)

	fontPath := wm.Style.FontPath
	if fontPath == "" {
		fontPath = p.DefaultFont
	}

	layer, warn := imageproc.BuildTextWatermark(wm.Text, size, imageproc.TextOptions{
		FontSize: float64(FontSizeFor(size, wm.Style.FontSize)),
		Color:    fill,
		FontPath: fontPath,
		Rotation: pl.Rotation,
	})
	if warn != nil {
		p.log.Warn().Err(warn).Str("font", fontPath).Msg("falling back to default font")
	}
	return layer, nil
}

// ProcessOne is Process that never fails the caller: the outcome is logged and reported as a bool.
func (p *Processor) ProcessOne(ctx context.Context, input, output string, wm model.Watermark, pl model.Placement) bool {
	if err := p.Process(ctx, input, output, wm, pl); err != nil {
		p.log.Error().
			Err(err).
			Str("kind", ErrorKind(err)).
			Str("input", input).
			Msg("failed to watermark image")
		return false
	}

	p.log.Info().Str("input", input).Str("output", output).Msg("watermark applied")
	return true
}

// ErrorKind names the failure class of a Process error for logs and task records.
func ErrorKind(err error) string {
	var (
		decErr   *imageproc.DecodeError
		loadErr  *imageproc.WatermarkLoadError
		writeErr *imageproc.WriteError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &decErr):
		return "decode"
	case errors.As(err, &loadErr):
		return "watermark_load"
	case errors.As(err, &writeErr):
		return "write"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "unknown"
	}
}

// ImageTarget is the watermark size for an image watermark: each axis of size scaled by
// ratio independently, at least one pixel.
func ImageTarget(size image.Point, ratio float64) image.Point {
	return image.Pt(
		max(int(math.Round(float64(size.X)*ratio)), 1),
		max(int(math.Round(float64(size.Y)*ratio)), 1),
	)
}

// FontSizeFor returns override when positive, otherwise 5% of the shorter side.
func FontSizeFor(size image.Point, override int) int {
	if override > 0 {
		return override
	}
	return max(int(math.Round(float64(min(size.X, size.Y))*fontSizeRatio)), 1)
}

func opacityAlpha(opacity float64) uint8 {
	opacity = math.Max(0, math.Min(1, opacity))
	return uint8(math.Round(255 * opacity))
}
