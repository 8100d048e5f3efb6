package imageproc

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

// inkBox returns the bounding box of pixels with non-zero alpha.
func inkBox(img *image.NRGBA) image.Rectangle {
	var box image.Rectangle
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.NRGBAAt(x, y).A == 0 {
				continue
			}
			box = box.Union(image.Rect(x, y, x+1, y+1))
		}
	}
	return box
}

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(img, path))
	return path
}

func TestBuildTextWatermarkCentered(t *testing.T) {
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 128}

	layer, err := BuildTextWatermark("Confidential", image.Pt(400, 200), TextOptions{FontSize: 24, Color: white})
	require.NoError(t, err)
	require.Equal(t, image.Pt(400, 200), layer.Bounds().Size())

	box := inkBox(layer)
	require.False(t, box.Empty(), "text was not drawn")

	cx := (box.Min.X + box.Max.X) / 2
	cy := (box.Min.Y + box.Max.Y) / 2
	require.InDelta(t, 200, cx, 3)
	require.InDelta(t, 100, cy, 3)
}

func TestBuildTextWatermarkRotated(t *testing.T) {
	opts := TextOptions{FontSize: 16, Color: color.NRGBA{A: 255}, Rotation: 90}

	layer, err := BuildTextWatermark("ok", image.Pt(120, 40), opts)
	require.NoError(t, err)
	require.Equal(t, image.Pt(40, 120), layer.Bounds().Size())

	opts.Rotation = 30
	layer, err = BuildTextWatermark("ok", image.Pt(120, 40), opts)
	require.NoError(t, err)
	require.Greater(t, layer.Bounds().Dx(), 120)
	require.Greater(t, layer.Bounds().Dy(), 40)
}

func TestBuildTextWatermarkFontFallback(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.ttf")
	require.NoError(t, os.WriteFile(broken, []byte("not a font"), 0o644))

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "nope.ttf")},
		{"not a font", broken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layer, err := BuildTextWatermark("fallback", image.Pt(200, 50), TextOptions{
				FontSize: 14,
				Color:    color.NRGBA{R: 255, A: 255},
				FontPath: tt.path,
			})

			var warn *FontLoadWarning
			require.True(t, errors.As(err, &warn))
			require.Equal(t, tt.path, warn.Path)
			require.NotNil(t, layer)
			require.False(t, inkBox(layer).Empty())
		})
	}
}

func TestBuildImageWatermarkResizesToTarget(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "logo.png", gradient(200, 100))

	// 1000x800 source with ratio 0.2
	layer, err := BuildImageWatermark(path, image.Pt(200, 160), 1, 0)
	require.NoError(t, err)
	require.Equal(t, image.Pt(200, 160), layer.Bounds().Size())
}

func TestBuildImageWatermarkScalesAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 20, 10))
	for y := 0; y < 10; y++ {
		for x := 10; x < 20; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	path := writePNG(t, t.TempDir(), "half.png", src)

	layer, err := BuildImageWatermark(path, image.Pt(20, 10), 0.5, 0)
	require.NoError(t, err)

	require.Equal(t, uint8(0), layer.NRGBAAt(2, 5).A)
	require.Equal(t, uint8(128), layer.NRGBAAt(17, 5).A)
}

func TestBuildImageWatermarkOpaqueWithoutAlpha(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 8, 8))
	path := writePNG(t, t.TempDir(), "gray.png", gray)

	layer, err := BuildImageWatermark(path, image.Pt(8, 8), 1, 0)
	require.NoError(t, err)
	require.True(t, layer.Opaque())
}

func TestBuildImageWatermarkLoadErrors(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "corrupt.png")
	require.NoError(t, os.WriteFile(corrupt, []byte("definitely not png"), 0o644))

	for _, path := range []string{filepath.Join(dir, "missing.png"), corrupt} {
		layer, err := BuildImageWatermark(path, image.Pt(10, 10), 1, 0)
		require.Nil(t, layer)

		var loadErr *WatermarkLoadError
		require.True(t, errors.As(err, &loadErr))
		require.Equal(t, path, loadErr.Path)
	}
}
