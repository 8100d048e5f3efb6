package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// SupportedExtensions lists the lower-case extensions the pipeline reads and writes.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tiff", ".tif", ".webp", ".gif"}

// IsSupported reports whether the file extension of path is one of SupportedExtensions.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// EncodeOptions carries quality settings for the lossy output formats.
type EncodeOptions struct {
	JPEGQuality int
	WebPQuality int
}

var DefaultEncodeOptions = EncodeOptions{JPEGQuality: 95, WebPQuality: 95}

// Open decodes the first frame of the image at path without touching its pixel format.
func Open(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return img, nil
}

// Encode writes img to w in the format given by the file extension ext.
func Encode(w io.Writer, img image.Image, ext string, opts EncodeOptions) error {
	if strings.EqualFold(strings.TrimPrefix(ext, "."), "webp") {
		return webp.Encode(w, img, &webp.Options{Quality: float32(opts.WebPQuality)})
	}

	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return err
	}

	return imaging.Encode(w, img, format, imaging.JPEGQuality(opts.JPEGQuality))
}

// Save encodes img by the extension of path and writes it, creating parent directories.
// The file is only created once encoding succeeded.
func Save(img image.Image, path string, opts EncodeOptions) error {
	var buf bytes.Buffer
	if err := Encode(&buf, img, filepath.Ext(path), opts); err != nil {
		return &WriteError{Path: path, Err: fmt.Errorf("encode: %w", err)}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &WriteError{Path: path, Err: err}
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
