package imageproc

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
)

const fontDPI = 72

var (
	defaultOnce sync.Once
	defaultFont *opentype.Font
)

func builtinFont() *opentype.Font {
	defaultOnce.Do(func() {
		f, err := opentype.Parse(gomono.TTF)
		if err == nil {
			defaultFont = f
		}
	})
	return defaultFont
}

// DefaultFace returns the embedded Go Mono face at size points. If even that fails to parse,
// the fixed 7x13 bitmap face is used.
func DefaultFace(size float64) font.Face {
	if f := builtinFont(); f != nil {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: fontDPI, Hinting: font.HintingFull})
		if err == nil {
			return face
		}
	}
	return basicfont.Face7x13
}

// LoadFace opens the font file at path. An empty path selects the default face.
// When path can't be used the default face is returned together with a *FontLoadWarning.
func LoadFace(path string, size float64) (font.Face, error) {
	if path == "" {
		return DefaultFace(size), nil
	}

	face, err := loadFaceFile(path, size)
	if err != nil {
		return DefaultFace(size), &FontLoadWarning{Path: path, Err: err}
	}
	return face, nil
}

func loadFaceFile(path string, size float64) (font.Face, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// большинство .ttf читается freetype, для OTF/CFF и коллекций идём в opentype
	if tt, ttErr := truetype.Parse(raw); ttErr == nil {
		return truetype.NewFace(tt, &truetype.Options{Size: size, DPI: fontDPI, Hinting: font.HintingFull}), nil
	}

	coll, err := opentype.ParseCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	if coll.NumFonts() == 0 {
		return nil, errors.New("font collection is empty")
	}

	f, err := coll.Font(0)
	if err != nil {
		return nil, fmt.Errorf("read first font of collection: %w", err)
	}

	return opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: fontDPI, Hinting: font.HintingFull})
}
