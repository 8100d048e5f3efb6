package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

type (
	Position      string
	WatermarkKind string
)

const (
	PosTopLeft     Position = "top_left"
	PosTopRight    Position = "top_right"
	PosBottomLeft  Position = "bottom_left"
	PosBottomRight Position = "bottom_right"
	PosCenter      Position = "center"
	PosTile        Position = "tile"
	PosDiagonal    Position = "diagonal"
)

var PositionsMap = map[Position]bool{
	PosTopLeft:     true,
	PosTopRight:    true,
	PosBottomLeft:  true,
	PosBottomRight: true,
	PosCenter:      true,
	PosTile:        true,
	PosDiagonal:    true,
}

// ParsePosition accepts positions case-insensitively, with '-' as an alias for '_'.
func ParsePosition(s string) (Position, error) {
	p := Position(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !PositionsMap[p] {
		return "", fmt.Errorf("%w: %q", ErrIncorrectPosition, s)
	}
	return p, nil
}

// Repeated reports whether the position tiles the watermark over the whole canvas.
func (p Position) Repeated() bool {
	return p == PosTile || p == PosDiagonal
}

const (
	KindText  WatermarkKind = "text"
	KindImage WatermarkKind = "image"
)

//---------------------

// Placement describes where and how a watermark layer lands on the source image.
type Placement struct {
	Position  Position `json:"position"`
	Margin    int      `json:"margin"`
	Spacing   int      `json:"spacing"`
	Rotation  float64  `json:"rotation"`
	Opacity   float64  `json:"opacity"`
	SizeRatio float64  `json:"size_ratio"`
}

// Allowed ranges, enforced by the CLI and the API before anything reaches the pipeline.
const (
	MinOpacity   = 0.1
	MaxOpacity   = 1.0
	MinSizeRatio = 0.05
	MaxSizeRatio = 1.0
	MinRotation  = -180
	MaxRotation  = 180
	MaxSpacing   = 200
	MaxMargin    = 100
)

func DefaultPlacement() Placement {
	return Placement{
		Position:  PosTile,
		Margin:    20,
		Spacing:   50,
		Rotation:  45,
		Opacity:   0.5,
		SizeRatio: 0.2,
	}
}

func (p Placement) Validate() error {
	switch {
	case !PositionsMap[p.Position]:
		return fmt.Errorf("%w: %q", ErrIncorrectPosition, p.Position)
	case !inRange(p.Opacity, MinOpacity, MaxOpacity):
		return fmt.Errorf("%w: opacity %v not in [%v, %v]", ErrIncorrectPlacement, p.Opacity, MinOpacity, MaxOpacity)
	case !inRange(p.SizeRatio, MinSizeRatio, MaxSizeRatio):
		return fmt.Errorf("%w: size ratio %v not in [%v, %v]", ErrIncorrectPlacement, p.SizeRatio, MinSizeRatio, MaxSizeRatio)
	case !inRange(p.Rotation, MinRotation, MaxRotation):
		return fmt.Errorf("%w: rotation %v not in [%d, %d]", ErrIncorrectPlacement, p.Rotation, MinRotation, MaxRotation)
	case p.Spacing < 0 || p.Spacing > MaxSpacing:
		return fmt.Errorf("%w: spacing %d not in [0, %d]", ErrIncorrectPlacement, p.Spacing, MaxSpacing)
	case p.Margin < 0 || p.Margin > MaxMargin:
		return fmt.Errorf("%w: margin %d not in [0, %d]", ErrIncorrectPlacement, p.Margin, MaxMargin)
	}
	return nil
}

// inRange is false for NaN, so non-finite values never pass.
func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

func (p *Placement) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("invalid type for Placement")
	}
	if err := json.Unmarshal(b, p); err != nil {
		return fmt.Errorf("failed to unmarshal JSONB to Placement: %w", err)
	}
	return nil
}

func (p Placement) Value() (driver.Value, error) {
	res, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal Placement to JSONB: %w", err)
	}
	return res, nil
}

//---------------------

// TextStyle is the look of a text watermark. FontSize 0 means "derive from the image".
type TextStyle struct {
	FontPath string
	FontSize int
	Color    color.NRGBA
}

// Watermark is either a text or an image watermark; the kind is always explicit.
type Watermark struct {
	Kind      WatermarkKind
	Text      string
	ImagePath string
	Style     TextStyle
}

func TextWatermark(text string, style TextStyle) Watermark {
	return Watermark{Kind: KindText, Text: text, Style: style}
}

func ImageWatermark(path string) Watermark {
	return Watermark{Kind: KindImage, ImagePath: path}
}

//---------------------

var namedColors = map[string]color.NRGBA{
	"white": {R: 255, G: 255, B: 255, A: 255},
	"black": {A: 255},
	"red":   {R: 255, A: 255},
	"green": {G: 255, A: 255},
	"blue":  {B: 255, A: 255},
	"gray":  {R: 128, G: 128, B: 128, A: 255},
}

// ParseColor understands the named colors above and #RRGGBB. An empty string is white.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return namedColors["white"], nil
	}
	if c, ok := namedColors[s]; ok {
		return c, nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrIncorrectColor, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrIncorrectColor, s)
	}

	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
