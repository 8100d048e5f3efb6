package pipeline

import (
	"fmt"
	"os"
	"strings"

	"github.com/UnendingLoop/Watermarker/internal/model"
)

// Watermark kinds accepted by Resolve. KindAuto applies ResolveWatermark.
const (
	KindAuto  = "auto"
	KindText  = string(model.KindText)
	KindImage = string(model.KindImage)
)

// ResolveWatermark treats token as an image watermark when it names an existing regular
// file, and as literal text otherwise.
func ResolveWatermark(token string, style model.TextStyle) model.Watermark {
	if fi, err := os.Stat(token); err == nil && fi.Mode().IsRegular() {
		return model.ImageWatermark(token)
	}
	return model.TextWatermark(token, style)
}

// Resolve builds a watermark of an explicit kind; KindAuto or an empty kind falls back
// to ResolveWatermark.
func Resolve(kind, token string, style model.TextStyle) (model.Watermark, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindAuto:
		return ResolveWatermark(token, style), nil
	case KindText:
		return model.TextWatermark(token, style), nil
	case KindImage:
		return model.ImageWatermark(token), nil
	default:
		return model.Watermark{}, fmt.Errorf("%w: %q", model.ErrIncorrectKind, kind)
	}
}
