package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/UnendingLoop/Watermarker/internal/model"
	"github.com/UnendingLoop/Watermarker/internal/mwlogger"
	"github.com/spf13/cast"
)

func errorCodeDefiner(err error) int {
	switch {
	case errors.Is(err, model.ErrCommon500):
		return 500
	case errors.Is(err, model.ErrTaskNotFound),
		errors.Is(err, model.ErrResultNotReady):
		return 404
	case errors.Is(err, model.ErrIncorrectQuery),
		errors.Is(err, model.ErrIncorrectID),
		errors.Is(err, model.ErrEmptySource),
		errors.Is(err, model.ErrEmptyWMark),
		errors.Is(err, model.ErrIncorrectPosition),
		errors.Is(err, model.ErrIncorrectPlacement),
		errors.Is(err, model.ErrIncorrectColor),
		errors.Is(err, model.ErrIncorrectKind),
		errors.Is(err, model.ErrIncorrectStatus),
		errors.Is(err, model.ErrUnsupportedWMFormat),
		errors.Is(err, model.ErrUnsupportedFormat):
		return 400
	default:
		return 500
	}
}

// parsePlacement reads placement fields from a form; absent fields keep their defaults.
// Range checks are left to the service.
func parsePlacement(form func(string) string) (model.Placement, int, error) {
	pl := model.DefaultPlacement()

	if v := form("position"); v != "" {
		pos, err := model.ParsePosition(v)
		if err != nil {
			return pl, 0, err
		}
		pl.Position = pos
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"opacity", &pl.Opacity},
		{"size_ratio", &pl.SizeRatio},
		{"rotation", &pl.Rotation},
	}
	for _, f := range floats {
		v := strings.TrimSpace(form(f.key))
		if v == "" {
			continue
		}
		parsed, err := cast.ToFloat64E(v)
		if err != nil {
			return pl, 0, fmt.Errorf("%w: %s=%q", model.ErrIncorrectPlacement, f.key, v)
		}
		*f.dst = parsed
	}

	var fontSize int
	ints := []struct {
		key string
		dst *int
	}{
		{"spacing", &pl.Spacing},
		{"margin", &pl.Margin},
		{"font_size", &fontSize},
	}
	for _, f := range ints {
		v := strings.TrimSpace(form(f.key))
		if v == "" {
			continue
		}
		parsed, err := cast.ToIntE(v)
		if err != nil {
			return pl, 0, fmt.Errorf("%w: %s=%q", model.ErrIncorrectPlacement, f.key, v)
		}
		*f.dst = parsed
	}

	return pl, fontSize, nil
}

func closeFileFlow(ctx context.Context, res io.ReadCloser) {
	if res == nil {
		return
	}
	if err := res.Close(); err != nil {
		logger := mwlogger.LoggerFromContext(ctx)
		logger.Warn().Err(err).Msg("Handler failed to close fileflow")
	}
}
