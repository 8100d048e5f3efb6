package pipeline

import (
	"fmt"

	"github.com/UnendingLoop/Watermarker/internal/model"
	"github.com/spf13/cast"
	"github.com/wb-go/wbf/config"
)

// OptionsFromConfig reads BACKGROUND_COLOR, JPEG_QUALITY, WEBP_QUALITY and FONT_PATH.
// Missing keys leave the NewProcessor defaults in place.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	bg, err := model.ParseColor(cfg.GetString("BACKGROUND_COLOR"))
	if err != nil {
		return Options{}, fmt.Errorf("BACKGROUND_COLOR: %w", err)
	}

	return Options{
		Background:  bg,
		JPEGQuality: cast.ToInt(cfg.GetString("JPEG_QUALITY")),
		WebPQuality: cast.ToInt(cfg.GetString("WEBP_QUALITY")),
		DefaultFont: cfg.GetString("FONT_PATH"),
	}, nil
}
