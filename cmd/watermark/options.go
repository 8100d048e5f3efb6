package main

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"strings"

	"github.com/UnendingLoop/Watermarker/internal/model"
	"github.com/UnendingLoop/Watermarker/internal/pipeline"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/wb-go/wbf/config"
)

var errUsage = errors.New("usage error")

// options of the batch and single subcommands.
type options struct {
	input      string
	output     string
	watermark  string
	kind       string
	position   string
	placement  model.Placement
	recursive  bool
	suffix     string
	fontSize   int
	fontColor  string
	font       string
	background string
	preview    bool
}

// parsed is options after validation, ready for the pipeline.
type parsed struct {
	options
	style model.TextStyle
	bg    color.NRGBA
	wm    model.Watermark
}

// defaultOptions takes flag defaults from WM_* config keys, falling back to built-in values.
func defaultOptions(cfg *config.Config) options {
	pl := model.DefaultPlacement()

	return options{
		kind:     cfgString(cfg, "WM_KIND", pipeline.KindAuto),
		position: cfgString(cfg, "WM_POSITION", string(pl.Position)),
		placement: model.Placement{
			Opacity:   cfgFloat(cfg, "WM_OPACITY", pl.Opacity),
			SizeRatio: cfgFloat(cfg, "WM_SIZE", pl.SizeRatio),
			Rotation:  cfgFloat(cfg, "WM_ROTATION", pl.Rotation),
			Spacing:   cfgInt(cfg, "WM_SPACING", pl.Spacing),
			Margin:    cfgInt(cfg, "WM_MARGIN", pl.Margin),
		},
		suffix:     cfgString(cfg, "WM_SUFFIX", pipeline.DefaultSuffix),
		fontSize:   cfgInt(cfg, "WM_FONT_SIZE", 0),
		fontColor:  cfgString(cfg, "WM_FONT_COLOR", "white"),
		font:       cfgString(cfg, "WM_FONT", cfg.GetString("FONT_PATH")),
		background: cfgString(cfg, "WM_BACKGROUND", cfgString(cfg, "BACKGROUND_COLOR", "white")),
	}
}

func newFlagSet(cmd string, o *options, out io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
	fs.SetOutput(out)
	fs.SortFlags = false

	inHelp, outHelp := "input image file", "output image file"
	if cmd == cmdBatch {
		inHelp, outHelp = "input image file or directory", "output directory"
	}

	fs.StringVarP(&o.input, "input", "i", "", inHelp)
	fs.StringVarP(&o.output, "output", "o", "", outHelp)
	fs.StringVarP(&o.watermark, "watermark", "w", "", "watermark text or path to a watermark image")
	fs.StringVar(&o.kind, "kind", o.kind, "watermark kind: auto, text or image")
	fs.StringVarP(&o.position, "position", "p", o.position,
		"top_left, top_right, bottom_left, bottom_right, center, tile or diagonal")
	fs.Float64VarP(&o.placement.Opacity, "opacity", "a", o.placement.Opacity, "watermark opacity, 0.1-1.0")
	fs.Float64VarP(&o.placement.SizeRatio, "size", "s", o.placement.SizeRatio, "image watermark size relative to the source, 0.05-1.0")
	fs.Float64VarP(&o.placement.Rotation, "rotation", "r", o.placement.Rotation, "rotation in degrees, -180-180")
	fs.IntVar(&o.placement.Spacing, "spacing", o.placement.Spacing, "gap between tiles in pixels, 0-200")
	fs.IntVar(&o.placement.Margin, "margin", o.placement.Margin, "distance from the edges in pixels, 0-100")
	fs.IntVar(&o.fontSize, "font-size", o.fontSize, "font size in points, 0 derives it from the image")
	fs.StringVar(&o.fontColor, "font-color", o.fontColor, "white, black, red, green, blue, gray or #RRGGBB")
	fs.StringVar(&o.font, "font", o.font, "path to a TrueType/OpenType font")
	fs.StringVar(&o.background, "background", o.background, "color behind transparent areas for formats without alpha")
	fs.BoolVar(&o.preview, "preview", false, "process only the first image")
	if cmd == cmdBatch {
		fs.BoolVarP(&o.recursive, "recursive", "R", false, "descend into subdirectories")
		fs.StringVar(&o.suffix, "suffix", o.suffix, "suffix added to output file names")
	}

	return fs
}

// parseArgs parses and validates the flags of a subcommand.
func parseArgs(cmd string, args []string, defaults options, out io.Writer) (*parsed, error) {
	o := defaults
	fs := newFlagSet(cmd, &o, out)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected arguments %v", errUsage, fs.Args())
	}

	var missing []string
	for _, f := range []struct{ name, val string }{
		{"input", o.input}, {"output", o.output}, {"watermark", o.watermark},
	} {
		if strings.TrimSpace(f.val) == "" {
			missing = append(missing, "--"+f.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: required flags not set: %s", errUsage, strings.Join(missing, ", "))
	}

	pos, err := model.ParsePosition(o.position)
	if err != nil {
		return nil, err
	}
	o.placement.Position = pos
	if err := o.placement.Validate(); err != nil {
		return nil, err
	}

	if o.fontSize < 0 {
		return nil, fmt.Errorf("%w: font size %d", model.ErrIncorrectPlacement, o.fontSize)
	}
	fontColor, err := model.ParseColor(o.fontColor)
	if err != nil {
		return nil, err
	}
	bg, err := model.ParseColor(o.background)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}

	p := &parsed{
		options: o,
		style:   model.TextStyle{FontPath: o.font, FontSize: o.fontSize, Color: fontColor},
		bg:      bg,
	}
	if p.wm, err = pipeline.Resolve(o.kind, o.watermark, p.style); err != nil {
		return nil, err
	}
	return p, nil
}

func cfgString(cfg *config.Config, key, def string) string {
	if v := strings.TrimSpace(cfg.GetString(key)); v != "" {
		return v
	}
	return def
}

func cfgFloat(cfg *config.Config, key string, def float64) float64 {
	if v, err := cast.ToFloat64E(cfg.GetString(key)); err == nil && cfg.GetString(key) != "" {
		return v
	}
	return def
}

func cfgInt(cfg *config.Config, key string, def int) int {
	if v, err := cast.ToIntE(cfg.GetString(key)); err == nil && cfg.GetString(key) != "" {
		return v
	}
	return def
}
