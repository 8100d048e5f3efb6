// Package main (in watermark-subfolder) is the command line front-end of the watermark pipeline
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/UnendingLoop/Watermarker/internal/imageproc"
	"github.com/UnendingLoop/Watermarker/internal/pipeline"
	"github.com/rs/zerolog"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/zlog"
)

const (
	cmdBatch   = "batch"
	cmdSingle  = "single"
	cmdFormats = "formats"
)

const (
	exitOK      = 0
	exitFailed  = 1
	exitUsage   = 2
	envFilePath = "./.env"
)

func main() {
	// инициализировать конфиг/ считать энвы, .env для CLI опционален
	appConfig := config.New()
	appConfig.EnableEnv("")
	if _, err := os.Stat(envFilePath); err == nil {
		if err := appConfig.LoadEnvFiles(envFilePath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load envs: %v\n", err)
			os.Exit(exitFailed)
		}
	}

	// стартуем логгер
	zlog.InitConsole()
	level := appConfig.GetString("LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	if err := zlog.SetLevel(level); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(exitFailed)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, appConfig, zlog.Logger, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one subcommand and returns the process exit code.
func run(ctx context.Context, cfg *config.Config, log zerolog.Logger, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}

	switch args[0] {
	case cmdFormats:
		fmt.Fprintln(stdout, strings.Join(imageproc.SupportedExtensions, " "))
		return exitOK
	case cmdBatch, cmdSingle:
	case "-h", "--help", "help":
		usage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		usage(stderr)
		return exitUsage
	}

	p, err := parseArgs(args[0], args[1:], defaultOptions(cfg), stderr)
	switch {
	case errors.Is(err, pflag.ErrHelp):
		return exitOK
	case err != nil:
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	proc := pipeline.NewProcessor(log, pipeline.Options{
		Background:  p.bg,
		JPEGQuality: cast.ToInt(cfg.GetString("JPEG_QUALITY")),
		WebPQuality: cast.ToInt(cfg.GetString("WEBP_QUALITY")),
		DefaultFont: p.font,
	})

	if args[0] == cmdSingle {
		if !proc.ProcessOne(ctx, p.input, p.output, p.wm, p.placement) {
			return exitFailed
		}
		return exitOK
	}

	inputs, err := pipeline.Collect(p.input, p.recursive)
	if err != nil {
		log.Error().Err(err).Str("input", p.input).Msg("failed to collect images")
		return exitFailed
	}
	if len(inputs) == 0 {
		log.Warn().Str("input", p.input).Msg("no supported images found")
		return exitOK
	}
	if p.preview {
		inputs = inputs[:1]
		log.Info().Str("input", inputs[0]).Msg("preview mode: processing the first image only")
	}

	res := proc.Batch(ctx, inputs, p.output, p.suffix, p.wm, p.placement)
	fmt.Fprintln(stdout, res)
	if res.Failed > 0 || res.Skipped > 0 {
		return exitFailed
	}
	return exitOK
}

func usage(w io.Writer) {
	fmt.Fprint(w, `Usage:
  watermark batch  -i <file|dir> -o <dir>  -w <text|image> [flags]
  watermark single -i <file>     -o <file> -w <text|image> [flags]
  watermark formats

Run "watermark batch --help" for the list of flags.
`)
}
