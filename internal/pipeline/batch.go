package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/UnendingLoop/Watermarker/internal/model"
)

const DefaultSuffix = "_watermarked"

// Result aggregates a batch run. Skipped counts images never started because the
// context was done.
type Result struct {
	Success int
	Failed  int
	Skipped int
}

func (r Result) String() string {
	return fmt.Sprintf("success=%d failed=%d skipped=%d", r.Success, r.Failed, r.Skipped)
}

// Batch processes inputs in order, writing each to outputDir under OutputName.
// A failed image never stops the batch; cancellation is checked between images.
func (p *Processor) Batch(ctx context.Context, inputs []string, outputDir, suffix string, wm model.Watermark, pl model.Placement) Result {
	var res Result

	for i, in := range inputs {
		if ctx.Err() != nil {
			res.Skipped = len(inputs) - i
			p.log.Warn().Int("skipped", res.Skipped).Msg("batch interrupted")
			break
		}

		out := filepath.Join(outputDir, OutputName(in, suffix))
		if p.ProcessOne(ctx, in, out, wm, pl) {
			res.Success++
		} else {
			res.Failed++
		}
	}

	p.log.Info().
		Int("total", len(inputs)).
		Int("success", res.Success).
		Int("failed", res.Failed).
		Int("skipped", res.Skipped).
		Msg("batch finished")
	return res
}

// OutputName builds "{stem}{suffix}{ext}" from the base name of input.
func OutputName(input, suffix string) string {
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + suffix + ext
}
