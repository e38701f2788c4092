package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/forPelevin/clipforge/internal/config"
	"github.com/forPelevin/clipforge/internal/ports"
	"github.com/forPelevin/clipforge/internal/types"
)

const defaultTitle = "Short Video Script"

// Assembler wraps a selection into a Script. The direct path copies segments
// verbatim; the refinement path asks an oracle for a tighter narration, but
// only when the direct script's duration lands outside the accept band, and
// timing always survives refinement. Refinement is strictly best-effort: any
// oracle failure returns the direct script unchanged.
type Assembler struct {
	refiner ports.Refiner
	tol     config.Tolerances
	log     *slog.Logger
}

func NewAssembler(refiner ports.Refiner, tol config.Tolerances, log *slog.Logger) *Assembler {
	if log == nil {
		log = slog.Default()
	}
	return &Assembler{refiner: refiner, tol: tol, log: log}
}

func (a *Assembler) Assemble(ctx context.Context, sel types.SelectionResult, targetSeconds int) types.Script {
	direct := directScript(sel)

	directDur := types.SumDuration(direct.Segments)
	target := float64(targetSeconds)
	a.log.Info("direct script assembled",
		"segments", len(direct.Segments), "duration_sec", directDur, "target_sec", targetSeconds)

	if directDur >= target*a.tol.RefineLow && directDur <= target*a.tol.RefineHigh {
		// Within the accept band there is nothing for the oracle to improve.
		return direct
	}
	if a.refiner == nil {
		return direct
	}

	refined, err := a.refine(ctx, direct, targetSeconds)
	if err != nil {
		a.log.Warn("script refinement failed, keeping direct script", "error", err)
		return direct
	}
	a.log.Info("refined script assembled", "segments", len(refined.Segments))
	return refined
}

func directScript(sel types.SelectionResult) types.Script {
	segs := append([]types.Segment(nil), sel.Segments...)
	return types.Script{
		Title:    defaultTitle,
		Segments: segs,
		Meta: types.ScriptMeta{
			GeneratedBy:  types.ScriptDirect,
			SegmentCount: len(segs),
		},
	}
}

func (a *Assembler) refine(ctx context.Context, direct types.Script, targetSeconds int) (types.Script, error) {
	var parts []string
	for _, seg := range direct.Segments {
		if strings.TrimSpace(seg.Text) != "" {
			parts = append(parts, seg.Text)
		}
	}
	combined := strings.Join(parts, " ")
	if combined == "" {
		return types.Script{}, errors.New("nothing to refine: selection has no text")
	}

	out, err := a.refiner.Refine(ctx, combined, targetSeconds)
	if err != nil {
		return types.Script{}, err
	}
	if len(out.Segments) == 0 {
		return types.Script{}, errors.New("refinement returned no segments")
	}

	segs, err := alignTiming(out.Segments, direct.Segments)
	if err != nil {
		return types.Script{}, err
	}

	title := strings.TrimSpace(out.Title)
	if title == "" {
		title = defaultTitle
	}

	return types.Script{
		Title:    title,
		Segments: segs,
		Meta: types.ScriptMeta{
			GeneratedBy:    types.ScriptRefined,
			SegmentCount:   len(segs),
			TargetDuration: targetSeconds,
		},
	}, nil
}

// alignTiming carries timing from the direct script onto the refined spans.
// With the same count or fewer, timing fields copy positionally. With more
// spans than originals, each span gets a share of the original total duration
// proportional to its character length, walked sequentially from the first
// original start, which keeps timestamps monotonic and non-overlapping over
// the same total span.
func alignTiming(refined []ports.RefinedSegment, original []types.Segment) ([]types.Segment, error) {
	if len(refined) <= len(original) {
		out := make([]types.Segment, 0, len(refined))
		for i, span := range refined {
			seg := types.Segment{Text: span.ScriptText}
			seg.ID = original[i].ID
			seg.Start = original[i].Start
			seg.End = original[i].End
			out = append(out, seg)
		}
		return out, nil
	}

	totalDuration := types.SumDuration(original)
	totalChars := 0
	for _, span := range refined {
		totalChars += len(span.ScriptText)
	}
	if totalChars == 0 {
		return nil, fmt.Errorf("refinement produced %d empty segments", len(refined))
	}

	var cursor float64
	if len(original) > 0 && original[0].Start != nil {
		cursor = *original[0].Start
	}

	out := make([]types.Segment, 0, len(refined))
	for i, span := range refined {
		share := float64(len(span.ScriptText)) / float64(totalChars)
		start := cursor
		end := cursor + share*totalDuration
		out = append(out, types.Segment{
			ID:    i,
			Start: &start,
			End:   &end,
			Text:  span.ScriptText,
		})
		cursor = end
	}
	return out, nil
}
