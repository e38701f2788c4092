package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/forPelevin/clipforge/internal/config"
	"github.com/forPelevin/clipforge/internal/domain/partition"
	"github.com/forPelevin/clipforge/internal/domain/script"
	"github.com/forPelevin/clipforge/internal/domain/selection"
	"github.com/forPelevin/clipforge/internal/domain/subtitles"
	"github.com/forPelevin/clipforge/internal/domain/transcript"
	"github.com/forPelevin/clipforge/internal/ports"
	"github.com/forPelevin/clipforge/internal/types"
)

type Deps struct {
	Video ports.VideoTool
	ASR   ports.ASR
	// Summarizer and Refiner may be nil; every consumer has a deterministic
	// fallback.
	Summarizer ports.Summarizer
	Refiner    ports.Refiner
	Log        *slog.Logger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	return Usecase{d: d}
}

type Input struct {
	InputMP4          string
	TargetDurationSec int
	NumVideos         int
	BurnCaptions      bool
	FillerWords       []string
	Tolerances        config.Tolerances
	MaxOracleWords    int
	CacheDir          string
	OutDir            string
	// Progress is an optional hook reporting coarse stage completion in
	// percent; used by the job service, a no-op for the CLI.
	Progress func(pct int, msg string)
}

type Result struct {
	Manifest types.Manifest
}

func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	progress := in.Progress
	if progress == nil {
		progress = func(int, string) {}
	}

	wav := filepath.Join(in.CacheDir, "audio.wav")
	if err := u.d.Video.ExtractAudioMono16k(ctx, in.InputMP4, wav); err != nil {
		return Result{}, err
	}
	progress(15, "audio extracted")

	raw, err := u.d.ASR.Transcribe(ctx, wav, in.CacheDir)
	if err != nil {
		return Result{}, err
	}
	progress(40, "transcription complete")

	tr := transcript.NewNormalizer(in.FillerWords).Normalize(raw)
	u.d.Log.Info("transcript normalized", "segments", len(tr.Segments), "total_sec", tr.TotalDuration())

	scorer := selection.NewScorer(u.d.Summarizer, in.Tolerances, in.MaxOracleWords, u.d.Log)
	selector := selection.NewSelector(scorer, in.Tolerances, u.d.Log)
	sel, outcome := selector.Select(ctx, tr, float64(in.TargetDurationSec))
	progress(55, "content selected")

	assembler := script.NewAssembler(u.d.Refiner, in.Tolerances, u.d.Log)
	sc := assembler.Assemble(ctx, sel, in.TargetDurationSec)
	progress(65, "script assembled")

	groups := partition.Split(sc.Segments, in.NumVideos)

	m := types.Manifest{
		Input:       in.InputMP4,
		Title:       sc.Title,
		GeneratedBy: sc.Meta.GeneratedBy,
		ScorerPath:  string(outcome.Path),
	}

	for i, g := range groups {
		spans := groupSpans(g)
		if len(spans) == 0 {
			u.d.Log.Warn("skipping group without timed segments", "group", i+1)
			continue
		}

		id := fmt.Sprintf("%03d", i+1)
		clipPath := filepath.Join(in.OutDir, "clips", id+".mp4")
		assPath := ""
		if in.BurnCaptions {
			assPath = filepath.Join(in.OutDir, "subtitles", id+".ass")
			if err := writeFile(assPath, []byte(subtitles.RenderGroupASS(g))); err != nil {
				return Result{}, err
			}
		}

		if err := u.d.Video.RenderGroup(ctx, in.InputMP4, spans, clipPath, assPath); err != nil {
			return Result{}, err
		}

		item := types.ManifestItem{
			ID:          id,
			File:        filepath.ToSlash(filepath.Join("clips", id+".mp4")),
			DurationSec: g.Duration(),
			SegmentIDs:  segmentIDs(g),
		}
		if in.BurnCaptions {
			item.Subtitles = filepath.ToSlash(filepath.Join("subtitles", id+".ass"))
		}
		m.Videos = append(m.Videos, item)

		progress(65+(30*(i+1))/len(groups), fmt.Sprintf("rendered video %d/%d", i+1, len(groups)))
	}

	progress(100, "done")
	return Result{Manifest: m}, nil
}

func groupSpans(g types.SegmentGroup) []types.Span {
	spans := make([]types.Span, 0, len(g.Segments))
	for _, seg := range g.Segments {
		if !seg.HasTiming() {
			continue
		}
		spans = append(spans, types.Span{Start: dur(*seg.Start), End: dur(*seg.End)})
	}
	return spans
}

func segmentIDs(g types.SegmentGroup) []int {
	ids := make([]int, 0, len(g.Segments))
	for _, seg := range g.Segments {
		ids = append(ids, seg.ID)
	}
	return ids
}

func dur(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }

func writeFile(path string, b []byte) error {
	return os.WriteFile(path, b, 0o644)
}
