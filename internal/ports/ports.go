package ports

import (
	"context"

	"github.com/forPelevin/clipforge/internal/types"
)

type VideoTool interface {
	ExtractAudioMono16k(ctx context.Context, inMP4, outWav string) error
	RenderGroup(ctx context.Context, inMP4 string, spans []types.Span, outMP4 string, burnASS string) error
	ProbeDuration(ctx context.Context, inMP4 string) (float64, error)
}

type ASR interface {
	Transcribe(ctx context.Context, wavPath, cacheDir string) ([]types.RawSegment, error)
}

// Summarizer condenses text to at most maxWords words. It is an external
// oracle: callers must treat every error as soft and fall back.
type Summarizer interface {
	Summarize(ctx context.Context, text string, maxWords int) (string, error)
}

type RefinedSegment struct {
	ScriptText string `json:"script_text"`
}

type RefinedScript struct {
	Title    string           `json:"title"`
	Segments []RefinedSegment `json:"segments"`
}

// Refiner rewrites narration to better fit a target duration. Same soft-error
// contract as Summarizer: a failed refinement never fails the pipeline.
type Refiner interface {
	Refine(ctx context.Context, text string, targetSeconds int) (RefinedScript, error)
}
