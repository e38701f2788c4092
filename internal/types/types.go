package types

import "time"

// RawSegment is a timed text record as produced by the transcription
// collaborator, before any cleaning. Timing is optional: a record either
// carries both bounds or neither.
type RawSegment struct {
	Start *float64 `json:"start,omitempty"`
	End   *float64 `json:"end,omitempty"`
	Text  string   `json:"text"`
}

// Segment is the atomic unit of transcript content. IDs are assigned once by
// the normalizer in input order and are never reused or reassigned, so sorting
// by ID reconstructs the original temporal order.
type Segment struct {
	ID           int      `json:"id"`
	Start        *float64 `json:"start,omitempty"`
	End          *float64 `json:"end,omitempty"`
	Text         string   `json:"text"`
	OriginalText string   `json:"original_text,omitempty"`
	Score        *float64 `json:"score,omitempty"`
}

// HasTiming reports whether the segment carries both time bounds.
func (s Segment) HasTiming() bool { return s.Start != nil && s.End != nil }

// Duration returns end-start in seconds, or 0 for untimed segments.
func (s Segment) Duration() float64 {
	if !s.HasTiming() {
		return 0
	}
	return *s.End - *s.Start
}

// Transcript is the ordered segment sequence of one source video. It is owned
// exclusively by the pipeline run that produced it.
type Transcript struct {
	Segments []Segment `json:"segments"`
}

// TotalDuration sums the durations of all timed segments.
func (t Transcript) TotalDuration() float64 {
	var total float64
	for _, s := range t.Segments {
		total += s.Duration()
	}
	return total
}

// AllTimed reports whether every segment carries timing.
func (t Transcript) AllTimed() bool {
	for _, s := range t.Segments {
		if !s.HasTiming() {
			return false
		}
	}
	return true
}

// SelectionResult is an ordered subsequence of a transcript's segments plus
// the realized total duration of its timed members.
type SelectionResult struct {
	Segments []Segment `json:"segments"`
	Duration float64   `json:"duration_sec"`
}

// SumDuration recomputes the realized duration of a segment slice.
func SumDuration(segs []Segment) float64 {
	var total float64
	for _, s := range segs {
		total += s.Duration()
	}
	return total
}

// ScriptSource records which assembly path produced a script.
type ScriptSource string

const (
	ScriptDirect  ScriptSource = "direct_selection"
	ScriptRefined ScriptSource = "ai_refinement"
)

// ScriptMeta is script provenance, stamped once at assembly time.
type ScriptMeta struct {
	GeneratedBy    ScriptSource `json:"generated_by"`
	SegmentCount   int          `json:"segment_count"`
	TargetDuration int          `json:"target_duration,omitempty"`
}

// Script wraps a final selection with a title and provenance, ready for
// partitioning and rendering. Scripts are never mutated after creation; the
// refinement pass produces a new Script instead.
type Script struct {
	Title    string     `json:"title"`
	Segments []Segment  `json:"segments"`
	Meta     ScriptMeta `json:"metadata"`
}

// SegmentGroup is one of N ordered partitions of a script's segments, each
// destined for one output video.
type SegmentGroup struct {
	Segments []Segment `json:"segments"`
}

// Duration sums the timed segment durations in the group.
func (g SegmentGroup) Duration() float64 { return SumDuration(g.Segments) }

// Span is a source-media time range handed to the renderer.
type Span struct {
	Start time.Duration
	End   time.Duration
}

type Manifest struct {
	Input       string         `json:"input"`
	Title       string         `json:"title"`
	GeneratedBy ScriptSource   `json:"generated_by"`
	ScorerPath  string         `json:"scorer_path"`
	Videos      []ManifestItem `json:"videos"`
}

type ManifestItem struct {
	ID          string  `json:"id"`
	File        string  `json:"file"`
	Subtitles   string  `json:"subtitles,omitempty"`
	DurationSec float64 `json:"duration_sec"`
	SegmentIDs  []int   `json:"segment_ids"`
}
