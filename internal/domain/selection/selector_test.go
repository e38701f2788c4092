package selection

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/forPelevin/clipforge/internal/config"
	"github.com/forPelevin/clipforge/internal/types"
)

func newTestSelector(oracle *fakeSummarizer, tol config.Tolerances) *Selector {
	var scorer *Scorer
	if oracle == nil {
		scorer = NewScorer(nil, tol, 0, nil)
	} else {
		scorer = NewScorer(oracle, tol, 0, nil)
	}
	return NewSelector(scorer, tol, nil)
}

func TestSelect_EmptyTranscript(t *testing.T) {
	sel := newTestSelector(nil, config.DefaultTolerances())

	res, outcome := sel.Select(context.Background(), types.Transcript{}, 60)
	if len(res.Segments) != 0 {
		t.Fatalf("expected no segments, got %d", len(res.Segments))
	}
	if outcome.Path != PathShortCircuit {
		t.Fatalf("expected short circuit, got %q", outcome.Path)
	}
}

func TestSelect_ShortCircuitWhenContentFits(t *testing.T) {
	sel := newTestSelector(&fakeSummarizer{summary: "unused"}, config.DefaultTolerances())
	tr := uniformTranscript(4, 10) // 40s total

	res, outcome := sel.Select(context.Background(), tr, 60)

	if outcome.Path != PathShortCircuit {
		t.Fatalf("expected short circuit, got %q", outcome.Path)
	}
	if got := ids(res.Segments); !reflect.DeepEqual(got, []int{0, 1, 2, 3}) {
		t.Fatalf("expected everything kept in order, got %v", got)
	}
	if res.Duration != 40 {
		t.Fatalf("expected 40s, got %v", res.Duration)
	}
}

func TestSelect_TextOnlyWhenTimingMissing(t *testing.T) {
	oracle := &fakeSummarizer{summary: "keep this part"}
	sel := newTestSelector(oracle, config.DefaultTolerances())
	tr := types.Transcript{Segments: []types.Segment{
		timedSeg(0, 0, 10, "keep this part"),
		{ID: 1, Text: "no timestamps at all"},
		timedSeg(2, 10, 20, "other content"),
	}}

	res, outcome := sel.Select(context.Background(), tr, 60)

	if outcome.Path != PathSemantic {
		t.Fatalf("expected semantic-only path, got %q", outcome.Path)
	}
	if got := ids(res.Segments); !contains(got, 1) {
		t.Fatalf("untimed segment must be kept, got %v", got)
	}
}

func TestSelect_MergesStrategiesWithinCeiling(t *testing.T) {
	// Summary matches segments 0-5 exactly, so they rank first. The greedy
	// fill then keeps admitting zero-score segments while the inflated cap
	// (60 * 1.3 * 1.2 = 93.6s) holds: ids 0-8 at 90s, never id 9.
	segs := make([]types.Segment, 0, 10)
	words := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot",
		"golf", "hotel", "india", "juliett"}
	for i := 0; i < 10; i++ {
		start := float64(i) * 10
		segs = append(segs, timedSeg(i, start, start+10, words[i]))
	}
	oracle := &fakeSummarizer{summary: "alpha bravo charlie delta echo foxtrot"}
	sel := newTestSelector(oracle, config.DefaultTolerances())

	res, outcome := sel.Select(context.Background(), types.Transcript{Segments: segs}, 60)

	if outcome.Path != PathSemantic {
		t.Fatalf("expected semantic path, got %q", outcome.Path)
	}
	if got := ids(res.Segments); !reflect.DeepEqual(got, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Fatalf("unexpected selection %v", got)
	}
	if res.Duration != 90 {
		t.Fatalf("expected 90s, got %v", res.Duration)
	}
}

func TestSelect_FallbackOutcomePropagates(t *testing.T) {
	oracle := &fakeSummarizer{err: errors.New("quota exceeded")}
	sel := newTestSelector(oracle, config.DefaultTolerances())
	tr := uniformTranscript(10, 10)

	res, outcome := sel.Select(context.Background(), tr, 60)

	if outcome.Path != PathDurationFallback {
		t.Fatalf("expected fallback outcome, got %q", outcome.Path)
	}
	if outcome.FallbackReason == "" {
		t.Fatalf("fallback reason missing")
	}
	if res.Duration < 48 || res.Duration > 93.6 {
		t.Fatalf("duration %v outside tolerance window", res.Duration)
	}
	if !sortedAscending(ids(res.Segments)) {
		t.Fatalf("selection not in temporal order: %v", ids(res.Segments))
	}
}

func TestSelect_TopUpWhenUnderfilled(t *testing.T) {
	// Tightened accept caps starve both strategies: semantic keeps 30s,
	// the duration pass adds nothing new, and 30s < 60 * 0.8 triggers the
	// top-up, which admits four more 10s segments under its own
	// 30 * 1.4 = 42s ceiling.
	tol := config.DefaultTolerances()
	tol.SemanticAccept = 0.5
	tol.DurationAccept = 0.3

	oracle := &fakeSummarizer{summary: ""}
	sel := newTestSelector(oracle, tol)
	tr := uniformTranscript(10, 10)

	res, _ := sel.Select(context.Background(), tr, 60)

	if got := ids(res.Segments); !reflect.DeepEqual(got, []int{0, 1, 2, 3, 4, 5, 6}) {
		t.Fatalf("unexpected selection after top-up: %v", got)
	}
	if res.Duration != 70 {
		t.Fatalf("expected 70s after top-up, got %v", res.Duration)
	}
}

func TestSelect_NoDuplicateSegments(t *testing.T) {
	oracle := &fakeSummarizer{summary: "segment text"}
	sel := newTestSelector(oracle, config.DefaultTolerances())
	tr := uniformTranscript(12, 10)

	res, _ := sel.Select(context.Background(), tr, 60)

	seen := map[int]bool{}
	for _, seg := range res.Segments {
		if seen[seg.ID] {
			t.Fatalf("segment %d selected twice", seg.ID)
		}
		seen[seg.ID] = true
	}
}

func sortedAscending(xs []int) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i] < xs[i-1] {
			return false
		}
	}
	return true
}
