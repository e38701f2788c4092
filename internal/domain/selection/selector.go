package selection

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/forPelevin/clipforge/internal/config"
	"github.com/forPelevin/clipforge/internal/types"
)

// Selector is the budget-satisfaction core: it runs both scoring strategies
// against an inflated target, merges their picks under a hard ceiling, and
// tops up when the result lands short of the target. The realized duration is
// expected in roughly [UnderfillFloor, MergeCeiling] times the target; the
// design favors slight over-selection because a too-short reel is the harder
// failure.
type Selector struct {
	scorer *Scorer
	tol    config.Tolerances
	log    *slog.Logger
}

func NewSelector(scorer *Scorer, tol config.Tolerances, log *slog.Logger) *Selector {
	if log == nil {
		log = slog.Default()
	}
	return &Selector{scorer: scorer, tol: tol, log: log}
}

// Select picks the spans of the transcript that survive into the output.
func (s *Selector) Select(ctx context.Context, tr types.Transcript, target float64) (types.SelectionResult, Outcome) {
	if len(tr.Segments) == 0 {
		return types.SelectionResult{}, Outcome{Path: PathShortCircuit}
	}

	if !tr.AllTimed() {
		// No reliable duration book-keeping is possible; delegate to semantic
		// scoring alone.
		s.log.Warn("transcript has segments without timestamps, using text-only selection")
		return s.scorer.SelectSemantic(ctx, tr, target)
	}

	total := tr.TotalDuration()
	if total <= target {
		s.log.Info("content shorter than target, keeping everything",
			"total_sec", total, "target_sec", target)
		out := append([]types.Segment(nil), tr.Segments...)
		return types.SelectionResult{Segments: out, Duration: total}, Outcome{Path: PathShortCircuit}
	}

	// Over-ask on purpose: trimming a generous selection beats re-expanding a
	// starved one.
	adjusted := target * s.tol.AdjustedTarget
	semantic, outcome := s.scorer.SelectSemantic(ctx, tr, adjusted)
	byDuration := s.scorer.SelectByDuration(tr, adjusted)

	selected := append([]types.Segment(nil), semantic.Segments...)
	chosen := make(map[int]bool, len(selected))
	for _, seg := range selected {
		chosen[seg.ID] = true
	}

	// Semantic relevance first; duration-fit picks only top up, capped hard so
	// the merge cannot run away.
	current := types.SumDuration(selected)
	ceiling := target * s.tol.MergeCeiling
	for _, seg := range byDuration.Segments {
		if chosen[seg.ID] || !seg.HasTiming() {
			continue
		}
		if d := seg.Duration(); current+d <= ceiling {
			selected = append(selected, seg)
			chosen[seg.ID] = true
			current += d
		}
	}

	// Selection order must never leak into playback order.
	sortByID(selected)

	actual := types.SumDuration(selected)
	s.log.Info("merged selection", "segments", len(selected), "duration_sec", actual)

	if actual < target*s.tol.UnderfillFloor && actual > 0 {
		s.log.Warn("selection under-filled, running top-up pass",
			"duration_sec", actual, "target_sec", target)
		selected = s.topUp(tr, selected, chosen, target-actual)
		sortByID(selected)
		actual = types.SumDuration(selected)
		s.log.Info("after top-up", "segments", len(selected), "duration_sec", actual)
	}

	return types.SelectionResult{Segments: selected, Duration: actual}, outcome
}

// topUp greedily adds not-yet-selected segments, closest-fit-first against the
// remaining needed duration, while the added total stays within
// remaining*TopUpCeiling.
func (s *Selector) topUp(tr types.Transcript, selected []types.Segment, chosen map[int]bool, remaining float64) []types.Segment {
	var available []types.Segment
	for _, seg := range tr.Segments {
		if !chosen[seg.ID] && seg.HasTiming() {
			available = append(available, seg)
		}
	}

	sort.Slice(available, func(i, j int) bool {
		fi := math.Abs(remaining - available[i].Duration())
		fj := math.Abs(remaining - available[j].Duration())
		if fi == fj {
			return available[i].ID < available[j].ID
		}
		return fi < fj
	})

	ceiling := remaining * s.tol.TopUpCeiling
	var added float64
	for _, seg := range available {
		if d := seg.Duration(); added+d <= ceiling {
			selected = append(selected, seg)
			chosen[seg.ID] = true
			added += d
		}
	}
	return selected
}
