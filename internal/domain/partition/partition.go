package partition

import (
	"sort"

	"github.com/forPelevin/clipforge/internal/types"
)

// Split divides segments into up to n ordered, contiguous, non-empty groups,
// one per output video. The walk is a greedy forward-fill against an equal
// per-group duration share, not a balanced partition: later groups can end up
// smaller when earlier segments are long. Groups that end up empty are
// dropped, so the returned list may be shorter than n.
//
// For n > 1 segments without timing are discarded entirely: a group boundary
// cannot be computed for them. If no timed segments remain, a single empty
// group is returned.
func Split(segments []types.Segment, n int) []types.SegmentGroup {
	if n <= 1 {
		return []types.SegmentGroup{{Segments: append([]types.Segment(nil), segments...)}}
	}

	valid := make([]types.Segment, 0, len(segments))
	for _, seg := range segments {
		if seg.HasTiming() {
			valid = append(valid, seg)
		}
	}
	if len(valid) == 0 {
		return []types.SegmentGroup{{}}
	}

	sort.Slice(valid, func(i, j int) bool {
		if *valid[i].Start == *valid[j].Start {
			return valid[i].ID < valid[j].ID
		}
		return *valid[i].Start < *valid[j].Start
	})

	var total float64
	for _, seg := range valid {
		total += seg.Duration()
	}
	perGroup := total / float64(n)

	groups := make([]types.SegmentGroup, n)
	idx := 0
	var acc float64
	for _, seg := range valid {
		d := seg.Duration()
		if acc+d > perGroup && idx < n-1 {
			idx++
			acc = 0
		}
		groups[idx].Segments = append(groups[idx].Segments, seg)
		acc += d
	}

	out := make([]types.SegmentGroup, 0, n)
	for _, g := range groups {
		if len(g.Segments) > 0 {
			out = append(out, g)
		}
	}
	return out
}
