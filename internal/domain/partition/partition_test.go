package partition

import (
	"reflect"
	"testing"

	"github.com/forPelevin/clipforge/internal/types"
)

func TestSplit_EqualThirds(t *testing.T) {
	segs := contiguous(9, 10) // 90s total, perGroup 30s

	groups := Split(segs, 3)

	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	for i, g := range groups {
		if len(g.Segments) != 3 {
			t.Fatalf("group %d has %d segments, want 3", i, len(g.Segments))
		}
		if g.Duration() != 30 {
			t.Fatalf("group %d lasts %vs, want 30", i, g.Duration())
		}
	}
	if got := groupIDs(groups); !reflect.DeepEqual(got, [][]int{{0, 1, 2}, {3, 4, 5}, {6, 7, 8}}) {
		t.Fatalf("unexpected grouping %v", got)
	}
}

func TestSplit_SingleGroupKeepsEverything(t *testing.T) {
	segs := contiguous(3, 10)
	segs = append(segs, types.Segment{ID: 3, Text: "no timing"})

	groups := Split(segs, 1)

	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if len(groups[0].Segments) != 4 {
		t.Fatalf("single group must keep untimed segments, got %d", len(groups[0].Segments))
	}
}

func TestSplit_DropsUntimedForMultipleGroups(t *testing.T) {
	segs := contiguous(4, 10)
	segs = append(segs, types.Segment{ID: 4, Text: "no timing"})

	groups := Split(segs, 2)

	for _, g := range groups {
		for _, seg := range g.Segments {
			if !seg.HasTiming() {
				t.Fatalf("untimed segment %d leaked into a group", seg.ID)
			}
		}
	}
}

func TestSplit_AllUntimedYieldsEmptyGroup(t *testing.T) {
	segs := []types.Segment{
		{ID: 0, Text: "a"},
		{ID: 1, Text: "b"},
	}

	groups := Split(segs, 3)

	if len(groups) != 1 || len(groups[0].Segments) != 0 {
		t.Fatalf("expected one empty group, got %v", groups)
	}
}

func TestSplit_CoverageAndOrder(t *testing.T) {
	durations := []float64{30, 5, 5, 20, 10, 20, 10} // 100s total
	segs := make([]types.Segment, 0, len(durations))
	var cursor float64
	for i, d := range durations {
		start, end := cursor, cursor+d
		segs = append(segs, types.Segment{ID: i, Start: &start, End: &end, Text: "t"})
		cursor = end
	}

	groups := Split(segs, 3)

	var flat []int
	for _, g := range groups {
		if len(g.Segments) == 0 {
			t.Fatalf("empty group survived")
		}
		for _, seg := range g.Segments {
			flat = append(flat, seg.ID)
		}
	}
	if !reflect.DeepEqual(flat, []int{0, 1, 2, 3, 4, 5, 6}) {
		t.Fatalf("groups must cover every segment once, in start order, got %v", flat)
	}
}

func TestSplit_MoreGroupsThanSegments(t *testing.T) {
	segs := contiguous(2, 10)

	groups := Split(segs, 5)

	if len(groups) != 2 {
		t.Fatalf("expected 2 non-empty groups, got %d", len(groups))
	}
	for i, g := range groups {
		if len(g.Segments) != 1 {
			t.Fatalf("group %d has %d segments", i, len(g.Segments))
		}
	}
}

func contiguous(n int, dur float64) []types.Segment {
	segs := make([]types.Segment, 0, n)
	for i := 0; i < n; i++ {
		start := float64(i) * dur
		end := start + dur
		segs = append(segs, types.Segment{ID: i, Start: &start, End: &end, Text: "t"})
	}
	return segs
}

func groupIDs(groups []types.SegmentGroup) [][]int {
	out := make([][]int, 0, len(groups))
	for _, g := range groups {
		ids := make([]int, 0, len(g.Segments))
		for _, seg := range g.Segments {
			ids = append(ids, seg.ID)
		}
		out = append(out, ids)
	}
	return out
}
