package transcript

import (
	"sort"
	"testing"

	"github.com/forPelevin/clipforge/internal/types"
)

func TestClean_Table(t *testing.T) {
	n := NewNormalizer([]string{"um", "like", "you know", "so yeah", "so"})

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"boundary respecting removal", "um I was, like, going", "I was, going"},
		{"no partial word deletion", "that is likely true", "that is likely true"},
		{"multi word phrase", "you know the plan", "the plan"},
		{"longer phrase wins", "so yeah that happened", "that happened"},
		{"case insensitive", "Um, hello", "hello"},
		{"unknown text is untouched", "nothing to remove here", "nothing to remove here"},
		{"whitespace collapse", "a   b\t c", "a b c"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Clean(tt.in); got != tt.want {
				t.Fatalf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestClean_Idempotent(t *testing.T) {
	n := NewNormalizer([]string{"um", "uh", "like", "you know"})

	inputs := []string{
		"um I was, like, going",
		"clean sentence with punctuation, and more.",
		"you know, um, it works",
		"",
	}
	for _, in := range inputs {
		once := n.Clean(in)
		twice := n.Clean(once)
		if once != twice {
			t.Fatalf("Clean not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalize_AssignsIDsInInputOrder(t *testing.T) {
	n := NewNormalizer([]string{"um"})
	raw := []types.RawSegment{
		timedRaw(0, 5, "um hello"),
		timedRaw(5, 9, "world"),
		{Text: "no timing here"},
	}

	tr := n.Normalize(raw)
	if len(tr.Segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(tr.Segments))
	}
	for i, seg := range tr.Segments {
		if seg.ID != i {
			t.Fatalf("segment %d has id %d", i, seg.ID)
		}
	}
	if got := tr.Segments[0].Text; got != "hello" {
		t.Fatalf("expected filler removed, got %q", got)
	}
	if got := tr.Segments[0].OriginalText; got != "um hello" {
		t.Fatalf("expected original text preserved, got %q", got)
	}
	if *tr.Segments[0].Start != 0 || *tr.Segments[0].End != 5 {
		t.Fatalf("timing must not change: %v-%v", *tr.Segments[0].Start, *tr.Segments[0].End)
	}
	if tr.Segments[2].HasTiming() {
		t.Fatalf("untimed record must stay untimed")
	}
}

func TestNormalize_IDOrderMatchesStartOrder(t *testing.T) {
	n := NewNormalizer(nil)
	raw := []types.RawSegment{
		timedRaw(0, 2, "a"),
		timedRaw(2, 7, "b"),
		timedRaw(7, 8, "c"),
		timedRaw(8, 12, "d"),
	}

	segs := n.Normalize(raw).Segments
	byID := append([]types.Segment(nil), segs...)
	sort.Slice(byID, func(i, j int) bool { return byID[i].ID < byID[j].ID })
	byStart := append([]types.Segment(nil), segs...)
	sort.Slice(byStart, func(i, j int) bool { return *byStart[i].Start < *byStart[j].Start })

	for i := range byID {
		if byID[i].ID != byStart[i].ID {
			t.Fatalf("id order diverges from start order at %d", i)
		}
	}
}

func timedRaw(start, end float64, text string) types.RawSegment {
	return types.RawSegment{Start: &start, End: &end, Text: text}
}
