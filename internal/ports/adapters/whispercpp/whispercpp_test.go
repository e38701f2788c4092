package whispercpp

import (
	"testing"
)

func TestParseSegments(t *testing.T) {
	jb := []byte(`{
		"segments": [
			{"start": 0.0, "end": 4.5, "text": " Hello there."},
			{"start": 4.5, "end": 9.25, "text": " Second sentence."}
		]
	}`)

	got, err := parseSegments(jb)
	if err != nil {
		t.Fatalf("parseSegments: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(got))
	}
	if *got[0].Start != 0 || *got[0].End != 4.5 || got[0].Text != " Hello there." {
		t.Fatalf("unexpected first segment: %+v", got[0])
	}
	if *got[1].Start != 4.5 || *got[1].End != 9.25 {
		t.Fatalf("unexpected second segment timing: %v-%v", *got[1].Start, *got[1].End)
	}
	if got[0].End == got[1].Start {
		t.Fatalf("segments share timing pointers")
	}
}

func TestParseSegments_Empty(t *testing.T) {
	got, err := parseSegments([]byte(`{"segments": []}`))
	if err != nil {
		t.Fatalf("parseSegments: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no segments, got %d", len(got))
	}
}

func TestParseSegments_Malformed(t *testing.T) {
	if _, err := parseSegments([]byte(`not json`)); err == nil {
		t.Fatalf("expected parse error")
	}
}
