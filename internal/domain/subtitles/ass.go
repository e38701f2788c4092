package subtitles

import (
	"fmt"
	"strings"
	"time"

	"github.com/forPelevin/clipforge/internal/types"
)

// RenderGroupASS builds an ASS subtitle track for one output video. The group
// segments are cut and concatenated by the renderer, so event times are
// remapped onto the output-local timeline: each segment occupies the slot
// after its predecessors, not its source position. Long segment texts are
// packed into char-budgeted lines with screen time split proportionally.
func RenderGroupASS(g types.SegmentGroup) string {
	var b strings.Builder
	b.WriteString(assHeader())
	b.WriteString("\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	var cursor float64
	for _, seg := range g.Segments {
		d := seg.Duration()
		text := strings.TrimSpace(seg.Text)
		if d <= 0 || text == "" {
			cursor += d
			continue
		}

		lines := packText(text, 42)
		totalChars := 0
		for _, ln := range lines {
			totalChars += len([]rune(ln))
		}

		lineStart := cursor
		for _, ln := range lines {
			share := float64(len([]rune(ln))) / float64(totalChars)
			lineEnd := lineStart + share*d
			b.WriteString("Dialogue: 0,")
			b.WriteString(assTime(dur(lineStart)))
			b.WriteString(",")
			b.WriteString(assTime(dur(lineEnd)))
			b.WriteString(",Caption,,0,0,0,,")
			b.WriteString(sanitizeASS(ln))
			b.WriteString("\n")
			lineStart = lineEnd
		}
		cursor += d
	}
	return b.String()
}

// packText splits text into caption lines of at most charBudget characters,
// breaking only between words. Hard budgets trade exact transcript grouping
// for consistently readable chunks on vertical-video layouts.
func packText(text string, charBudget int) []string {
	words := strings.Fields(text)
	var out []string
	var cur []string
	curLen := 0
	for _, w := range words {
		wl := len([]rune(w))
		nextLen := curLen
		if curLen > 0 {
			nextLen++
		}
		nextLen += wl
		if curLen > 0 && nextLen > charBudget {
			out = append(out, strings.Join(cur, " "))
			cur = cur[:0]
			curLen = 0
		}
		cur = append(cur, w)
		if curLen > 0 {
			curLen++
		}
		curLen += wl
	}
	if len(cur) > 0 {
		out = append(out, strings.Join(cur, " "))
	}
	return out
}

func assHeader() string {
	return strings.TrimSpace(`
[Script Info]
ScriptType: v4.00+
PlayResX: 1920
PlayResY: 1080
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Caption, Inter, 78, &H00FFFFFF, &H00FFD200, &H00000000, &H64000000, 1,0,0,0,100,100,0,0,1,6,2,2, 80,80,85,1
`)
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	return strings.TrimSpace(s)
}

func dur(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
