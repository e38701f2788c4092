package transcript

import (
	"regexp"
	"sort"
	"strings"

	"github.com/forPelevin/clipforge/internal/types"
)

var (
	reSpaces    = regexp.MustCompile(`\s+`)
	reDupComma  = regexp.MustCompile(`(?:,\s*){2,}`)
	reSpacePunct = regexp.MustCompile(`\s+([,.;:!?])`)
	reLeadPunct = regexp.MustCompile(`^[,;:]\s*`)
)

// Normalizer removes configured filler words from raw timed text and assigns
// stable segment IDs in input order. It never touches timing.
type Normalizer struct {
	filler *regexp.Regexp
}

// NewNormalizer compiles a case-insensitive whole-word matcher for the given
// filler phrases. Multi-word phrases match as contiguous token runs; matches
// always align to token boundaries, so "like" never strips "likely". An empty
// list yields a normalizer that only fixes whitespace.
func NewNormalizer(fillerWords []string) *Normalizer {
	phrases := make([]string, 0, len(fillerWords))
	for _, w := range fillerWords {
		w = strings.TrimSpace(strings.ToLower(w))
		if w == "" {
			continue
		}
		tokens := strings.Fields(w)
		for i, t := range tokens {
			tokens[i] = regexp.QuoteMeta(t)
		}
		phrases = append(phrases, strings.Join(tokens, `\s+`))
	}
	if len(phrases) == 0 {
		return &Normalizer{}
	}
	// Longest phrase first so "so yeah" wins over "so".
	sort.Slice(phrases, func(i, j int) bool { return len(phrases[i]) > len(phrases[j]) })
	return &Normalizer{
		filler: regexp.MustCompile(`(?i)\b(?:` + strings.Join(phrases, "|") + `)\b`),
	}
}

// Normalize converts raw timed records into a canonical transcript. Records
// without text pass through unchanged apart from the ID assignment.
func (n *Normalizer) Normalize(raw []types.RawSegment) types.Transcript {
	segs := make([]types.Segment, 0, len(raw))
	for i, r := range raw {
		seg := types.Segment{
			ID:    i,
			Start: r.Start,
			End:   r.End,
			Text:  r.Text,
		}
		if r.Text != "" {
			seg.OriginalText = r.Text
			seg.Text = n.Clean(r.Text)
		}
		segs = append(segs, seg)
	}
	return types.Transcript{Segments: segs}
}

// Clean strips filler words from a single text and tidies up the punctuation
// and whitespace the removals leave behind. Clean is idempotent: cleaning
// already-clean text is a no-op.
func (n *Normalizer) Clean(text string) string {
	if n.filler != nil {
		text = n.filler.ReplaceAllString(text, "")
	}
	text = reSpacePunct.ReplaceAllString(text, "$1")
	text = reDupComma.ReplaceAllString(text, ", ")
	text = reSpaces.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	text = reLeadPunct.ReplaceAllString(text, "")
	return text
}
