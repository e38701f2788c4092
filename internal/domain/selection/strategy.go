package selection

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/forPelevin/clipforge/internal/config"
	"github.com/forPelevin/clipforge/internal/ports"
	"github.com/forPelevin/clipforge/internal/types"
)

// Path tags which selection strategy actually executed, so callers and tests
// can assert the fallback branch instead of guessing from the output.
type Path string

const (
	PathSemantic         Path = "semantic"
	PathDurationFallback Path = "duration_fallback"
	PathShortCircuit     Path = "short_circuit"
)

// Outcome reports the executed path and, when a fallback fired, why.
type Outcome struct {
	Path           Path
	FallbackReason string
}

// Scorer ranks and filters segments under a duration budget. The semantic
// strategy needs a summarization oracle; the duration strategy is always
// computable offline and doubles as the fallback.
type Scorer struct {
	oracle        ports.Summarizer
	tol           config.Tolerances
	maxInputWords int
	log           *slog.Logger
}

func NewScorer(oracle ports.Summarizer, tol config.Tolerances, maxInputWords int, log *slog.Logger) *Scorer {
	if maxInputWords <= 0 {
		maxInputWords = 1024
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scorer{oracle: oracle, tol: tol, maxInputWords: maxInputWords, log: log}
}

// SelectSemantic summarizes the whole transcript, scores each segment by the
// fraction of its distinct words that appear in the summary, and greedily
// accumulates segments in score order within target*SemanticAccept. Untimed
// segments cannot be duration-checked and are always included. Any oracle
// failure silently degrades to the duration strategy.
func (s *Scorer) SelectSemantic(ctx context.Context, tr types.Transcript, target float64) (types.SelectionResult, Outcome) {
	if len(tr.Segments) == 0 {
		return types.SelectionResult{}, Outcome{Path: PathSemantic}
	}

	summary, err := s.summarize(ctx, tr)
	if err != nil {
		s.log.Warn("semantic scoring unavailable, falling back to duration strategy", "error", err)
		return s.SelectByDuration(tr, target), Outcome{Path: PathDurationFallback, FallbackReason: err.Error()}
	}

	summaryWords := wordSet(summary)
	scored := make([]types.Segment, 0, len(tr.Segments))
	for _, seg := range tr.Segments {
		segWords := wordSet(seg.Text)
		overlap := 0
		for w := range segWords {
			if _, ok := summaryWords[w]; ok {
				overlap++
			}
		}
		score := float64(overlap) / float64(max(1, len(segWords)))
		seg.Score = &score
		scored = append(scored, seg)
	}

	// Descending score; equal scores preserve temporal order for
	// reproducibility.
	sort.Slice(scored, func(i, j int) bool {
		si, sj := *scored[i].Score, *scored[j].Score
		if si == sj {
			return scored[i].ID < scored[j].ID
		}
		return si > sj
	})

	allowed := target * s.tol.SemanticAccept
	var picked []types.Segment
	var current float64
	for _, seg := range scored {
		if !seg.HasTiming() {
			picked = append(picked, seg)
			continue
		}
		if d := seg.Duration(); current+d <= allowed {
			picked = append(picked, seg)
			current += d
		}
	}

	sortByID(picked)
	return types.SelectionResult{Segments: picked, Duration: types.SumDuration(picked)}, Outcome{Path: PathSemantic}
}

// SelectByDuration keeps the longest segments first, on the heuristic that
// longer continuous speech spans are more likely to be self-contained, and
// accumulates within target*DurationAccept. The accepted set is re-sorted by
// ID before returning.
func (s *Scorer) SelectByDuration(tr types.Transcript, target float64) types.SelectionResult {
	if len(tr.Segments) == 0 {
		return types.SelectionResult{}
	}

	timed := make([]types.Segment, 0, len(tr.Segments))
	var total float64
	for _, seg := range tr.Segments {
		if seg.HasTiming() {
			timed = append(timed, seg)
			total += seg.Duration()
		}
	}
	if total == 0 {
		// Nothing to budget against; keep the transcript as-is.
		out := append([]types.Segment(nil), tr.Segments...)
		return types.SelectionResult{Segments: out}
	}

	sort.Slice(timed, func(i, j int) bool {
		di, dj := timed[i].Duration(), timed[j].Duration()
		if di == dj {
			return timed[i].ID < timed[j].ID
		}
		return di > dj
	})

	allowed := target * s.tol.DurationAccept
	var picked []types.Segment
	var current float64
	for _, seg := range timed {
		if d := seg.Duration(); current+d <= allowed {
			picked = append(picked, seg)
			current += d
		}
	}

	sortByID(picked)
	return types.SelectionResult{Segments: picked, Duration: types.SumDuration(picked)}
}

func (s *Scorer) summarize(ctx context.Context, tr types.Transcript) (string, error) {
	if s.oracle == nil {
		return "", errNoOracle
	}

	var parts []string
	for _, seg := range tr.Segments {
		if strings.TrimSpace(seg.Text) != "" {
			parts = append(parts, seg.Text)
		}
	}
	fullText := strings.Join(parts, " ")

	if wordCount(fullText) <= s.maxInputWords {
		return s.oracle.Summarize(ctx, fullText, summaryBudget(fullText))
	}

	var summaries []string
	for _, chunk := range ChunkText(fullText, s.maxInputWords) {
		sum, err := s.oracle.Summarize(ctx, chunk, summaryBudget(chunk))
		if err != nil {
			return "", err
		}
		summaries = append(summaries, sum)
	}
	return strings.Join(summaries, " "), nil
}

// summaryBudget asks for roughly 60% of the input length, never below 20
// words, so short inputs still produce a usable summary.
func summaryBudget(text string) int {
	return max(20, int(float64(wordCount(text))*0.6))
}

var errNoOracle = errors.New("no summarization oracle configured")

var reSentenceEnd = regexp.MustCompile(`[^.!?]+[.!?]*`)

// ChunkText splits text into chunks of at most maxWords words each, breaking
// only at sentence boundaries. A single sentence longer than maxWords becomes
// its own oversized chunk rather than being split mid-sentence.
func ChunkText(text string, maxWords int) []string {
	sentences := reSentenceEnd.FindAllString(text, -1)

	var chunks []string
	var current []string
	currentWords := 0
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		n := wordCount(sentence)
		if currentWords > 0 && currentWords+n > maxWords {
			chunks = append(chunks, strings.Join(current, " "))
			current = current[:0]
			currentWords = 0
		}
		current = append(current, sentence)
		currentWords += n
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

var reWord = regexp.MustCompile(`[\p{L}\p{N}_]+`)

func wordSet(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range reWord.FindAllString(strings.ToLower(text), -1) {
		out[w] = struct{}{}
	}
	return out
}

func wordCount(text string) int { return len(strings.Fields(text)) }

func sortByID(segs []types.Segment) {
	sort.Slice(segs, func(i, j int) bool { return segs[i].ID < segs[j].ID })
}
