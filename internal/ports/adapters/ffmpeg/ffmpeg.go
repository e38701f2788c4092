package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/clipforge/internal/types"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

func (a *Adapter) ExtractAudioMono16k(ctx context.Context, inMP4, outWav string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", inMP4,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		outWav,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w\n%s", err, string(b))
	}
	return nil
}

// RenderGroup cuts every span from the source, concatenates the parts in
// order, and optionally burns an ASS subtitle track timed against the
// concatenated output.
func (a *Adapter) RenderGroup(ctx context.Context, inMP4 string, spans []types.Span, outMP4 string, burnASS string) error {
	if len(spans) == 0 {
		return fmt.Errorf("render group: no spans")
	}

	tmpDir, err := os.MkdirTemp("", "clipforge-parts-")
	if err != nil {
		return fmt.Errorf("render group: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	parts := make([]string, 0, len(spans))
	for i, sp := range spans {
		part := filepath.Join(tmpDir, fmt.Sprintf("part-%03d.mp4", i))
		if err := a.cutPart(ctx, inMP4, sp, part); err != nil {
			return err
		}
		parts = append(parts, part)
	}

	merged := outMP4
	if burnASS != "" {
		merged = filepath.Join(tmpDir, "merged.mp4")
	}
	if err := a.concatParts(ctx, parts, merged); err != nil {
		return err
	}
	if burnASS == "" {
		return nil
	}

	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", merged,
		"-vf", "subtitles="+escapeFilterPath(burnASS),
		"-c:a", "copy",
		outMP4,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg burn subtitles: %w\n%s", err, string(b))
	}
	return nil
}

// cutPart re-encodes so every part shares codec parameters; the concat demuxer
// with stream copy needs identical streams across parts.
func (a *Adapter) cutPart(ctx context.Context, inMP4 string, sp types.Span, outMP4 string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-ss", fmtSeconds(sp.Start),
		"-to", fmtSeconds(sp.End),
		"-i", inMP4,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "18",
		"-c:a", "aac",
		"-b:a", "192k",
		outMP4,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg cut part: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) concatParts(ctx context.Context, parts []string, outMP4 string) error {
	var list strings.Builder
	for _, p := range parts {
		list.WriteString("file '")
		list.WriteString(strings.ReplaceAll(p, "'", `'\''`))
		list.WriteString("'\n")
	}
	listPath := filepath.Join(filepath.Dir(parts[0]), "concat.txt")
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}

	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outMP4,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg concat parts: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) ProbeDuration(ctx context.Context, inMP4 string) (float64, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		inMP4,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return sec, nil
}

func fmtSeconds(d time.Duration) string {
	sec := float64(d) / float64(time.Second)
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "\\\\")
	p = strings.ReplaceAll(p, ":", "\\:")
	return p
}
