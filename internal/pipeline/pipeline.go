package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/forPelevin/clipforge/internal/config"
	"github.com/forPelevin/clipforge/internal/ports"
	"github.com/forPelevin/clipforge/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/clipforge/internal/ports/adapters/gemini"
	"github.com/forPelevin/clipforge/internal/ports/adapters/openrouter"
	"github.com/forPelevin/clipforge/internal/ports/adapters/whispercpp"
	"github.com/forPelevin/clipforge/internal/usecase"
)

// Job is one pipeline invocation: a source video plus the effective
// configuration.
type Job struct {
	InputMP4 string
	Cfg      config.Config
	Log      *slog.Logger
	// Progress is optional; see usecase.Input.
	Progress func(pct int, msg string)
}

func (j Job) Validate() error {
	if j.InputMP4 == "" {
		return errors.New("input is empty")
	}
	if _, err := os.Stat(j.InputMP4); err != nil {
		return fmt.Errorf("stat input: %w", err)
	}
	if err := j.Cfg.Validate(); err != nil {
		return err
	}
	if j.Cfg.Oracle.Provider == "openrouter" {
		return openrouter.ValidateBaseURL(j.Cfg.Oracle.BaseURL, j.Cfg.Oracle.AllowedHosts)
	}
	return nil
}

// Run executes one full pipeline job and writes the outputs plus a manifest
// under a per-run output directory. It returns the paths of the rendered
// videos.
func Run(ctx context.Context, job Job) ([]string, error) {
	log := job.Log
	if log == nil {
		log = slog.Default()
	}
	cfg := job.Cfg

	video := ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath)
	asr := whispercpp.New(cfg.WhisperBin, cfg.WhisperModel)
	summarizer, refiner := buildOracles(ctx, cfg, log)

	uc := usecase.New(usecase.Deps{
		Video:      video,
		ASR:        asr,
		Summarizer: summarizer,
		Refiner:    refiner,
		Log:        log,
	})

	jobID := hash(job.InputMP4)
	cacheDir := filepath.Join(cfg.CacheDir, "runs", jobID)
	log.Info("preparing workspace", "cache", cacheDir)
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, err
	}

	runOutDir := buildRunOutDir(cfg.OutDir, job.InputMP4, time.Now().UTC())
	if err := os.MkdirAll(filepath.Join(runOutDir, "clips"), 0o755); err != nil {
		return nil, err
	}
	if cfg.BurnCaptions {
		if err := os.MkdirAll(filepath.Join(runOutDir, "subtitles"), 0o755); err != nil {
			return nil, err
		}
	}
	log.Info("output run dir", "dir", runOutDir)

	res, err := uc.Run(ctx, usecase.Input{
		InputMP4:          job.InputMP4,
		TargetDurationSec: cfg.TargetDurationSec,
		NumVideos:         config.ClampNumOutputs(cfg.NumOutputs),
		BurnCaptions:      cfg.BurnCaptions,
		FillerWords:       cfg.FillerWords,
		Tolerances:        cfg.Tolerances,
		MaxOracleWords:    cfg.Oracle.MaxInputWords,
		CacheDir:          cacheDir,
		OutDir:            runOutDir,
		Progress:          job.Progress,
	})
	if err != nil {
		return nil, err
	}

	b, err := json.MarshalIndent(res.Manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	manifestPath := filepath.Join(runOutDir, "manifest.json")
	if err := os.WriteFile(manifestPath, b, 0o644); err != nil {
		return nil, err
	}
	log.Info("manifest written", "videos", len(res.Manifest.Videos), "path", manifestPath)

	outputs := make([]string, 0, len(res.Manifest.Videos))
	for _, v := range res.Manifest.Videos {
		outputs = append(outputs, filepath.Join(runOutDir, filepath.FromSlash(v.File)))
	}
	return outputs, nil
}

// buildOracles wires the configured provider, or none at all: a missing or
// misconfigured oracle is not an error, the selection and assembly layers fall
// back to their deterministic strategies.
func buildOracles(ctx context.Context, cfg config.Config, log *slog.Logger) (ports.Summarizer, ports.Refiner) {
	o := cfg.Oracle
	switch o.Provider {
	case "gemini":
		c, err := gemini.New(ctx, o.APIKey, o.Model)
		if err != nil {
			log.Warn("gemini oracle unavailable, deterministic fallbacks will be used", "error", err)
			return nil, nil
		}
		return c, c
	case "openrouter":
		if o.APIKey == "" {
			log.Warn("OPENROUTER_API_KEY not set, deterministic fallbacks will be used")
			return nil, nil
		}
		a := openrouter.New(o.APIKey, o.Model, o.BaseURL)
		return a, a
	default:
		log.Info("oracle disabled by configuration")
		return nil, nil
	}
}

func buildRunOutDir(outRoot, inputMP4 string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(inputMP4), filepath.Ext(inputMP4))
	name = normalizePathSegment(name)
	if name == "" {
		name = "input"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", inputMP4, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.VideoTool = (*ffmpeg.Adapter)(nil)
var _ ports.ASR = (*whispercpp.Adapter)(nil)
var _ ports.Summarizer = (*openrouter.Adapter)(nil)
var _ ports.Refiner = (*openrouter.Adapter)(nil)
var _ ports.Summarizer = (*gemini.Client)(nil)
var _ ports.Refiner = (*gemini.Client)(nil)
