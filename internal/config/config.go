package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tolerances are the selection multipliers. Their exact values are a product
// decision, so they live in configuration with the documented defaults rather
// than as literals in the selection code.
type Tolerances struct {
	// SemanticAccept caps the semantic strategy's accumulation at
	// target * SemanticAccept.
	SemanticAccept float64 `yaml:"semantic_accept"`
	// DurationAccept caps the duration strategy's accumulation.
	DurationAccept float64 `yaml:"duration_accept"`
	// AdjustedTarget is the deliberate over-ask applied to the target before
	// running both strategies; trimming is cheaper than re-expanding.
	AdjustedTarget float64 `yaml:"adjusted_target"`
	// MergeCeiling is the hard ceiling on cumulative duration during the merge
	// of the two strategy results.
	MergeCeiling float64 `yaml:"merge_ceiling"`
	// TopUpCeiling bounds how much the under-fill pass may add, relative to
	// the remaining needed duration.
	TopUpCeiling float64 `yaml:"top_up_ceiling"`
	// UnderfillFloor triggers the top-up pass when the realized duration falls
	// below target * UnderfillFloor.
	UnderfillFloor float64 `yaml:"underfill_floor"`
	// RefineLow/RefineHigh bound the band in which the direct script is
	// accepted without an oracle refinement call.
	RefineLow  float64 `yaml:"refine_low"`
	RefineHigh float64 `yaml:"refine_high"`
}

func DefaultTolerances() Tolerances {
	return Tolerances{
		SemanticAccept: 1.2,
		DurationAccept: 1.3,
		AdjustedTarget: 1.3,
		MergeCeiling:   1.4,
		TopUpCeiling:   1.4,
		UnderfillFloor: 0.8,
		RefineLow:      0.8,
		RefineHigh:     1.2,
	}
}

// OracleConfig selects and configures the summarization/refinement provider.
type OracleConfig struct {
	// Provider is "openrouter", "gemini" or "none".
	Provider     string   `yaml:"provider"`
	Model        string   `yaml:"model"`
	APIKey       string   `yaml:"-"`
	BaseURL      string   `yaml:"base_url"`
	AllowedHosts []string `yaml:"allowed_hosts"`
	// MaxInputWords is the model input-length budget; longer transcripts are
	// chunked at sentence boundaries before summarization.
	MaxInputWords int `yaml:"max_input_words"`
}

type LogConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

type Config struct {
	TargetDurationSec int          `yaml:"target_duration_sec"`
	NumOutputs        int          `yaml:"num_outputs"`
	BurnCaptions      bool         `yaml:"burn_captions"`
	FillerWords       []string     `yaml:"filler_words"`
	Tolerances        Tolerances   `yaml:"tolerances"`
	Oracle            OracleConfig `yaml:"oracle"`
	Log               LogConfig    `yaml:"log"`

	CacheDir string `yaml:"cache_dir"`
	OutDir   string `yaml:"out_dir"`

	FFmpegPath   string `yaml:"ffmpeg_path"`
	FFprobePath  string `yaml:"ffprobe_path"`
	WhisperBin   string `yaml:"whisper_bin"`
	WhisperModel string `yaml:"whisper_model"`
}

// DefaultFillerWords is the stock hesitation/filler phrase list. Multi-word
// phrases are matched as contiguous token runs.
func DefaultFillerWords() []string {
	return []string{
		"um", "uh", "er", "ah",
		"like", "you know", "i mean",
		"sort of", "kind of", "basically",
		"actually", "literally", "so",
		"just", "well", "right", "i guess",
		"okay", "ok", "so yeah", "anyway",
	}
}

func Default() Config {
	return Config{
		TargetDurationSec: 60,
		NumOutputs:        1,
		BurnCaptions:      true,
		FillerWords:       DefaultFillerWords(),
		Tolerances:        DefaultTolerances(),
		Oracle: OracleConfig{
			Provider:      "openrouter",
			BaseURL:       "https://openrouter.ai",
			MaxInputWords: 1024,
		},
		Log:          LogConfig{Level: "info"},
		CacheDir:     ".cache",
		OutDir:       "out",
		FFmpegPath:   "ffmpeg",
		FFprobePath:  "ffprobe",
		WhisperBin:   ".cache/bin/whisper.cpp",
		WhisperModel: ".cache/models/ggml-base.bin",
	}
}

// Load builds the effective configuration: defaults, overlaid by an optional
// YAML file, overlaid by environment variables. Missing file path is fine;
// a present-but-broken file is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	switch strings.ToLower(getenvDefault("CLIPFORGE_ORACLE", c.Oracle.Provider)) {
	case "gemini":
		c.Oracle.Provider = "gemini"
	case "none":
		c.Oracle.Provider = "none"
	default:
		c.Oracle.Provider = "openrouter"
	}

	switch c.Oracle.Provider {
	case "gemini":
		c.Oracle.APIKey = os.Getenv("GEMINI_API_KEY")
		c.Oracle.Model = getenvDefault("GEMINI_MODEL", defaultStr(c.Oracle.Model, "gemini-2.0-flash"))
	case "openrouter":
		c.Oracle.APIKey = os.Getenv("OPENROUTER_API_KEY")
		c.Oracle.Model = getenvDefault("OPENROUTER_MODEL", defaultStr(c.Oracle.Model, "z-ai/glm-4.5-air:free"))
		c.Oracle.BaseURL = getenvDefault("OPENROUTER_BASE_URL", c.Oracle.BaseURL)
		if hosts := os.Getenv("OPENROUTER_ALLOWED_HOSTS"); hosts != "" {
			c.Oracle.AllowedHosts = splitCSV(hosts)
		}
	}

	c.Log.File = getenvDefault("CLIPFORGE_LOG_FILE", c.Log.File)
	c.Log.Level = getenvDefault("CLIPFORGE_LOG_LEVEL", c.Log.Level)
}

func (c Config) Validate() error {
	if c.TargetDurationSec < 1 {
		return errors.New("target duration must be >= 1s")
	}
	if c.NumOutputs < 1 || c.NumOutputs > 5 {
		return fmt.Errorf("num outputs must be in 1..5, got %d", c.NumOutputs)
	}
	if c.WhisperModel == "" {
		return errors.New("whisper model path is required")
	}
	t := c.Tolerances
	for _, v := range []float64{t.SemanticAccept, t.DurationAccept, t.AdjustedTarget, t.MergeCeiling, t.TopUpCeiling, t.UnderfillFloor, t.RefineLow, t.RefineHigh} {
		if v <= 0 {
			return errors.New("tolerance multipliers must be > 0")
		}
	}
	if t.RefineLow > t.RefineHigh {
		return errors.New("refine_low must be <= refine_high")
	}
	return nil
}

// ClampNumOutputs forces the output count into the supported 1..5 range.
func ClampNumOutputs(n int) int {
	return max(1, min(5, n))
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func defaultStr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
