package cli

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/forPelevin/clipforge/internal/config"
	"github.com/forPelevin/clipforge/internal/pipeline"
	"github.com/forPelevin/clipforge/internal/server"
	"github.com/forPelevin/clipforge/internal/task"
)

func run(cmd *cobra.Command, input string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	if v, _ := cmd.Flags().GetString("out"); v != "" {
		cfg.OutDir = v
	}
	if v, _ := cmd.Flags().GetString("cache"); v != "" {
		cfg.CacheDir = v
	}
	if cmd.Flags().Changed("duration") {
		cfg.TargetDurationSec, _ = cmd.Flags().GetInt("duration")
	}
	if cmd.Flags().Changed("videos") {
		n, _ := cmd.Flags().GetInt("videos")
		cfg.NumOutputs = config.ClampNumOutputs(n)
	}
	if cmd.Flags().Changed("captions") {
		cfg.BurnCaptions, _ = cmd.Flags().GetBool("captions")
	}
	if v, _ := cmd.Flags().GetString("filler-words"); v != "" {
		cfg.FillerWords = splitWords(v)
	}

	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}

	log, cleanup := config.SetupLogger(cfg.Log)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Hour)
	defer cancel()

	job := pipeline.Job{InputMP4: absIn, Cfg: cfg, Log: log}
	if err := job.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	outputs, err := pipeline.Run(ctx, job)
	if err != nil {
		return err
	}
	for i, p := range outputs {
		log.Info("short video ready", "n", fmt.Sprintf("%d/%d", i+1, len(outputs)), "path", p)
	}
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	addr, _ := cmd.Flags().GetString("addr")
	dataDir, _ := cmd.Flags().GetString("data")

	cfg.OutDir = filepath.Join(dataDir, "output")
	uploadDir := filepath.Join(dataDir, "uploads")

	log, cleanup := config.SetupLogger(cfg.Log)
	defer cleanup()

	store := task.NewMemoryStore()
	runner := func(ctx context.Context, t task.Task) ([]string, error) {
		jobCfg := cfg
		jobCfg.TargetDurationSec = t.TargetDuration
		jobCfg.NumOutputs = t.NumVideos
		jobCfg.BurnCaptions = t.AddCaptions

		job := pipeline.Job{
			InputMP4: t.FilePath,
			Cfg:      jobCfg,
			Log:      log.With("task_id", t.ID),
			Progress: func(pct int, msg string) {
				store.Update(t.ID, func(t *task.Task) {
					t.Progress = pct
					t.Message = msg
				})
			},
		}
		if err := job.Validate(); err != nil {
			return nil, err
		}
		return pipeline.Run(ctx, job)
	}

	srv := server.New(store, runner, cfg, log, uploadDir, cfg.OutDir)
	log.Info("serving job API", "addr", addr)
	return http.ListenAndServe(addr, srv.Handler())
}

func splitWords(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
