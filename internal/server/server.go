package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/forPelevin/clipforge/internal/config"
	"github.com/forPelevin/clipforge/internal/task"
)

// Runner processes one uploaded video and returns the rendered output paths.
// The pipeline entry point satisfies this; tests inject a fake.
type Runner func(ctx context.Context, t task.Task) ([]string, error)

// Server exposes the processing pipeline as a small JSON job API:
// upload a video, poll the task, download the outputs from /static/.
type Server struct {
	store     task.Store
	runner    Runner
	cfg       config.Config
	log       *slog.Logger
	uploadDir string
	staticDir string
}

func New(store task.Store, runner Runner, cfg config.Config, log *slog.Logger, uploadDir, staticDir string) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		store:     store,
		runner:    runner,
		cfg:       cfg,
		log:       log,
		uploadDir: uploadDir,
		staticDir: staticDir,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /videos", s.handleUpload)
	mux.HandleFunc("GET /tasks/{id}", s.handleTask)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(s.staticDir))))
	return mux
}

const maxUploadBytes = 2 << 30 // 2 GiB

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("parse upload: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	numVideos := config.ClampNumOutputs(formInt(r, "num_videos", 1))
	duration := formInt(r, "target_duration", s.cfg.TargetDurationSec)
	if duration < 1 {
		writeError(w, http.StatusBadRequest, "target_duration must be >= 1")
		return
	}
	captions := formBool(r, "add_captions", true)

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, "prepare upload dir")
		return
	}

	spec := task.Spec{NumVideos: numVideos, TargetDuration: duration, AddCaptions: captions}
	t := s.store.Create(spec)

	ext := filepath.Ext(header.Filename)
	if ext == "" {
		ext = ".mp4"
	}
	dst := filepath.Join(s.uploadDir, t.ID+ext)
	out, err := os.Create(dst)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store upload")
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		writeError(w, http.StatusInternalServerError, "store upload")
		return
	}
	out.Close()

	s.store.Update(t.ID, func(t *task.Task) { t.FilePath = dst })

	go s.process(t.ID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"task_id": t.ID})
}

func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	t, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(t)
}

// process runs the pipeline for one task in the background. Failures are
// recorded on the task and never crash the server.
func (s *Server) process(id string) {
	t, ok := s.store.Get(id)
	if !ok {
		return
	}
	log := s.log.With("task_id", id)
	log.Info("processing task", "file", t.FilePath)

	s.store.Update(id, func(t *task.Task) {
		t.Status = task.StatusProcessing
		t.Message = "Processing started"
	})

	outputs, err := s.runner(context.Background(), t)
	if err != nil {
		log.Error("task failed", "error", err)
		s.store.Update(id, func(t *task.Task) {
			t.Status = task.StatusFailed
			t.Message = err.Error()
		})
		return
	}

	urls := make([]string, 0, len(outputs))
	for _, p := range outputs {
		urls = append(urls, s.staticURL(p))
	}
	s.store.Update(id, func(t *task.Task) {
		t.Status = task.StatusCompleted
		t.Message = fmt.Sprintf("Created %d video(s)", len(urls))
		t.Progress = 100
		t.FileURLs = urls
	})
	log.Info("task completed", "videos", len(urls))
}

func (s *Server) staticURL(path string) string {
	rel, err := filepath.Rel(s.staticDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return "/static/" + filepath.ToSlash(rel)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func formInt(r *http.Request, key string, def int) int {
	v := r.FormValue(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func formBool(r *http.Request, key string, def bool) bool {
	v := r.FormValue(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
