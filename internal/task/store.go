package task

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle stage of a processing task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Task tracks one video-processing job end to end.
type Task struct {
	ID             string    `json:"task_id"`
	FilePath       string    `json:"-"`
	NumVideos      int       `json:"num_videos"`
	TargetDuration int       `json:"target_duration"`
	AddCaptions    bool      `json:"add_captions"`
	Status         Status    `json:"status"`
	Message        string    `json:"message"`
	Progress       int       `json:"progress"`
	FileURLs       []string  `json:"file_urls"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Spec is the immutable part of a task, fixed at creation.
type Spec struct {
	FilePath       string
	NumVideos      int
	TargetDuration int
	AddCaptions    bool
}

// Store tracks tasks by opaque ID. Implementations must be safe for
// concurrent use; each pipeline run only ever touches its own task.
type Store interface {
	Create(spec Spec) Task
	Get(id string) (Task, bool)
	// Update applies fn to the stored task under the store's lock and bumps
	// UpdatedAt. It reports whether the task existed.
	Update(id string, fn func(*Task)) bool
}

// MemoryStore is the in-process Store used by the job service.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[string]*Task)}
}

func (s *MemoryStore) Create(spec Spec) Task {
	now := time.Now()
	t := &Task{
		ID:             uuid.NewString(),
		FilePath:       spec.FilePath,
		NumVideos:      spec.NumVideos,
		TargetDuration: spec.TargetDuration,
		AddCaptions:    spec.AddCaptions,
		Status:         StatusPending,
		Message:        "Task created, waiting to start",
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t
	return *t
}

func (s *MemoryStore) Get(id string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *t, true
}

func (s *MemoryStore) Update(id string, fn func(*Task)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return false
	}
	fn(t)
	t.UpdatedAt = time.Now()
	return true
}
