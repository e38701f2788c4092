package task

import (
	"sync"
	"testing"
)

func TestMemoryStore_CreateAndGet(t *testing.T) {
	s := NewMemoryStore()

	created := s.Create(Spec{NumVideos: 3, TargetDuration: 45, AddCaptions: true})
	if created.ID == "" {
		t.Fatalf("expected a generated id")
	}
	if created.Status != StatusPending {
		t.Fatalf("new task status = %q", created.Status)
	}

	got, ok := s.Get(created.ID)
	if !ok {
		t.Fatalf("task not found after create")
	}
	if got.NumVideos != 3 || got.TargetDuration != 45 || !got.AddCaptions {
		t.Fatalf("spec not preserved: %+v", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatalf("timestamps not set")
	}
}

func TestMemoryStore_GetUnknown(t *testing.T) {
	s := NewMemoryStore()
	if _, ok := s.Get("nope"); ok {
		t.Fatalf("unknown id must not resolve")
	}
}

func TestMemoryStore_Update(t *testing.T) {
	s := NewMemoryStore()
	created := s.Create(Spec{NumVideos: 1, TargetDuration: 60})

	if !s.Update(created.ID, func(t *Task) {
		t.Status = StatusProcessing
		t.Progress = 40
	}) {
		t.Fatalf("update reported missing task")
	}

	got, _ := s.Get(created.ID)
	if got.Status != StatusProcessing || got.Progress != 40 {
		t.Fatalf("update not applied: %+v", got)
	}
	if got.UpdatedAt.Before(created.UpdatedAt) {
		t.Fatalf("UpdatedAt not bumped")
	}

	if s.Update("nope", func(*Task) {}) {
		t.Fatalf("update of unknown id must report false")
	}
}

func TestMemoryStore_ConcurrentUpdates(t *testing.T) {
	s := NewMemoryStore()
	created := s.Create(Spec{NumVideos: 1, TargetDuration: 60})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update(created.ID, func(t *Task) { t.Progress++ })
		}()
	}
	wg.Wait()

	got, _ := s.Get(created.ID)
	if got.Progress != 50 {
		t.Fatalf("lost updates: progress = %d", got.Progress)
	}
}
