package pipeline

import (
	"testing"
	"time"
)

func TestJob_ProgressTracking(t *testing.T) {
	job := &Job{ID: NewID(), Status: StatusQueued}
	job.SetTotalChunks(3)
	job.ChunkDone(false)
	job.ChunkDone(false)
	job.ChunkDone(true)
	job.SetStatus(StatusPartial, "done")

	snap := job.Snapshot()
	if snap.Progress.TotalChunks != 3 {
		t.Errorf("expected 3 total chunks, got %d", snap.Progress.TotalChunks)
	}
	if snap.Progress.ChunksAnnotated != 2 || snap.Progress.ChunksDegraded != 1 {
		t.Errorf("expected 2 annotated / 1 degraded, got %d/%d",
			snap.Progress.ChunksAnnotated, snap.Progress.ChunksDegraded)
	}
	if snap.Status != StatusPartial {
		t.Errorf("expected status %s, got %s", StatusPartial, snap.Status)
	}
}

func TestJobStore_CleanupEvictsExpired(t *testing.T) {
	store := NewJobStore(10 * time.Millisecond)

	old := &Job{ID: "old", UpdatedAt: time.Now().Add(-time.Minute)}
	fresh := &Job{ID: "fresh", UpdatedAt: time.Now()}
	store.Put(old)
	store.Put(fresh)

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be evicted")
	}
	if store.Get("fresh") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

// Cleanup must read job timestamps through the job's own lock, not the
// store's, so it can run concurrently with workers updating progress.
// Run with -race to catch regressions.
func TestJobStore_CleanupConcurrentWithUpdates(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "busy", UpdatedAt: time.Now()}
	store.Put(job)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			job.ChunkDone(false)
		}
	}()
	for i := 0; i < 200; i++ {
		store.Cleanup()
	}
	<-done

	if store.Get("busy") == nil {
		t.Error("expected active job to survive cleanup")
	}
}

func TestNewID_Monotonic(t *testing.T) {
	a := NewID()
	b := NewID()
	if a == b {
		t.Error("expected distinct IDs")
	}
	if a > b {
		t.Errorf("expected IDs to sort by creation order: %s then %s", a, b)
	}
	if len(a) != 26 {
		t.Errorf("expected 26-char ULID, got %d chars", len(a))
	}
}
