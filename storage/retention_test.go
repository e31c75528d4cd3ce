package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// seedUpload writes a file directly into the data dir with a given age.
func seedUpload(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("payload"), 0o640); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	ts := time.Now().Add(-age)
	if err := os.Chtimes(path, ts, ts); err != nil {
		t.Fatalf("chtimes %s: %v", name, err)
	}
	return path
}

func TestListFromDiskNewestFirst(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 1<<20, nil)
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}

	seedUpload(t, dir, "oldest.mp4", 3*time.Hour)
	seedUpload(t, dir, "newest.mp4", time.Hour)
	seedUpload(t, dir, "middle.mp4", 2*time.Hour)

	list, err := store.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("List returned %d entries, want 3", len(list))
	}
	want := []string{"newest.mp4", "middle.mp4", "oldest.mp4"}
	for i, name := range want {
		if list[i].FileName != name {
			t.Errorf("list[%d].FileName = %q, want %q", i, list[i].FileName, name)
		}
	}
}

func TestRetentionKeepDays(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 1<<20, nil)
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}

	oldPath := seedUpload(t, dir, "old.mp4", 10*24*time.Hour)
	newPath := seedUpload(t, dir, "new.mp4", time.Hour)

	policy := RetentionPolicy{KeepDays: 7}
	if err := store.RunRetentionCleanup(context.Background(), policy); err != nil {
		t.Fatalf("RunRetentionCleanup error: %v", err)
	}

	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Error("expected old upload deleted")
	}
	if _, err := os.Stat(newPath); err != nil {
		t.Errorf("expected new upload kept: %v", err)
	}
}

func TestRetentionKeepCount(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 1<<20, nil)
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}

	oldest := seedUpload(t, dir, "a.mp4", 3*time.Hour)
	middle := seedUpload(t, dir, "b.mp4", 2*time.Hour)
	newest := seedUpload(t, dir, "c.mp4", time.Hour)

	policy := RetentionPolicy{KeepCount: 2}
	if err := store.RunRetentionCleanup(context.Background(), policy); err != nil {
		t.Fatalf("RunRetentionCleanup error: %v", err)
	}

	if _, err := os.Stat(oldest); !os.IsNotExist(err) {
		t.Error("expected oldest upload deleted")
	}
	for _, p := range []string{middle, newest} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected %s kept: %v", filepath.Base(p), err)
		}
	}
}

func TestRetentionCombinedPolicies(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 1<<20, nil)
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}

	// Old but within the keep-count window: a file satisfying either policy
	// is retained.
	recent := seedUpload(t, dir, "recent.mp4", time.Hour)
	oldButCounted := seedUpload(t, dir, "counted.mp4", 30*24*time.Hour)

	policy := RetentionPolicy{KeepDays: 7, KeepCount: 2}
	if err := store.RunRetentionCleanup(context.Background(), policy); err != nil {
		t.Fatalf("RunRetentionCleanup error: %v", err)
	}

	for _, p := range []string{recent, oldButCounted} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected %s kept: %v", filepath.Base(p), err)
		}
	}
}

func TestRetentionDryRunDeletesNothing(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 1<<20, nil)
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}

	old := seedUpload(t, dir, "old.mp4", 10*24*time.Hour)

	policy := RetentionPolicy{KeepDays: 7, DryRun: true}
	if err := store.RunRetentionCleanup(context.Background(), policy); err != nil {
		t.Fatalf("RunRetentionCleanup error: %v", err)
	}

	if _, err := os.Stat(old); err != nil {
		t.Errorf("dry run must not delete files: %v", err)
	}
}

func TestRetentionJobDisabledWithoutPolicy(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 1<<20, nil)
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	seedUpload(t, dir, "keep.mp4", 100*24*time.Hour)

	// With a zero policy StartRetentionJob returns immediately without
	// touching anything.
	done := make(chan struct{})
	go func() {
		store.StartRetentionJob(context.Background(), RetentionPolicy{})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("StartRetentionJob did not return for empty policy")
	}

	list, err := store.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("List returned %d entries, want 1", len(list))
	}
}

func TestConcurrentUploadSlots(t *testing.T) {
	// The semaphore admits at most GetMaxConcurrentUploads at once; a
	// released slot is reusable.
	ctx := context.Background()
	max := GetMaxConcurrentUploads()
	if os.Getenv("MAX_CONCURRENT_UPLOADS") == "" && max != 1 {
		t.Errorf("default concurrency cap = %d, want 1", max)
	}
	for i := 0; i < max; i++ {
		if !acquireUploadSlot(ctx) {
			t.Fatalf("slot %d not acquired", i)
		}
	}
	if got := GetActiveUploads(); got != max {
		t.Errorf("GetActiveUploads = %d, want %d", got, max)
	}

	blocked, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if acquireUploadSlot(blocked) {
		t.Error("acquired slot past the concurrency cap")
	}

	releaseUploadSlot()
	if !acquireUploadSlot(ctx) {
		t.Error("released slot not reusable")
	}
	for i := 0; i < max; i++ {
		releaseUploadSlot()
	}
}
