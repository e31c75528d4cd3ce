package storage

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"sync"
)

// uploadSemaphore limits concurrent upload writes globally.
// Initialized once from MAX_CONCURRENT_UPLOADS (default: 1).
var (
	uploadSemaphore     chan struct{}
	uploadSemaphoreOnce sync.Once
)

func initUploadSemaphore() {
	uploadSemaphoreOnce.Do(func() {
		maxConcurrent := 1 // default: serial writes
		if s := os.Getenv("MAX_CONCURRENT_UPLOADS"); s != "" {
			if n, err := strconv.Atoi(s); err == nil && n > 0 {
				maxConcurrent = n
			}
		}
		uploadSemaphore = make(chan struct{}, maxConcurrent)
		slog.Info("upload concurrency limit initialized", slog.Int("max_concurrent", maxConcurrent))
	})
}

// acquireUploadSlot blocks until an upload slot is available or context is
// canceled. Returns true if a slot was acquired.
func acquireUploadSlot(ctx context.Context) bool {
	initUploadSemaphore()
	select {
	case uploadSemaphore <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}

// releaseUploadSlot releases an upload slot.
func releaseUploadSlot() {
	initUploadSemaphore()
	select {
	case <-uploadSemaphore:
	default:
		// Should not happen unless mismatched acquire/release
		slog.Warn("upload slot release called without corresponding acquire")
	}
}

// GetActiveUploads returns the current number of in-flight uploads.
func GetActiveUploads() int {
	initUploadSemaphore()
	return len(uploadSemaphore)
}

// GetMaxConcurrentUploads returns the configured concurrency cap.
func GetMaxConcurrentUploads() int {
	initUploadSemaphore()
	return cap(uploadSemaphore)
}
