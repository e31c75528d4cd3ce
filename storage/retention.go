package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	dbpkg "github.com/hushline-media/streamroom/db"
)

// RetentionPolicy defines which stored uploads to clean up.
type RetentionPolicy struct {
	// KeepDays: uploads older than this many days are eligible for cleanup (0 = disabled)
	KeepDays int
	// KeepCount: keep only the N most recent uploads (0 = disabled)
	KeepCount int
	// DryRun: when true, log actions but don't delete files or rows
	DryRun bool
	// Interval: how often to run the cleanup job
	Interval time.Duration
}

// StartRetentionJob runs a background job that periodically deletes old
// uploaded files according to the policy. It blocks until ctx is cancelled.
func (s *Store) StartRetentionJob(ctx context.Context, policy RetentionPolicy) {
	if policy.KeepDays == 0 && policy.KeepCount == 0 {
		slog.Info("upload retention job disabled (no policy configured)")
		return
	}
	if policy.Interval <= 0 {
		policy.Interval = 6 * time.Hour
	}

	slog.Info("upload retention job starting",
		slog.Int("keep_days", policy.KeepDays),
		slog.Int("keep_count", policy.KeepCount),
		slog.Bool("dry_run", policy.DryRun),
		slog.Duration("interval", policy.Interval))

	// Run immediately on start
	if err := s.RunRetentionCleanup(ctx, policy); err != nil {
		slog.Warn("upload retention cleanup failed", slog.Any("err", err))
	}

	ticker := time.NewTicker(policy.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("upload retention job stopped")
			return
		case <-ticker.C:
			if err := s.RunRetentionCleanup(ctx, policy); err != nil {
				slog.Warn("upload retention cleanup failed", slog.Any("err", err))
			}
		}
	}
}

// RunRetentionCleanup performs a single cleanup cycle. Exported so the admin
// endpoint can trigger it on demand.
func (s *Store) RunRetentionCleanup(ctx context.Context, policy RetentionPolicy) error {
	logger := slog.Default().With(
		slog.String("component", "upload_retention"),
		slog.Bool("dry_run", policy.DryRun),
	)

	uploads, err := s.List(ctx, 500)
	if err != nil {
		return fmt.Errorf("list uploads: %w", err)
	}
	// List returns newest first; work out the retained set.
	retained := make(map[string]struct{})
	if policy.KeepCount > 0 {
		for i, u := range uploads {
			if i >= policy.KeepCount {
				break
			}
			retained[u.StoredPath] = struct{}{}
		}
	}
	if policy.KeepDays > 0 {
		cutoff := time.Now().Add(-time.Duration(policy.KeepDays) * 24 * time.Hour)
		for _, u := range uploads {
			if u.CreatedAt.After(cutoff) {
				retained[u.StoredPath] = struct{}{}
			}
		}
	}

	var cleaned, skipped, errors int
	var bytesFreed int64
	for _, u := range uploads {
		if _, keep := retained[u.StoredPath]; keep {
			skipped++
			continue
		}

		if policy.DryRun {
			logger.Info("dry-run: would delete upload",
				slog.String("path", u.StoredPath),
				slog.String("file", u.FileName),
				slog.Int64("size_bytes", u.SizeBytes))
			cleaned++
			continue
		}

		if err := os.Remove(u.StoredPath); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to delete upload", slog.String("path", u.StoredPath), slog.Any("err", err))
			errors++
			continue
		}
		if s.db != nil {
			if err := dbpkg.DeleteUpload(ctx, s.db, u.StoredPath); err != nil {
				logger.Warn("failed to delete upload row", slog.String("path", u.StoredPath), slog.Any("err", err))
				errors++
				continue
			}
		}
		bytesFreed += u.SizeBytes
		cleaned++
		logger.Info("deleted old upload",
			slog.String("path", u.StoredPath),
			slog.String("file", u.FileName),
			slog.Int64("size_bytes", u.SizeBytes))
	}

	mode := "cleanup"
	if policy.DryRun {
		mode = "dry-run"
	}
	logger.Info("upload retention completed",
		slog.String("mode", mode),
		slog.Int("cleaned", cleaned),
		slog.Int("skipped", skipped),
		slog.Int("errors", errors),
		slog.Int64("bytes_freed", bytesFreed))

	return nil
}
