// Package storage stores uploaded files under the data directory, bounds
// concurrent uploads, and enforces the upload retention policy.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	dbpkg "github.com/hushline-media/streamroom/db"
)

// ErrTooLarge is returned when an upload exceeds the configured size cap.
var ErrTooLarge = errors.New("upload exceeds size limit")

// Store saves uploads to disk and, when a database is configured, records
// their metadata in the uploads table.
type Store struct {
	dataDir  string
	maxBytes int64
	db       *sql.DB
}

// NewStore ensures the data directory exists.
func NewStore(dataDir string, maxBytes int64, db *sql.DB) (*Store, error) {
	if maxBytes <= 0 {
		return nil, fmt.Errorf("upload size limit must be positive, got %d", maxBytes)
	}
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dataDir: dataDir, maxBytes: maxBytes, db: db}, nil
}

// DataDir returns the directory uploads are stored in.
func (s *Store) DataDir() string { return s.dataDir }

// SaveUpload streams one multipart part to disk. The stored name is prefixed
// with a uuid so concurrent uploads of the same filename never collide.
func (s *Store) SaveUpload(ctx context.Context, fileName, contentType string, r io.Reader) (dbpkg.Upload, error) {
	if !acquireUploadSlot(ctx) {
		return dbpkg.Upload{}, ctx.Err()
	}
	defer releaseUploadSlot()

	name := sanitizeFileName(fileName)
	storedPath := filepath.Join(s.dataDir, uuid.New().String()+"-"+name)

	f, err := os.OpenFile(storedPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return dbpkg.Upload{}, fmt.Errorf("create upload file: %w", err)
	}

	// Read one byte past the limit so an oversized body is detected instead
	// of silently truncated.
	written, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && written > s.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		if rmErr := os.Remove(storedPath); rmErr != nil {
			slog.Warn("failed to remove partial upload", slog.String("path", storedPath), slog.Any("err", rmErr))
		}
		return dbpkg.Upload{}, err
	}

	u := dbpkg.Upload{
		FileName:    name,
		StoredPath:  storedPath,
		SizeBytes:   written,
		ContentType: contentType,
		CreatedAt:   time.Now().UTC(),
	}
	if s.db != nil {
		if err := dbpkg.InsertUpload(ctx, s.db, u); err != nil {
			// The file is on disk; a missing metadata row is recoverable.
			slog.Warn("failed to record upload metadata", slog.String("path", storedPath), slog.Any("err", err))
		}
	}
	slog.Info("upload stored", slog.String("file", name), slog.Int64("size_bytes", written))
	return u, nil
}

// List returns stored uploads, newest first, from the database when
// configured and otherwise from a directory scan.
func (s *Store) List(ctx context.Context, limit int) ([]dbpkg.Upload, error) {
	if s.db != nil {
		return dbpkg.ListUploads(ctx, s.db, limit)
	}
	return s.listFromDisk(limit)
}

func (s *Store) listFromDisk(limit int) ([]dbpkg.Upload, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	out := make([]dbpkg.Upload, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, dbpkg.Upload{
			FileName:   strippedName(e.Name()),
			StoredPath: filepath.Join(s.dataDir, e.Name()),
			SizeBytes:  fi.Size(),
			CreatedAt:  fi.ModTime().UTC(),
		})
	}
	// Newest first, matching the database listing order.
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// sanitizeFileName strips any path components and characters that would be
// awkward on disk, falling back to "upload" for empty results.
func sanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	name = strings.Trim(name, "._")
	if name == "" {
		name = "upload"
	}
	return name
}

// uuidPrefixLen is the length of the canonical uuid string that prefixes
// every stored file name.
const uuidPrefixLen = 36

// strippedName removes the uuid prefix a stored file carries on disk.
func strippedName(stored string) string {
	if len(stored) > uuidPrefixLen+1 && stored[uuidPrefixLen] == '-' {
		return stored[uuidPrefixLen+1:]
	}
	return stored
}
