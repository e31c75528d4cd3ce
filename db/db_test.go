package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hushline-media/streamroom/db"
	"github.com/hushline-media/streamroom/testutil"
)

func TestTranscriptRoundTrip(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()

	sessionID := "sess-" + uuid.New().String()
	base := time.Now().UTC().Truncate(time.Millisecond)

	for i := 0; i < 3; i++ {
		err := db.InsertChatMessage(ctx, database, sessionID,
			uuid.New().String(), "viewer", "line", false, base.Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatalf("InsertChatMessage %d: %v", i, err)
		}
	}
	err := db.InsertChatMessage(ctx, database, sessionID,
		uuid.New().String(), "streamroom", "Tip received!", true, base.Add(3*time.Second))
	if err != nil {
		t.Fatalf("InsertChatMessage priority: %v", err)
	}

	got, err := db.ListTranscript(ctx, database, sessionID, 0)
	if err != nil {
		t.Fatalf("ListTranscript: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("ListTranscript returned %d rows, want 4", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.Before(got[i-1].CreatedAt) {
			t.Errorf("transcript out of order at %d", i)
		}
	}
	if !got[3].Priority {
		t.Error("expected final row to carry priority flag")
	}
}

func TestInsertChatMessageIdempotent(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()

	sessionID := "sess-" + uuid.New().String()
	messageID := uuid.New().String()
	for i := 0; i < 2; i++ {
		if err := db.InsertChatMessage(ctx, database, sessionID, messageID, "viewer", "dup", false, time.Now().UTC()); err != nil {
			t.Fatalf("InsertChatMessage attempt %d: %v", i, err)
		}
	}

	got, err := db.ListTranscript(ctx, database, sessionID, 0)
	if err != nil {
		t.Fatalf("ListTranscript: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("duplicate message_id produced %d rows, want 1", len(got))
	}
}

func TestInsertTip(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()

	sessionID := "sess-" + uuid.New().String()
	if err := db.InsertTip(ctx, database, sessionID, 2100, "great stream", uuid.New().String()); err != nil {
		t.Fatalf("InsertTip: %v", err)
	}

	var count int
	if err := database.QueryRowContext(ctx, `SELECT COUNT(*) FROM tips WHERE session_id=$1`, sessionID).Scan(&count); err != nil {
		t.Fatalf("count tips: %v", err)
	}
	if count != 1 {
		t.Errorf("tips count = %d, want 1", count)
	}
}

func TestUploadMetadata(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()

	path := "/data/" + uuid.New().String() + "-clip.mp4"
	u := db.Upload{
		FileName:    "clip.mp4",
		StoredPath:  path,
		SizeBytes:   1234,
		ContentType: "video/mp4",
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.InsertUpload(ctx, database, u); err != nil {
		t.Fatalf("InsertUpload: %v", err)
	}

	// Upsert on stored_path updates size rather than duplicating.
	u.SizeBytes = 5678
	if err := db.InsertUpload(ctx, database, u); err != nil {
		t.Fatalf("InsertUpload upsert: %v", err)
	}

	list, err := db.ListUploads(ctx, database, 500)
	if err != nil {
		t.Fatalf("ListUploads: %v", err)
	}
	var found *db.Upload
	for i := range list {
		if list[i].StoredPath == path {
			found = &list[i]
			break
		}
	}
	if found == nil {
		t.Fatal("inserted upload not listed")
	}
	if found.SizeBytes != 5678 {
		t.Errorf("SizeBytes = %d, want 5678 after upsert", found.SizeBytes)
	}

	if err := db.DeleteUpload(ctx, database, path); err != nil {
		t.Fatalf("DeleteUpload: %v", err)
	}
	var count int
	if err := database.QueryRowContext(ctx, `SELECT COUNT(*) FROM uploads WHERE stored_path=$1`, path).Scan(&count); err != nil {
		t.Fatalf("count uploads: %v", err)
	}
	if count != 0 {
		t.Errorf("uploads count = %d after delete, want 0", count)
	}
}

func TestKVRoundTrip(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()

	key := "test-" + uuid.New().String()
	if v, err := db.GetKV(ctx, database, key); err != nil || v != "" {
		t.Fatalf("GetKV on missing key = (%q, %v), want empty", v, err)
	}
	if err := db.SetKV(ctx, database, key, "one"); err != nil {
		t.Fatalf("SetKV: %v", err)
	}
	if err := db.SetKV(ctx, database, key, "two"); err != nil {
		t.Fatalf("SetKV update: %v", err)
	}
	v, err := db.GetKV(ctx, database, key)
	if err != nil {
		t.Fatalf("GetKV: %v", err)
	}
	if v != "two" {
		t.Errorf("GetKV = %q, want two", v)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	database := testutil.SetupTestDB(t)
	// SetupTestDB already migrated; a second run must be harmless.
	if err := db.Migrate(context.Background(), database); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}
