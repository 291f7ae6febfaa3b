package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	if err := j.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return j
}

func TestRecordAndRecent(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, doc := range []string{"a.html", "b.html", "a.html"} {
		err := j.Record(ctx, Entry{
			Document: doc,
			Trigger:  "keyboard",
			Size:     100 + i,
			SavedAt:  base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	entries, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Recent returned %d entries, want 3", len(entries))
	}
	if entries[0].Document != "a.html" || entries[0].Size != 102 {
		t.Errorf("newest entry = %+v, want latest a.html save", entries[0])
	}

	forA, err := j.ForDocument(ctx, "a.html", 10)
	if err != nil {
		t.Fatalf("ForDocument: %v", err)
	}
	if len(forA) != 2 {
		t.Errorf("ForDocument(a.html) = %d entries, want 2", len(forA))
	}
}

func TestRecentLimit(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := j.Record(ctx, Entry{Document: "a.html", Trigger: "object-url", Size: i}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	entries, err := j.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Recent(2) = %d entries", len(entries))
	}
}

func TestForgetAndMove(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	if err := j.Record(ctx, Entry{Document: "old.html", Trigger: "keyboard", Size: 1}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := j.Move(ctx, "old.html", "new.html"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	moved, err := j.ForDocument(ctx, "new.html", 10)
	if err != nil || len(moved) != 1 {
		t.Fatalf("ForDocument after move = %d entries, err %v", len(moved), err)
	}

	if err := j.Forget(ctx, "new.html"); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	gone, err := j.ForDocument(ctx, "new.html", 10)
	if err != nil {
		t.Fatalf("ForDocument: %v", err)
	}
	if len(gone) != 0 {
		t.Errorf("entries survive Forget: %d", len(gone))
	}
}

func TestInitIsIdempotent(t *testing.T) {
	j := newTestJournal(t)
	if err := j.Init(context.Background()); err != nil {
		t.Fatalf("second Init: %v", err)
	}
}

func TestRecordSaveSwallowsErrors(t *testing.T) {
	j := newTestJournal(t)
	j.db.Close()
	// Must not panic or fail the caller.
	j.RecordSave("a.html", "keyboard", 10)
}
