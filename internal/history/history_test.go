package history

import (
	"path/filepath"
	"testing"
	"time"
)

func TestStartAndFinishRun(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "history.sqlite3"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	started := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	run, err := db.StartRun("run-1", "imap.example.com", "INBOX", false, false, started)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	if err := db.Finish(run.ID, started.Add(time.Minute), 3, ""); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	last, err := db.LastRun("imap.example.com", "INBOX")
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if last == nil {
		t.Fatal("expected a run, got nil")
	}
	if last.NDownloaded != 3 {
		t.Errorf("NDownloaded: got %d, want 3", last.NDownloaded)
	}
	if last.Error != "" {
		t.Errorf("Error: got %q, want empty", last.Error)
	}
}

func TestLastRunNoneYet(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "history.sqlite3"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	last, err := db.LastRun("imap.example.com", "INBOX")
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if last != nil {
		t.Errorf("expected nil, got %+v", last)
	}
}
