package persist

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureUIDValidityFirstRun(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, nil)

	matches, err := s.EnsureUIDValidity("42")
	if err != nil {
		t.Fatalf("EnsureUIDValidity: %v", err)
	}
	if matches {
		t.Error("first run: expected matches=false (no prior value, full fetch required)")
	}

	got, err := os.ReadFile(filepath.Join(dir, uidvalidityFile))
	if err != nil {
		t.Fatalf("read .uidvalidity: %v", err)
	}
	if string(got) != "42" {
		t.Errorf("got %q, want %q", got, "42")
	}
}

func TestEnsureUIDValiditySameValue(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, nil)
	s.EnsureUIDValidity("42")

	matches, err := s.EnsureUIDValidity("42")
	if err != nil {
		t.Fatalf("EnsureUIDValidity: %v", err)
	}
	if !matches {
		t.Error("expected matches=true when value unchanged")
	}
}

func TestEnsureUIDValidityChangedValue(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, nil)
	s.EnsureUIDValidity("42")

	matches, err := s.EnsureUIDValidity("99")
	if err != nil {
		t.Fatalf("EnsureUIDValidity: %v", err)
	}
	if matches {
		t.Error("expected matches=false after UIDVALIDITY changed")
	}

	got, _ := os.ReadFile(filepath.Join(dir, uidvalidityFile))
	if string(got) != "99" {
		t.Errorf(".uidvalidity not rewritten: got %q, want %q", got, "99")
	}
}

func TestLoadUIDNextDefaultsToOne(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, nil)

	v, err := s.LoadUIDNext()
	if err != nil {
		t.Fatalf("LoadUIDNext: %v", err)
	}
	if v != "1" {
		t.Errorf("got %q, want %q", v, "1")
	}

	got, _ := os.ReadFile(filepath.Join(dir, uidnextFile))
	if string(got) != "1" {
		t.Errorf(".uidnext not created: got %q", got)
	}
}

func TestAdvanceUIDNext(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, nil)
	s.LoadUIDNext()

	if err := s.AdvanceUIDNext("7"); err != nil {
		t.Fatalf("AdvanceUIDNext: %v", err)
	}

	got, _ := os.ReadFile(filepath.Join(dir, uidnextFile))
	if string(got) != "8" {
		t.Errorf("got %q, want %q", got, "8")
	}
}

func TestWriteMessageFilenameScheme(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, nil)

	if err := s.WriteMessage("5", "INBOX", "mail.example.com", []byte("hello")); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	want := filepath.Join(dir, "5.INBOX.mail.example.com")
	got, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("expected file %s: %v", want, err)
	}
	if string(got) != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
}

func TestWriteMessageTruncatesPriorFile(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, nil)

	s.WriteMessage("5", "INBOX", "srv", []byte("first body, much longer than the second"))
	s.WriteMessage("5", "INBOX", "srv", []byte("second"))

	got, _ := os.ReadFile(filepath.Join(dir, "5.INBOX.srv"))
	if string(got) != "second" {
		t.Errorf("got %q, want %q (truncated, not appended)", got, "second")
	}
}
