package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	d := Defaults()
	if d.Port != 143 {
		t.Errorf("Port: got %d, want 143", d.Port)
	}
	if d.Mailbox != "INBOX" {
		t.Errorf("Mailbox: got %q, want %q", d.Mailbox, "INBOX")
	}
}

func TestLoadFileNoPathReturnsBaseUnchanged(t *testing.T) {
	base := Defaults()
	got, err := LoadFile(base, "")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got != base {
		t.Errorf("got %+v, want unchanged %+v", got, base)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "imapget.yaml")
	yaml := "server: imap.example.com\nport: 993\nsecured: true\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	got, err := LoadFile(Defaults(), path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got.Server != "imap.example.com" {
		t.Errorf("Server: got %q, want %q", got.Server, "imap.example.com")
	}
	if got.Port != 993 {
		t.Errorf("Port: got %d, want 993", got.Port)
	}
	if !got.Secured {
		t.Error("Secured: got false, want true")
	}
	// Field the file omits keeps the default.
	if got.Mailbox != "INBOX" {
		t.Errorf("Mailbox: got %q, want default %q", got.Mailbox, "INBOX")
	}
}

func TestLoadFileMissingPathIsFatal(t *testing.T) {
	_, err := LoadFile(Defaults(), "/nonexistent/imapget.yaml")
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}
