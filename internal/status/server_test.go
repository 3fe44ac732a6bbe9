package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/N3kkii/imapget/internal/model"
)

func TestStatusEndpointReflectsPublishedSnapshot(t *testing.T) {
	pub := NewPublisher("imap.example.com", "INBOX")
	pub.Update(model.Fetching, 4, false)

	srv := httptest.NewServer(NewRouter(pub))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatalf("GET /status: %v", err)
	}
	defer resp.Body.Close()

	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if snap.Phase != "fetching" {
		t.Errorf("Phase: got %q, want %q", snap.Phase, "fetching")
	}
	if snap.NDownloaded != 4 {
		t.Errorf("NDownloaded: got %d, want 4", snap.NDownloaded)
	}
	if snap.Server != "imap.example.com" || snap.Mailbox != "INBOX" {
		t.Errorf("got server=%q mailbox=%q", snap.Server, snap.Mailbox)
	}
}
