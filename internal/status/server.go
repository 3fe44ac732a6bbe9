// Package status is the optional local HTTP endpoint that exposes a
// session's live phase and counters as JSON while a fetch is in progress.
package status

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/N3kkii/imapget/internal/model"
)

// Snapshot is the JSON body GET /status returns.
type Snapshot struct {
	Phase       string `json:"phase"`
	Server      string `json:"server"`
	Mailbox     string `json:"mailbox"`
	NDownloaded int    `json:"n_downloaded"`
	Synced      bool   `json:"synced"`
}

// Publisher holds the current snapshot under a mutex, updated by the
// orchestrator on every phase transition and read by the HTTP handler. It
// never issues IMAP commands and holds no protocol state, so the "one
// goroutine drives the wire" property of the protocol engine is unaffected
// by running this alongside it.
type Publisher struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewPublisher returns a Publisher seeded with server/mailbox, phase
// "disconnected".
func NewPublisher(server, mailbox string) *Publisher {
	p := &Publisher{}
	p.snap = Snapshot{Phase: model.Disconnected.String(), Server: server, Mailbox: mailbox}
	return p
}

// Update replaces the published snapshot's mutable fields.
func (p *Publisher) Update(phase model.Phase, nDownloaded int, synced bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap.Phase = phase.String()
	p.snap.NDownloaded = nDownloaded
	p.snap.Synced = synced
}

func (p *Publisher) current() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// NewRouter builds the chi router serving GET /status from pub.
func NewRouter(pub *Publisher) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.Encode(pub.current())
	})
	return r
}

// Server wraps an http.Server bound to addr, started and stopped alongside
// the orchestrator's own lifecycle.
type Server struct {
	httpServer *http.Server
}

// Start launches the status server in its own goroutine. A listen error is
// discarded and does not affect the session.
func Start(addr string, pub *Publisher) *Server {
	hs := &http.Server{Addr: addr, Handler: NewRouter(pub)}
	go hs.ListenAndServe()
	return &Server{httpServer: hs}
}

// Stop shuts the server down; safe to call on a nil *Server.
func (s *Server) Stop() {
	if s == nil || s.httpServer == nil {
		return
	}
	s.httpServer.Close()
}
