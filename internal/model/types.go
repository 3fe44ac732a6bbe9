// Package model defines the configuration and session-state types shared
// across the imapget packages.
package model

import "github.com/google/uuid"

// NewRunID generates a UUIDv7 (time-ordered) identifier for one run,
// used as the run's row id in the run-history ledger.
func NewRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails (should never happen).
		return uuid.New().String()
	}
	return id.String()
}

// Config is the immutable set of parameters for one imapget run, built by
// the config loader from defaults, an optional YAML file, and CLI flags.
type Config struct {
	Server   string // hostname or IP of the IMAP server
	AuthFile string // path to a two-line username/password file
	OutDir   string // output directory; assumed to exist

	Port     int    // 143 by default, 993 once Secured is set (unless overridden)
	Mailbox  string // defaults to INBOX
	Secured  bool   // select the TLS transport
	CertFile string // PEM file of trust anchors (only meaningful when Secured)
	CertAddr string // directory of hashed trust anchors (only meaningful when Secured)

	OnlyNew     bool // restrict fetch to messages the server marks \Recent
	OnlyHeaders bool // request BODY[HEADER] instead of BODY[]

	// Additive, all optional, all off by default.
	MirrorBucket string // S3-compatible bucket to mirror written messages to
	StatusAddr   string // host:port for the optional local status server
	HistoryFile  string // override for the run-history SQLite path
}

// Phase is the IMAP session's position in the protocol state machine.
type Phase int

const (
	Disconnected Phase = iota
	AwaitingGreeting
	Connected
	LoggedIn
	Selected
	Searching
	Fetching
	LoggingOut
)

func (p Phase) String() string {
	switch p {
	case Disconnected:
		return "disconnected"
	case AwaitingGreeting:
		return "awaiting-greeting"
	case Connected:
		return "connected"
	case LoggedIn:
		return "logged-in"
	case Selected:
		return "selected"
	case Searching:
		return "searching"
	case Fetching:
		return "fetching"
	case LoggingOut:
		return "logging-out"
	default:
		return "unknown"
	}
}
