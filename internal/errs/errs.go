// Package errs classifies every fatal condition imapget can raise into a
// small taxonomy, using eris-wrapped sentinel errors so the orchestrator
// can both print a phase-specific message and decide the process exit
// code without string-matching error text.
package errs

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Kind sentinels. Wrap one of these with Wrap/Wrapf to attach a concrete
// message; classify a returned error with Is(err, KindX).
var (
	// ErrConfig: missing mandatory argument, malformed port. Reported
	// before any network I/O.
	ErrConfig = eris.New("configuration error")

	// ErrResolve: DNS returned nothing usable, or every candidate address
	// refused the connection.
	ErrResolve = eris.New("resolution/connect failure")

	// ErrTLS: context creation, trust-anchor load, handshake, or
	// certificate verification failed.
	ErrTLS = eris.New("TLS failure")

	// ErrAuthFile: auth file could not be opened, or had fewer than two
	// lines.
	ErrAuthFile = eris.New("auth-file failure")

	// ErrRefused: tagged NO at LOGIN/SELECT/FETCH/SEARCH.
	ErrRefused = eris.New("protocol refusal")

	// ErrViolation: tagged BAD at any phase, or unexpected EOF.
	ErrViolation = eris.New("protocol violation")

	// ErrIO: a sidecar or message file could not be opened or written.
	ErrIO = eris.New("I/O failure")

	// ErrMirror: the optional remote mirror write failed. Never fatal —
	// always logged and discarded by the caller, never propagated past
	// the persistence layer.
	ErrMirror = eris.New("mirror failure")
)

// taggedError pairs a display message with the kind sentinel it was
// raised under. Error() returns msg verbatim — the exact phase-specific
// text a caller wants on stderr ("Invalid credentials.", "Cannot verify
// the certificate.") — while Unwrap exposes kind so eris.Is still
// classifies it without eris's own wrap-chain text leaking into stderr.
type taggedError struct {
	kind error
	msg  string
}

func (e *taggedError) Error() string { return e.msg }
func (e *taggedError) Unwrap() error { return e.kind }

// Wrap attaches msg to kind, preserving kind's identity for eris.Is.
func Wrap(kind error, msg string) error {
	return &taggedError{kind: kind, msg: msg}
}

// Wrapf attaches a formatted msg to kind.
func Wrapf(kind error, format string, args ...any) error {
	return &taggedError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Is reports whether err was built from kind via Wrap/Wrapf.
func Is(err, kind error) bool {
	return eris.Is(err, kind)
}
