package persist

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/N3kkii/imapget/internal/errs"
)

const (
	uidvalidityFile = ".uidvalidity"
	uidnextFile     = ".uidnext"
)

// Store implements imap.Persistence against plain files under one output
// directory. The sidecar files are not keyed by mailbox, deliberately: one
// OutDir tracks exactly one mailbox's sync state at a time (see DESIGN.md).
type Store struct {
	dir    string
	mirror Mirror
}

// Mirror is the optional best-effort fan-out target for written messages.
// A nil Mirror disables mirroring entirely.
type Mirror interface {
	PutBytes(key string, data []byte) error
}

// NewStore roots a Store at dir, which is assumed to already exist.
func NewStore(dir string, mirror Mirror) *Store {
	return &Store{dir: dir, mirror: mirror}
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// EnsureUIDValidity compares serverValue against the stored .uidvalidity.
// If the file is absent, it is created holding serverValue and matches is
// reported false: there is no prior value to have matched, so the caller
// must treat this as a fresh mailbox and fetch everything. If present, its
// contents are compared verbatim; a mismatch rewrites the file with
// serverValue and matches is false, signalling the caller to treat every
// message as new.
func (s *Store) EnsureUIDValidity(serverValue string) (bool, error) {
	p := s.path(uidvalidityFile)
	existing, err := os.ReadFile(p)
	if err != nil {
		if !os.IsNotExist(err) {
			return false, errs.Wrapf(errs.ErrIO, "read %s: %v", p, err)
		}
		if writeErr := os.WriteFile(p, []byte(serverValue), 0o644); writeErr != nil {
			return false, errs.Wrapf(errs.ErrIO, "write %s: %v", p, writeErr)
		}
		return false, nil
	}

	if strings.TrimSpace(string(existing)) == serverValue {
		return true, nil
	}
	if writeErr := os.WriteFile(p, []byte(serverValue), 0o644); writeErr != nil {
		return false, errs.Wrapf(errs.ErrIO, "write %s: %v", p, writeErr)
	}
	return false, nil
}

// LoadUIDNext creates .uidnext holding "1" if absent, otherwise returns its
// stored value unmodified.
func (s *Store) LoadUIDNext() (string, error) {
	p := s.path(uidnextFile)
	existing, err := os.ReadFile(p)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", errs.Wrapf(errs.ErrIO, "read %s: %v", p, err)
		}
		if writeErr := os.WriteFile(p, []byte("1"), 0o644); writeErr != nil {
			return "", errs.Wrapf(errs.ErrIO, "write %s: %v", p, writeErr)
		}
		return "1", nil
	}
	return strings.TrimSpace(string(existing)), nil
}

// AdvanceUIDNext rewrites .uidnext to str(uid+1). The caller (imap.Client)
// only invokes this during a full, untruncated sync; this function itself
// performs no gating.
func (s *Store) AdvanceUIDNext(uid string) error {
	n, err := parseUint(uid)
	if err != nil {
		return errs.Wrapf(errs.ErrViolation, "non-numeric UID %q: %v", uid, err)
	}
	p := s.path(uidnextFile)
	if writeErr := os.WriteFile(p, []byte(formatUint(n+1)), 0o644); writeErr != nil {
		return errs.Wrapf(errs.ErrIO, "write %s: %v", p, writeErr)
	}
	return nil
}

func parseUint(s string) (uint64, error) {
	var n uint64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errs.Wrapf(errs.ErrViolation, "invalid digit %q", r)
		}
		n = n*10 + uint64(r-'0')
	}
	return n, nil
}

func formatUint(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
