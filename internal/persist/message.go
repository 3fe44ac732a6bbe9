package persist

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/N3kkii/imapget/internal/errs"
)

// WriteMessage writes data to OutDir/<UID>.<mailbox>.<server>, truncating
// any file already there with that name (a re-fetch of the same UID, e.g.
// after an interrupted run, simply overwrites). When a Mirror was
// configured, the same bytes are fanned out to it best-effort: a mirror
// failure is logged and otherwise ignored, never returned to the caller.
func (s *Store) WriteMessage(uid, mailbox, server string, data []byte) error {
	name := uid + "." + mailbox + "." + server
	p := filepath.Join(s.dir, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return errs.Wrapf(errs.ErrIO, "write message %s: %v", p, err)
	}

	if s.mirror != nil {
		key := fmt.Sprintf("%s/%s", mailbox, name)
		if err := s.mirror.PutBytes(key, data); err != nil {
			log.Printf("WARN: mirror upload failed for UID %s: %v", uid, errs.Wrap(errs.ErrMirror, err.Error()))
		}
	}
	return nil
}
