// Package persist is the file-based persistence layer: credential
// loading, the .uidvalidity/.uidnext sidecar files that are imapget's sole
// source of sync truth, and per-UID message files.
package persist

import (
	"bufio"
	"os"
	"strings"

	"github.com/N3kkii/imapget/internal/errs"
)

// ReadAuthFile reads the first two non-empty lines of path as username and
// password. Trailing CR is stripped so files saved with CRLF line endings
// still parse correctly.
func ReadAuthFile(path string) (user, pass string, err error) {
	f, openErr := os.Open(path)
	if openErr != nil {
		return "", "", errs.Wrapf(errs.ErrAuthFile, "cannot open %s: %v", path, openErr)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() && len(lines) < 2 {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if scanErr := scanner.Err(); scanErr != nil {
		return "", "", errs.Wrapf(errs.ErrAuthFile, "reading %s: %v", path, scanErr)
	}
	if len(lines) < 2 {
		return "", "", errs.Wrapf(errs.ErrAuthFile, "%s must contain a username and password line", path)
	}
	return lines[0], lines[1], nil
}
