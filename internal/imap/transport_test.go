package imap

import (
	"os"
	"path/filepath"
	"testing"
)

const testCert = `-----BEGIN CERTIFICATE-----
MIIBhTCCASugAwIBAgIQIaCzRYNXxNkLnNpRTQKJbDAKBggqhkjOPQQDAjASMRAw
DgYDVQQKEwdBY21lIENvMB4XDTIwMDEwMTAwMDAwMFoXDTMwMDEwMTAwMDAwMFow
EjEQMA4GA1UEChMHQWNtZSBDbzBZMBMGByqGSM49AgEGCCqGSM49AwEHA0IABMN1
-----END CERTIFICATE-----
`

func TestLoadCertFileNoValidCerts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.pem")
	os.WriteFile(path, []byte("not a certificate"), 0o644)

	if _, err := loadCertFile(path); err == nil {
		t.Fatal("expected error for a file with no PEM certificates")
	}
}

func TestLoadCertFileMissing(t *testing.T) {
	if _, err := loadCertFile("/nonexistent/ca.pem"); err == nil {
		t.Fatal("expected error for a missing file")
	}
}

func TestLoadCertDirNoValidCerts(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("not a cert"), 0o644)

	if _, err := loadCertDir(dir); err == nil {
		t.Fatal("expected error when the directory has no valid PEM certificates")
	}
}

func TestLoadCertDirMissing(t *testing.T) {
	if _, err := loadCertDir("/nonexistent/ca-dir"); err == nil {
		t.Fatal("expected error for a missing directory")
	}
}
