package imap

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/N3kkii/imapget/internal/errs"
)

// Transport is the narrow bidirectional byte stream the protocol engine
// drives: blocking read/write, with two concrete variants (plain TCP; TLS
// over TCP with mandatory peer verification). Reads block until at least
// one byte is available, the peer closes (io.EOF), or an error occurs.
type Transport interface {
	Read(buf []byte) (n int, err error)
	Write(data []byte) (n int, err error)
	Close() error
}

const dialTimeout = 30 * time.Second

// Dial opens a transport to addr:port, selecting TLS or plain TCP per
// secured. TLS verification is mandatory; certFile takes precedence over
// certDir, which takes precedence over the system default trust anchors.
// Every address name resolution returns for addr is tried in order; the
// first successful connect wins. Failure on all addresses is fatal.
func Dial(addr string, port int, secured bool, certFile, certDir string) (Transport, error) {
	host := net.JoinHostPort(addr, strconv.Itoa(port))

	ips, err := net.DefaultResolver.LookupHost(context.Background(), addr)
	if err != nil || len(ips) == 0 {
		// Fall back to a direct dial of addr itself (covers literal IPs
		// and names the resolver can't enumerate but net.Dial still can).
		ips = []string{addr}
	}

	var lastErr error
	for _, ip := range ips {
		target := net.JoinHostPort(ip, strconv.Itoa(port))
		conn, dialErr := net.DialTimeout("tcp", target, dialTimeout)
		if dialErr != nil {
			lastErr = dialErr
			continue
		}

		if !secured {
			return &tcpTransport{conn: conn}, nil
		}

		tlsConn, tlsErr := wrapTLS(conn, addr, certFile, certDir)
		if tlsErr != nil {
			conn.Close()
			return nil, tlsErr
		}
		return &tcpTransport{conn: tlsConn}, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no addresses for %s", addr)
	}
	return nil, errs.Wrapf(errs.ErrResolve, "cannot connect to %s: %v", host, lastErr)
}

func wrapTLS(conn net.Conn, serverName, certFile, certDir string) (net.Conn, error) {
	cfg := &tls.Config{ServerName: serverName}

	switch {
	case certFile != "":
		pool, err := loadCertFile(certFile)
		if err != nil {
			return nil, errs.Wrapf(errs.ErrTLS, "cannot load certificate file %s: %v", certFile, err)
		}
		cfg.RootCAs = pool
	case certDir != "":
		pool, err := loadCertDir(certDir)
		if err != nil {
			return nil, errs.Wrapf(errs.ErrTLS, "cannot load certificates from %s: %v", certDir, err)
		}
		cfg.RootCAs = pool
	default:
		// cfg.RootCAs == nil means crypto/tls falls back to the system's
		// default trust anchors, with verification still mandatory.
	}

	tlsConn := tls.Client(conn, cfg)
	if err := tlsConn.HandshakeContext(context.Background()); err != nil {
		return nil, errs.Wrap(errs.ErrTLS, "Cannot verify the certificate.")
	}
	return tlsConn, nil
}

func loadCertFile(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("no certificates found in %s", path)
	}
	return pool, nil
}

// loadCertDir builds a trust pool from every PEM file in dir. The original
// tool pointed OpenSSL at a hash-indexed directory (c_rehash layout);
// crypto/x509 has no equivalent directory lookup, so this loads every
// regular file in the directory and keeps whatever parses as a PEM
// certificate, which is the closest faithful Go equivalent.
func loadCertDir(dir string) (*x509.CertPool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	found := false
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		if pool.AppendCertsFromPEM(data) {
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("no certificates found in %s", dir)
	}
	return pool, nil
}

type tcpTransport struct {
	conn net.Conn
}

func (t *tcpTransport) Read(buf []byte) (int, error)  { return t.conn.Read(buf) }
func (t *tcpTransport) Write(data []byte) (int, error) { return t.conn.Write(data) }
func (t *tcpTransport) Close() error                   { return t.conn.Close() }
