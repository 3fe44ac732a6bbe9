package imap

import (
	"bytes"
	"math/rand"
	"testing"
)

// TestLexerReadLine verifies plain CRLF line extraction of two lines fed
// in a single chunk.
func TestLexerReadLine(t *testing.T) {
	l := NewLexer()
	l.Feed([]byte("A1 OK done\r\n* SEARCH 1 2 3\r\n"))

	line, ok := l.ReadLine()
	if !ok || line != "A1 OK done" {
		t.Fatalf("got (%q, %v), want (%q, true)", line, ok, "A1 OK done")
	}

	line, ok = l.ReadLine()
	if !ok || line != "* SEARCH 1 2 3" {
		t.Fatalf("got (%q, %v), want (%q, true)", line, ok, "* SEARCH 1 2 3")
	}

	if _, ok := l.ReadLine(); ok {
		t.Fatal("expected no more complete lines")
	}
}

// TestLexerLiteralFraming checks that for random N, random payload bytes
// (including embedded CRLF), and random transport-boundary chunking, the
// lexer delivers exactly N bytes per literal and resumes line mode
// immediately after the literal's closing ")\r\n".
func TestLexerLiteralFraming(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for trial := 0; trial < 50; trial++ {
		n := rng.Intn(500)
		payload := make([]byte, n)
		for i := range payload {
			// Bias toward CRLF bytes so literals containing \r\n are
			// exercised, not just printable ASCII.
			switch rng.Intn(4) {
			case 0:
				payload[i] = '\r'
			case 1:
				payload[i] = '\n'
			default:
				payload[i] = byte('a' + rng.Intn(26))
			}
		}

		var wire bytes.Buffer
		wire.WriteString("* 1 FETCH (UID 1 BODY[] {")
		wire.WriteString(itoa(n))
		wire.WriteString("}\r\n")
		wire.Write(payload)
		wire.WriteString(")\r\n")
		wire.WriteString("A1 OK done\r\n")

		l := NewLexer()
		data := wire.Bytes()
		pos := 0
		for pos < len(data) {
			chunk := 1 + rng.Intn(7)
			if pos+chunk > len(data) {
				chunk = len(data) - pos
			}
			l.Feed(data[pos : pos+chunk])
			pos += chunk
		}

		header, ok := l.ReadLine()
		if !ok {
			t.Fatalf("trial %d: header line never completed", trial)
		}
		if !bytes.Contains([]byte(header), []byte("{"+itoa(n)+"}")) {
			t.Fatalf("trial %d: header %q missing literal length %d", trial, header, n)
		}

		l.BeginLiteral(n)
		var got []byte
		for {
			payloadOut, ok, err := l.ReadLiteral()
			if err != nil {
				t.Fatalf("trial %d: %v", trial, err)
			}
			if ok {
				got = payloadOut
				break
			}
			// Need more bytes than were fed in this pass; since the full
			// wire was already fed above this should not happen, but
			// guard against an infinite loop regardless.
			t.Fatalf("trial %d: literal never completed despite full feed", trial)
		}

		if !bytes.Equal(got, payload) {
			t.Fatalf("trial %d: literal payload mismatch: got %d bytes, want %d bytes", trial, len(got), len(payload))
		}

		tail, ok := l.ReadLine()
		if !ok || tail != "A1 OK done" {
			t.Fatalf("trial %d: got tail (%q, %v), want (%q, true)", trial, tail, ok, "A1 OK done")
		}
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
