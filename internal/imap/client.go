// Package imap implements the IMAP4rev1 protocol engine: the response
// lexer, the phase state machine, the command encoder, and the Client that
// ties them to a Transport and a Persistence backend for one session.
package imap

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/N3kkii/imapget/internal/errs"
	"github.com/N3kkii/imapget/internal/model"
)

// Persistence is the narrow interface the state machine needs from the
// persistence layer. Implemented by internal/persist.Store.
type Persistence interface {
	// EnsureUIDValidity compares serverValue to the stored .uidvalidity,
	// creating or rewriting the file, and reports whether it already
	// matched.
	EnsureUIDValidity(serverValue string) (matches bool, err error)

	// LoadUIDNext creates .uidnext with "1" if absent, otherwise returns
	// its stored value.
	LoadUIDNext() (string, error)

	// WriteMessage writes the literal payload for uid to its per-message
	// file, truncating any prior file with the same name.
	WriteMessage(uid, mailbox, server string, data []byte) error

	// AdvanceUIDNext rewrites .uidnext to str(uid + 1). Callers only
	// invoke this during a full, untruncated sync.
	AdvanceUIDNext(uid string) error
}

const readChunk = 8192

// Client drives one IMAP session end to end. All parser and session
// scratch (tag, phase, current FETCH bookkeeping) lives on this struct,
// never in package-level state, so a process can run multiple sessions
// concurrently without interference.
type Client struct {
	cfg   model.Config
	tr    Transport
	lex   *Lexer
	store Persistence
	log   *log.Logger

	phase model.Phase
	tag   int

	uidvalidityMatches bool
	uidnextLocal       string
	synced             bool
	newUIDs            []string
	nDownloaded        int

	// Per-FETCH-response scratch, valid between a "* … FETCH … {n}"
	// header and the closing ")" that terminates the FETCH response.
	curUID    string
	curNBytes int

	onPhase func(model.Phase)
}

// NewClient wires a Client to an already-open Transport and a Persistence
// backend. The command tag counter starts at 1.
func NewClient(cfg model.Config, tr Transport, store Persistence, logger *log.Logger) *Client {
	return &Client{
		cfg:          cfg,
		tr:           tr,
		lex:          NewLexer(),
		store:        store,
		log:          logger,
		phase:        model.Disconnected,
		tag:          1,
		uidnextLocal: "1",
	}
}

// OnPhaseChange installs a hook invoked whenever the session transitions
// phase, used by the optional status server to publish live progress.
func (c *Client) OnPhaseChange(fn func(model.Phase)) {
	c.onPhase = fn
}

func (c *Client) setPhase(p model.Phase) {
	c.phase = p
	if c.onPhase != nil {
		c.onPhase(p)
	}
}

// Phase returns the client's current session phase.
func (c *Client) Phase() model.Phase { return c.phase }

// NDownloaded returns the count of messages successfully written this
// session.
func (c *Client) NDownloaded() int { return c.nDownloaded }

// UIDValidityMatches reports whether the server's UIDVALIDITY matched the
// value stored on disk when SELECT ran.
func (c *Client) UIDValidityMatches() bool { return c.uidvalidityMatches }

// UIDNextLocal returns the locally-stored UIDNEXT value loaded during
// SELECT.
func (c *Client) UIDNextLocal() string { return c.uidnextLocal }

// Synced reports whether the server's UIDNEXT equalled the stored value,
// meaning there is nothing new to fetch.
func (c *Client) Synced() bool { return c.synced }

// AwaitGreeting blocks until the server's "* OK" greeting arrives.
func (c *Client) AwaitGreeting() error {
	c.setPhase(model.AwaitingGreeting)
	return c.runUntilComplete("")
}

// Login sends LOGIN user pass and waits for the tagged completion.
func (c *Client) Login(user, pass string) error {
	cmd := fmt.Sprintf("LOGIN %s %s", user, pass)
	logged := fmt.Sprintf("LOGIN %s ****", user) // never log the password
	if err := c.sendCommand(cmd, logged); err != nil {
		return err
	}
	if err := c.runUntilComplete("Invalid credentials."); err != nil {
		return err
	}
	c.advanceTag()
	c.setPhase(model.LoggedIn)
	return nil
}

// Select sends SELECT mailbox. UIDVALIDITY/UIDNEXT response codes are
// extracted as a side effect while the command is in flight.
func (c *Client) Select(mailbox string) error {
	cmd := "SELECT " + mailbox
	if err := c.sendCommand(cmd, cmd); err != nil {
		return err
	}
	if err := c.runUntilComplete("Mailbox does not exist."); err != nil {
		return err
	}
	c.advanceTag()
	c.setPhase(model.Selected)
	return nil
}

// SearchNew issues UID SEARCH NEW and returns the UIDs the server reports.
//
// The \Recent flag this relies on is session-scoped per RFC 3501: a second
// client racing for the same mailbox may see a different result. This is
// preserved deliberately, not "fixed" — see DESIGN.md.
func (c *Client) SearchNew() ([]string, error) {
	c.setPhase(model.Searching)
	c.newUIDs = nil
	if err := c.sendCommand("UID SEARCH NEW", "UID SEARCH NEW"); err != nil {
		return nil, err
	}
	if err := c.runUntilComplete("Search failed."); err != nil {
		return nil, err
	}
	c.advanceTag()
	c.setPhase(model.Selected)
	return c.newUIDs, nil
}

// fetchSpec returns the FETCH data item to request: full body, or headers
// only when configured for a lighter-weight sync.
func (c *Client) fetchSpec() string {
	if c.cfg.OnlyHeaders {
		return "BODY[HEADER]"
	}
	return "BODY[]"
}

// FetchSet issues UID FETCH <uidSet> (SPEC) and streams every literal
// payload it receives to Persistence until the tagged completion arrives.
func (c *Client) FetchSet(uidSet string) error {
	c.setPhase(model.Fetching)
	cmd := fmt.Sprintf("UID FETCH %s (%s)", uidSet, c.fetchSpec())
	if err := c.sendCommand(cmd, cmd); err != nil {
		return err
	}
	if err := c.runUntilComplete("Fetch failed."); err != nil {
		return err
	}
	c.advanceTag()
	c.setPhase(model.Selected)
	return nil
}

// FetchOne issues UID FETCH <uid> (SPEC) for one UID, used in only_new
// mode where newly-seen UIDs are fetched one command at a time rather than
// as a single ranged FETCH.
func (c *Client) FetchOne(uid string) error {
	return c.FetchSet(uid)
}

// Logout sends LOGOUT and waits for either a tagged OK or an untagged
// "* BYE".
func (c *Client) Logout() error {
	c.setPhase(model.LoggingOut)
	if err := c.sendCommand("LOGOUT", "LOGOUT"); err != nil {
		return err
	}
	err := c.runUntilComplete("Logout failed.")
	if err == nil {
		c.advanceTag()
	}
	c.setPhase(model.Disconnected)
	return err
}

// --- command encoding -------------------------------------------------

// sendCommand constructs the wire form "A<tag> <cmd>\r\n" and writes it as
// a single contiguous write. logged is what gets written to the debug log
// in place of cmd, so secrets (the LOGIN password) never reach a log line.
func (c *Client) sendCommand(cmd, logged string) error {
	tagStr := "A" + strconv.Itoa(c.tag)
	wire := tagStr + " " + cmd + "\r\n"
	if c.log != nil {
		c.log.Printf("DEBUG: > %s %s", tagStr, logged)
	}
	if _, err := c.tr.Write([]byte(wire)); err != nil {
		return errs.Wrapf(errs.ErrIO, "write command: %v", err)
	}
	return nil
}

func (c *Client) advanceTag() { c.tag++ }

// --- read/parse loop ----------------------------------------------------

// runUntilComplete reads from the transport and dispatches lexed lines and
// literals until the current command's tagged completion arrives.
// refusalMsg is the phase-specific message used if the server answers NO;
// BAD always yields "internal error" regardless of phase.
func (c *Client) runUntilComplete(refusalMsg string) error {
	for {
		if c.lex.InLiteralMode() {
			payload, ok, err := c.lex.ReadLiteral()
			if err != nil {
				return errs.Wrapf(errs.ErrViolation, "malformed FETCH literal: %v", err)
			}
			if ok {
				if err := c.handleLiteral(payload); err != nil {
					return err
				}
				continue
			}
		} else {
			line, ok := c.lex.ReadLine()
			if ok {
				done, err := c.handleLine(line, refusalMsg)
				if err != nil {
					return err
				}
				if done {
					return nil
				}
				continue
			}
		}

		buf := make([]byte, readChunk)
		n, err := c.tr.Read(buf)
		if err != nil || n <= 0 {
			return errs.Wrap(errs.ErrViolation, "server closed the connection")
		}
		c.lex.Feed(buf[:n])
	}
}

// handleLine applies the response-line handling rules for exactly one
// line, in the context of the client's current phase.
func (c *Client) handleLine(line, refusalMsg string) (done bool, err error) {
	if c.phase == model.AwaitingGreeting {
		if strings.HasPrefix(line, "* OK") {
			c.setPhase(model.Connected)
			return true, nil
		}
		return false, nil
	}

	tagPrefix := "A" + strconv.Itoa(c.tag)
	if strings.HasPrefix(line, tagPrefix+" ") {
		switch taggedStatus(line, tagPrefix) {
		case "OK":
			return true, nil
		case "NO":
			return true, errs.Wrap(errs.ErrRefused, refusalMsg)
		case "BAD":
			return true, errs.Wrap(errs.ErrViolation, "internal error")
		default:
			return true, errs.Wrapf(errs.ErrViolation, "unexpected tagged response: %s", line)
		}
	}

	if !strings.HasPrefix(line, "*") {
		return false, nil // neither tagged nor untagged; ignore
	}

	switch c.phase {
	case model.LoggedIn:
		if strings.HasPrefix(line, "* OK") {
			if err := c.handleUntaggedOK(line); err != nil {
				return true, err
			}
		}
	case model.Searching:
		if strings.HasPrefix(line, "* SEARCH") {
			fields := strings.Fields(line)
			if len(fields) > 2 {
				c.newUIDs = append(c.newUIDs, fields[2:]...)
			}
		}
	case model.Fetching:
		if err := c.tryBeginFetchLiteral(line); err != nil {
			return true, err
		}
	case model.LoggingOut:
		if strings.HasPrefix(line, "* BYE") {
			return true, nil
		}
	}
	return false, nil
}

func taggedStatus(line, tagPrefix string) string {
	rest := strings.TrimPrefix(line, tagPrefix+" ")
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

// handleUntaggedOK parses a bracketed response code out of an untagged
// "* OK […]" line seen while SELECT is in flight.
func (c *Client) handleUntaggedOK(line string) error {
	open := strings.Index(line, "[")
	closeIdx := strings.Index(line, "]")
	if open < 0 || closeIdx < 0 || closeIdx <= open {
		return nil
	}
	fields := strings.Fields(line[open+1 : closeIdx])
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "UIDVALIDITY":
		if len(fields) < 2 {
			return nil
		}
		// UIDVALIDITY tracking is skipped entirely in only_headers/only_new
		// modes, since neither mode performs a full resync.
		if c.cfg.OnlyHeaders || c.cfg.OnlyNew {
			return nil
		}
		matches, err := c.store.EnsureUIDValidity(fields[1])
		if err != nil {
			return errs.Wrapf(errs.ErrIO, "uidvalidity: %v", err)
		}
		c.uidvalidityMatches = matches

	case "UIDNEXT":
		if len(fields) < 2 {
			return nil
		}
		local, err := c.store.LoadUIDNext()
		if err != nil {
			return errs.Wrapf(errs.ErrIO, "uidnext: %v", err)
		}
		c.uidnextLocal = local
		if fields[1] == local {
			c.synced = true
		}
	}
	return nil
}

// tryBeginFetchLiteral detects a FETCH response header, extracts the UID
// and literal length, and switches the lexer into literal mode.
func (c *Client) tryBeginFetchLiteral(line string) error {
	if !strings.Contains(line, "FETCH") {
		return nil
	}
	uid, ok := extractUID(line)
	if !ok {
		return errs.Wrapf(errs.ErrViolation, "FETCH response missing UID: %s", line)
	}
	n, ok := extractLiteralLen(line)
	if !ok {
		return errs.Wrapf(errs.ErrViolation, "FETCH response missing literal length: %s", line)
	}
	c.curUID = uid
	c.curNBytes = n
	c.lex.BeginLiteral(n)
	return nil
}

// handleLiteral streams a completed FETCH literal payload to persistence
// and advances .uidnext only in full-sync mode.
func (c *Client) handleLiteral(payload []byte) error {
	if err := c.store.WriteMessage(c.curUID, c.cfg.Mailbox, c.cfg.Server, payload); err != nil {
		return errs.Wrapf(errs.ErrIO, "write message UID %s: %v", c.curUID, err)
	}
	c.nDownloaded++

	if !c.cfg.OnlyHeaders && !c.cfg.OnlyNew {
		if err := c.store.AdvanceUIDNext(c.curUID); err != nil {
			return errs.Wrapf(errs.ErrIO, "advance uidnext: %v", err)
		}
	}

	c.curUID = ""
	c.curNBytes = 0
	return nil
}

func extractUID(line string) (string, bool) {
	idx := strings.Index(line, "UID ")
	if idx < 0 {
		return "", false
	}
	rest := line[idx+len("UID "):]
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", false
	}
	return fields[0], true
}

func extractLiteralLen(line string) (int, bool) {
	open := strings.LastIndex(line, "{")
	closeIdx := strings.LastIndex(line, "}")
	if open < 0 || closeIdx < 0 || closeIdx <= open {
		return 0, false
	}
	n, err := strconv.Atoi(line[open+1 : closeIdx])
	if err != nil {
		return 0, false
	}
	return n, true
}
