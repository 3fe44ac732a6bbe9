// Package history is a SQLite-backed ledger of past runs, purely additive:
// it records what happened but is never consulted to decide what gets
// fetched (that remains the sidecar files' job, per internal/persist).
package history

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/N3kkii/imapget/internal/errs"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	server       TEXT NOT NULL,
	mailbox      TEXT NOT NULL,
	only_new     INTEGER NOT NULL,
	only_headers INTEGER NOT NULL,
	started_at   DATETIME NOT NULL,
	finished_at  DATETIME,
	n_downloaded INTEGER NOT NULL DEFAULT 0,
	error        TEXT
);
`

// DB is a handle to the run-history database.
type DB struct {
	sql *sql.DB
}

// Open opens or creates the history database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errs.Wrapf(errs.ErrIO, "open history db: %v", err)
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, errs.Wrapf(errs.ErrIO, "init history db: %v", err)
	}
	return &DB{sql: db}, nil
}

// Close releases the database connection.
func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Run is one row of the run-history ledger.
type Run struct {
	ID          string
	Server      string
	Mailbox     string
	OnlyNew     bool
	OnlyHeaders bool
	StartedAt   time.Time
	FinishedAt  time.Time
	NDownloaded int
	Error       string
}

// StartRun inserts a new row with StartedAt set to startedAt, returning the run
// so the caller can fill in FinishedAt/NDownloaded/Error and call Finish.
func (d *DB) StartRun(id, server, mailbox string, onlyNew, onlyHeaders bool, startedAt time.Time) (*Run, error) {
	run := &Run{
		ID:          id,
		Server:      server,
		Mailbox:     mailbox,
		OnlyNew:     onlyNew,
		OnlyHeaders: onlyHeaders,
		StartedAt:   startedAt,
	}
	_, err := d.sql.Exec(
		`INSERT INTO runs (id, server, mailbox, only_new, only_headers, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Server, run.Mailbox, run.OnlyNew, run.OnlyHeaders, run.StartedAt,
	)
	if err != nil {
		return nil, errs.Wrapf(errs.ErrIO, "insert run: %v", err)
	}
	return run, nil
}

// Finish records the outcome of a run started with StartRun. errText is
// empty on success.
func (d *DB) Finish(id string, finishedAt time.Time, nDownloaded int, errText string) error {
	_, err := d.sql.Exec(
		`UPDATE runs SET finished_at = ?, n_downloaded = ?, error = ? WHERE id = ?`,
		finishedAt, nDownloaded, errText, id,
	)
	if err != nil {
		return errs.Wrapf(errs.ErrIO, "update run: %v", err)
	}
	return nil
}

// LastRun returns the most recently started run for server+mailbox, or
// nil if none exists yet.
func (d *DB) LastRun(server, mailbox string) (*Run, error) {
	row := d.sql.QueryRow(
		`SELECT id, server, mailbox, only_new, only_headers, started_at, finished_at, n_downloaded, error
		 FROM runs WHERE server = ? AND mailbox = ? ORDER BY started_at DESC LIMIT 1`,
		server, mailbox,
	)

	var run Run
	var finishedAt sql.NullTime
	var errText sql.NullString
	err := row.Scan(&run.ID, &run.Server, &run.Mailbox, &run.OnlyNew, &run.OnlyHeaders,
		&run.StartedAt, &finishedAt, &run.NDownloaded, &errText)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrapf(errs.ErrIO, "query last run: %v", err)
	}
	run.FinishedAt = finishedAt.Time
	run.Error = errText.String
	return &run, nil
}
