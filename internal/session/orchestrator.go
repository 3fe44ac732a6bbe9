// Package session sequences one run end to end: connect, login, select,
// search/fetch, logout — and wires the optional ambient components (run
// history, status server, remote mirror) around that core sequence
// without letting any of them influence what gets fetched.
package session

import (
	"fmt"
	"log"
	"time"

	"github.com/N3kkii/imapget/internal/config"
	"github.com/N3kkii/imapget/internal/history"
	"github.com/N3kkii/imapget/internal/imap"
	"github.com/N3kkii/imapget/internal/mirror"
	"github.com/N3kkii/imapget/internal/model"
	"github.com/N3kkii/imapget/internal/persist"
	"github.com/N3kkii/imapget/internal/status"
)

// Result is what a Run prints to the operator on success.
type Result struct {
	Synced      bool
	NDownloaded int
}

// Summary renders the one-line completion message printed on success,
// varying with the flags that shaped this run.
func (r Result) Summary(cfg model.Config) string {
	if r.Synced {
		return "All emails from server are already downloaded."
	}
	switch {
	case cfg.OnlyNew:
		return fmt.Sprintf("Downloaded %d new mails.", r.NDownloaded)
	case cfg.OnlyHeaders:
		return fmt.Sprintf("Downloaded %d email headers.", r.NDownloaded)
	default:
		return fmt.Sprintf("Downloaded %d emails.", r.NDownloaded)
	}
}

// Run executes one full session against cfg, returning the user-facing
// error message that should be printed as "Runtime error: <message>" on
// failure, and the Result to summarize on success.
func Run(cfg model.Config, logger *log.Logger) (Result, error) {
	user, pass, err := persist.ReadAuthFile(cfg.AuthFile)
	if err != nil {
		return Result{}, err
	}

	var mirrorClient *mirror.Client
	if cfg.MirrorBucket != "" {
		mirrorClient, err = mirror.New(cfg.MirrorBucket)
		if err != nil {
			logger.Printf("WARN: mirror disabled: %v", err)
			mirrorClient = nil
		}
	}
	store := persist.NewStore(cfg.OutDir, mirrorStoreAdapter(mirrorClient))

	var hdb *history.DB
	histPath := cfg.HistoryFile
	if histPath == "" {
		histPath = cfg.OutDir + "/.imapget-history.sqlite3"
	}
	hdb, err = history.Open(histPath)
	if err != nil {
		logger.Printf("WARN: run history disabled: %v", err)
		hdb = nil
	}
	defer hdb.Close()

	var pub *status.Publisher
	var statusSrv *status.Server
	if cfg.StatusAddr != "" {
		pub = status.NewPublisher(cfg.Server, cfg.Mailbox)
		statusSrv = status.Start(cfg.StatusAddr, pub)
		defer statusSrv.Stop()
	}

	runID := model.NewRunID()
	var run *history.Run
	if hdb != nil {
		if r, startErr := hdb.StartRun(runID, cfg.Server, cfg.Mailbox, cfg.OnlyNew, cfg.OnlyHeaders, timeNow()); startErr == nil {
			run = r
		} else {
			logger.Printf("WARN: run history start failed: %v", startErr)
		}
	}

	result, runErr := runSession(cfg, user, pass, store, logger, pub)

	if hdb != nil && run != nil {
		errText := ""
		if runErr != nil {
			errText = runErr.Error()
		}
		if finishErr := hdb.Finish(run.ID, timeNow(), result.NDownloaded, errText); finishErr != nil {
			logger.Printf("WARN: run history finish failed: %v", finishErr)
		}
	}

	return result, runErr
}

func mirrorStoreAdapter(c *mirror.Client) persist.Mirror {
	if c == nil {
		return nil
	}
	return c
}

// timeNow exists only so the one non-deterministic call in this package is
// in one place; it is a thin wrapper rather than a direct time.Now() call
// scattered through Run.
func timeNow() time.Time { return time.Now() }

func runSession(cfg model.Config, user, pass string, store *persist.Store, logger *log.Logger, pub *status.Publisher) (Result, error) {
	tr, err := imap.Dial(cfg.Server, cfg.Port, cfg.Secured, cfg.CertFile, cfg.CertAddr)
	if err != nil {
		return Result{}, err
	}
	defer tr.Close()

	client := imap.NewClient(cfg, tr, store, logger)
	if pub != nil {
		client.OnPhaseChange(func(p model.Phase) {
			pub.Update(p, client.NDownloaded(), client.Synced())
		})
	}

	fatal := func(err error) (Result, error) {
		if client.Phase() != model.Disconnected {
			client.Logout()
		}
		return Result{NDownloaded: client.NDownloaded()}, err
	}

	if err := client.AwaitGreeting(); err != nil {
		return fatal(err)
	}
	if err := client.Login(user, pass); err != nil {
		return fatal(err)
	}
	if err := client.Select(cfg.Mailbox); err != nil {
		return fatal(err)
	}

	switch {
	case cfg.OnlyNew:
		uids, err := client.SearchNew()
		if err != nil {
			return fatal(err)
		}
		for _, uid := range uids {
			if err := client.FetchOne(uid); err != nil {
				return fatal(err)
			}
		}

	case client.Synced():
		// Nothing to do; the server's UIDNEXT already matches ours.

	case !client.UIDValidityMatches():
		if err := client.FetchSet("1:*"); err != nil {
			return fatal(err)
		}

	default:
		if err := client.FetchSet(client.UIDNextLocal() + ":*"); err != nil {
			return fatal(err)
		}
	}

	if err := client.Logout(); err != nil {
		return Result{NDownloaded: client.NDownloaded()}, err
	}

	return Result{Synced: client.Synced(), NDownloaded: client.NDownloaded()}, nil
}

// BuildConfig assembles a model.Config from defaults, an optional YAML
// file, and the already-parsed CLI overlay, matching the precedence
// config.LoadFile documents. The -T/port-993 rewrite is the CLI layer's
// job (it alone knows whether -p was explicitly passed) and is applied by
// cliOverlay before this returns.
func BuildConfig(configFile string, cliOverlay func(model.Config) model.Config) (model.Config, error) {
	cfg := config.Defaults()
	cfg, err := config.LoadFile(cfg, configFile)
	if err != nil {
		return model.Config{}, err
	}
	if cliOverlay != nil {
		cfg = cliOverlay(cfg)
	}
	return cfg, nil
}
