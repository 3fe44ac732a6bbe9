// imapget downloads mail from an IMAP4rev1 server into a local directory,
// one file per message, tracking UIDVALIDITY/UIDNEXT so repeated runs
// fetch only what is new.
//
// Usage:
//
//	imapget -a authfile -o outdir [flags] server
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/N3kkii/imapget/internal/model"
	"github.com/N3kkii/imapget/internal/session"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		authFile     = flag.String("a", "", "auth file (required)")
		outDir       = flag.String("o", "", "output directory (required)")
		port         = flag.String("p", "143", "port")
		onlyNew      = flag.Bool("n", false, "only \\Recent messages")
		onlyHeaders  = flag.Bool("h", false, "only headers (BODY[HEADER])")
		mailbox      = flag.String("b", "INBOX", "mailbox")
		secured      = flag.Bool("T", false, "enable TLS")
		certFile     = flag.String("c", "", "TLS trust-anchor file")
		certAddr     = flag.String("C", "", "TLS trust-anchor directory")
		configFile   = flag.String("config", "", "optional YAML config file")
		mirrorBucket = flag.String("mirror-bucket", "", "optional S3-compatible mirror bucket")
		statusAddr   = flag.String("status-addr", "", "optional local status HTTP server (host:port)")
	)
	flag.Usage = printUsage
	flag.Parse()

	if *authFile == "" || *outDir == "" || flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Mandatory arguments not provided.")
		return 1
	}
	server := flag.Arg(0)

	portNum, portErr := strconv.Atoi(*port)
	if portErr != nil {
		fmt.Fprintln(os.Stderr, "port must be a number")
		return 1
	}

	portExplicit := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "p" {
			portExplicit = true
		}
	})

	if *certFile != "" && !*secured || *certAddr != "" && !*secured {
		fmt.Fprintln(os.Stderr, "Warning: -c/-C has no effect without -T.")
	}

	cfg, err := session.BuildConfig(*configFile, func(c model.Config) model.Config {
		c.Server = server
		c.AuthFile = *authFile
		c.OutDir = *outDir
		c.Port = portNum
		c.Mailbox = *mailbox
		c.Secured = *secured
		c.CertFile = *certFile
		c.CertAddr = *certAddr
		c.OnlyNew = *onlyNew
		c.OnlyHeaders = *onlyHeaders
		c.MirrorBucket = *mirrorBucket
		c.StatusAddr = *statusAddr

		if c.Secured && !portExplicit {
			c.Port = 993
		}
		return c
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Runtime error: %s\n", err)
		return 1
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)

	result, err := session.Run(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Runtime error: %s\n", err.Error())
		return 1
	}

	fmt.Println(result.Summary(cfg))
	return 0
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: imapget -a authfile -o outdir [flags] server

Flags:
  -a path            auth file (required)
  -o path             output directory (required)
  -p int              port (default 143 / 993 with -T)
  -n                  only \Recent messages
  -h                  only headers (BODY[HEADER])
  -b name             mailbox (default INBOX)
  -T                  enable TLS
  -c path             TLS trust-anchor file
  -C path             TLS trust-anchor directory
  -config path        optional YAML config file
  -mirror-bucket name optional S3-compatible mirror bucket
  -status-addr host:port optional local status HTTP server`)
}
