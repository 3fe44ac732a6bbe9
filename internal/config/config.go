// Package config builds an immutable model.Config from three layers, in
// ascending precedence: built-in defaults, an optional YAML file, and CLI
// flags actually passed on the command line.
package config

import (
	"os"

	"github.com/N3kkii/imapget/internal/errs"
	"github.com/N3kkii/imapget/internal/model"
	"gopkg.in/yaml.v3"
)

// fileLayer mirrors model.Config but with pointer fields, so "present in
// the YAML file" can be distinguished from "zero value".
type fileLayer struct {
	Server       *string `yaml:"server"`
	Mailbox      *string `yaml:"mailbox"`
	Port         *int    `yaml:"port"`
	Secured      *bool   `yaml:"secured"`
	OnlyNew      *bool   `yaml:"only_new"`
	OnlyHeaders  *bool   `yaml:"only_headers"`
	CertFile     *string `yaml:"certfile"`
	CertAddr     *string `yaml:"certaddr"`
	MirrorBucket *string `yaml:"mirror_bucket"`
	StatusAddr   *string `yaml:"status_addr"`
	HistoryFile  *string `yaml:"history_file"`
}

// Defaults returns the built-in baseline: port 143 (993 once Secured is
// set, unless overridden later), mailbox INBOX, everything else off/empty.
func Defaults() model.Config {
	return model.Config{
		Port:    143,
		Mailbox: "INBOX",
	}
}

// LoadFile reads path as a YAML config_file and merges it over base,
// returning a new Config. Every field the file omits keeps base's value.
func LoadFile(base model.Config, path string) (model.Config, error) {
	if path == "" {
		return base, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return base, errs.Wrapf(errs.ErrConfig, "cannot read config file %s: %v", path, err)
	}

	var layer fileLayer
	if err := yaml.Unmarshal(data, &layer); err != nil {
		return base, errs.Wrapf(errs.ErrConfig, "cannot parse config file %s: %v", path, err)
	}

	cfg := base
	if layer.Server != nil {
		cfg.Server = *layer.Server
	}
	if layer.Mailbox != nil {
		cfg.Mailbox = *layer.Mailbox
	}
	if layer.Port != nil {
		cfg.Port = *layer.Port
	}
	if layer.Secured != nil {
		cfg.Secured = *layer.Secured
	}
	if layer.OnlyNew != nil {
		cfg.OnlyNew = *layer.OnlyNew
	}
	if layer.OnlyHeaders != nil {
		cfg.OnlyHeaders = *layer.OnlyHeaders
	}
	if layer.CertFile != nil {
		cfg.CertFile = *layer.CertFile
	}
	if layer.CertAddr != nil {
		cfg.CertAddr = *layer.CertAddr
	}
	if layer.MirrorBucket != nil {
		cfg.MirrorBucket = *layer.MirrorBucket
	}
	if layer.StatusAddr != nil {
		cfg.StatusAddr = *layer.StatusAddr
	}
	if layer.HistoryFile != nil {
		cfg.HistoryFile = *layer.HistoryFile
	}
	return cfg, nil
}
