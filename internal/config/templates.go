package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/mfrlink/internal/console"
	logs "github.com/danmuck/mfrlink/internal/logging"
	"github.com/danmuck/mfrlink/internal/mfr"
	"github.com/danmuck/mfrlink/internal/simulator"
	gotoml "github.com/pelletier/go-toml/v2"
)

const (
	KindMFR     = "mfr"
	KindSim     = "sim"
	KindConsole = "console"
)

// DefaultPath is where each command looks for its config when none is given.
func DefaultPath(kind string) (string, error) {
	switch normalizeKind(kind) {
	case KindMFR:
		return "cmd/mfrd/config.toml", nil
	case KindSim:
		return "cmd/simd/config.toml", nil
	case KindConsole:
		return "cmd/eccctl/config.toml", nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

// Resolve picks the config file for kind. An explicit path is returned as
// is; otherwise the per-kind default path is used when it exists, and ""
// means run on built-in defaults.
func Resolve(kind, path string) (string, error) {
	if p := strings.TrimSpace(path); p != "" {
		return p, nil
	}
	def, err := DefaultPath(kind)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(def); err != nil {
		return "", nil
	}
	return def, nil
}

// Template renders the defaults for kind as a TOML document, so a freshly
// written template always loads back to the built-in configuration.
func Template(kind string) (string, error) {
	var doc any
	switch normalizeKind(kind) {
	case KindMFR:
		doc = mfrTemplate(mfr.DefaultServiceConfig())
	case KindSim:
		doc = simTemplate(simulator.DefaultServiceConfig())
	case KindConsole:
		doc = consoleTemplate(console.DefaultConfig())
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
	out, err := gotoml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("render %s template: %w", kind, err)
	}
	return string(out), nil
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

// Load validates the file at path as a config of the given kind.
func Load(kind, path string) error {
	var err error
	switch normalizeKind(kind) {
	case KindMFR:
		_, err = LoadMFRConfig(path)
	case KindSim:
		_, err = LoadSimConfig(path)
	case KindConsole:
		_, err = LoadConsoleConfig(path)
	default:
		err = fmt.Errorf("unknown config kind: %s", kind)
	}
	return err
}

func normalizeKind(kind string) string {
	return strings.ToLower(strings.TrimSpace(kind))
}

func logTemplate() logFile {
	cfg := logs.DefaultConfig(logs.ProfileRuntime)
	return logFile{
		Level:      cfg.Level.String(),
		Timestamp:  cfg.Timestamp,
		MaxSizeMB:  cfg.File.MaxSizeMB,
		MaxBackups: cfg.File.MaxBackups,
		MaxAgeDays: cfg.File.MaxAgeDays,
	}
}

func mfrTemplate(svc mfr.ServiceConfig) mfrFile {
	return mfrFile{
		NodeID:         svc.NodeID,
		HTTPAddr:       svc.HTTPAddr,
		StatsInterval:  svc.StatsInterval.String(),
		TrackTTL:       svc.TrackTTL.String(),
		PruneInterval:  svc.PruneInterval.String(),
		ControlAddr:    svc.ControlAddr,
		StatusPoll:     svc.StatusPoll.String(),
		ControlTimeout: svc.ControlTimeout.String(),
		Comm: commFile{
			Stream:      svc.Comm.Stream,
			ListenAddr:  svc.Comm.ListenAddr,
			BufferSize:  svc.Comm.BufferSize,
			PollTimeout: svc.Comm.PollTimeout.String(),
		},
		Log: logTemplate(),
	}
}

func simTemplate(svc simulator.ServiceConfig) simFile {
	return simFile{
		NodeID:           svc.NodeID,
		TargetAddr:       svc.TargetAddr,
		ControlAddr:      svc.ControlAddr,
		RecordsPerPacket: svc.RecordsPerPacket,
		MTU:              svc.MTU,
		LegacyTargets:    svc.LegacyTargets,
		Log:              logTemplate(),
	}
}

func consoleTemplate(cfg console.Config) consoleFile {
	return consoleFile{
		ControlAddr: cfg.ControlAddr,
		Timeout:     cfg.Timeout.String(),
		Log:         logTemplate(),
	}
}
