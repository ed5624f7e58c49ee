// Package config loads the TOML process configuration for mfrd, simd and
// eccctl. Each loader starts from the package defaults and overrides only the
// keys present in the file.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/mfrlink/internal/console"
	logs "github.com/danmuck/mfrlink/internal/logging"
	"github.com/danmuck/mfrlink/internal/mfr"
	"github.com/danmuck/mfrlink/internal/scenario"
	"github.com/danmuck/mfrlink/internal/simulator"
)

var ErrInvalidConfig = errors.New("config: invalid")

type MFRConfig struct {
	Service mfr.ServiceConfig
	Log     logs.Config
}

type SimConfig struct {
	Service      simulator.ServiceConfig
	ScenarioPath string
	Log          logs.Config
}

type ConsoleConfig struct {
	Console console.Config
	Log     logs.Config
}

type logFile struct {
	Level      string `toml:"level" comment:"trace|debug|info|warn|error"`
	Timestamp  bool   `toml:"timestamp"`
	NoColor    bool   `toml:"no_color,omitempty"`
	File       string `toml:"file,omitempty" comment:"rotating log file; unset disables"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

type commFile struct {
	Stream      string `toml:"stream"`
	ListenAddr  string `toml:"listen_addr"`
	BufferSize  int    `toml:"buffer_size"`
	PollTimeout string `toml:"poll_timeout"`
}

type mfrFile struct {
	NodeID         string   `toml:"node_id"`
	HTTPAddr       string   `toml:"http_addr" comment:"status endpoint; empty disables"`
	StatsInterval  string   `toml:"stats_interval"`
	TrackTTL       string   `toml:"track_ttl"`
	PruneInterval  string   `toml:"prune_interval"`
	ControlAddr    string   `toml:"control_addr" comment:"simulator control channel polled for asset status; empty disables"`
	StatusPoll     string   `toml:"status_poll"`
	ControlTimeout string   `toml:"control_timeout"`
	Comm           commFile `toml:"comm"`
	Log            logFile  `toml:"log"`
}

type simFile struct {
	NodeID           string  `toml:"node_id"`
	TargetAddr       string  `toml:"target_addr"`
	ControlAddr      string  `toml:"control_addr"`
	RecordsPerPacket int     `toml:"records_per_packet"`
	MTU              int     `toml:"mtu" comment:"when set, overrides records_per_packet"`
	LegacyTargets    bool    `toml:"legacy_targets"`
	Scenario         string  `toml:"scenario" comment:"YAML scenario path relative to this file; empty uses the built-in scenario"`
	Log              logFile `toml:"log"`
}

type consoleFile struct {
	ControlAddr string  `toml:"control_addr"`
	Timeout     string  `toml:"timeout"`
	Log         logFile `toml:"log"`
}

// overrides applies the keys defined in a decoded file on top of defaults.
type overrides struct {
	meta toml.MetaData
	err  error
}

func (o *overrides) str(dst *string, v string, key ...string) {
	if o.meta.IsDefined(key...) {
		*dst = strings.TrimSpace(v)
	}
}

func (o *overrides) duration(dst *time.Duration, v string, key ...string) {
	if o.err != nil || !o.meta.IsDefined(key...) {
		return
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		o.err = fmt.Errorf("parse %s: %w", strings.Join(key, "."), err)
		return
	}
	*dst = d
}

func set[T any](o *overrides, dst *T, v T, key ...string) {
	if o.meta.IsDefined(key...) {
		*dst = v
	}
}

func (o *overrides) log(cfg *logs.Config, raw logFile) {
	if o.err == nil && o.meta.IsDefined("log", "level") {
		lvl, ok := logs.ParseLevel(raw.Level)
		if !ok {
			o.err = fmt.Errorf("parse log.level: unknown level %q", raw.Level)
		} else {
			cfg.Level = lvl
		}
	}
	set(o, &cfg.Timestamp, raw.Timestamp, "log", "timestamp")
	set(o, &cfg.NoColor, raw.NoColor, "log", "no_color")
	o.str(&cfg.File.Path, raw.File, "log", "file")
	set(o, &cfg.File.MaxSizeMB, raw.MaxSizeMB, "log", "max_size_mb")
	set(o, &cfg.File.MaxBackups, raw.MaxBackups, "log", "max_backups")
	set(o, &cfg.File.MaxAgeDays, raw.MaxAgeDays, "log", "max_age_days")
	set(o, &cfg.File.Compress, raw.Compress, "log", "compress")
}

func decode(path string, out any) (*overrides, error) {
	meta, err := toml.DecodeFile(path, out)
	if err != nil {
		return nil, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%w: %s: unknown keys %s", ErrInvalidConfig, path, strings.Join(keys, ", "))
	}
	return &overrides{meta: meta}, nil
}

func LoadMFRConfig(path string) (MFRConfig, error) {
	cfg := MFRConfig{
		Service: mfr.DefaultServiceConfig(),
		Log:     logs.DefaultConfig(logs.ProfileRuntime),
	}
	var raw mfrFile
	o, err := decode(path, &raw)
	if err != nil {
		return MFRConfig{}, err
	}

	svc := &cfg.Service
	o.str(&svc.NodeID, raw.NodeID, "node_id")
	o.str(&svc.HTTPAddr, raw.HTTPAddr, "http_addr")
	o.duration(&svc.StatsInterval, raw.StatsInterval, "stats_interval")
	o.duration(&svc.TrackTTL, raw.TrackTTL, "track_ttl")
	o.duration(&svc.PruneInterval, raw.PruneInterval, "prune_interval")
	o.str(&svc.ControlAddr, raw.ControlAddr, "control_addr")
	o.duration(&svc.StatusPoll, raw.StatusPoll, "status_poll")
	o.duration(&svc.ControlTimeout, raw.ControlTimeout, "control_timeout")
	o.str(&svc.Comm.Stream, raw.Comm.Stream, "comm", "stream")
	o.str(&svc.Comm.ListenAddr, raw.Comm.ListenAddr, "comm", "listen_addr")
	set(o, &svc.Comm.BufferSize, raw.Comm.BufferSize, "comm", "buffer_size")
	o.duration(&svc.Comm.PollTimeout, raw.Comm.PollTimeout, "comm", "poll_timeout")
	o.log(&cfg.Log, raw.Log)
	if o.err != nil {
		return MFRConfig{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, o.err)
	}

	if err := ValidateMFRConfig(cfg); err != nil {
		return MFRConfig{}, err
	}
	return cfg, nil
}

// LoadSimConfig reads a simulator config. A relative scenario path is
// resolved against the config file's directory.
func LoadSimConfig(path string) (SimConfig, error) {
	cfg := SimConfig{
		Service: simulator.DefaultServiceConfig(),
		Log:     logs.DefaultConfig(logs.ProfileRuntime),
	}
	var raw simFile
	o, err := decode(path, &raw)
	if err != nil {
		return SimConfig{}, err
	}

	svc := &cfg.Service
	o.str(&svc.NodeID, raw.NodeID, "node_id")
	o.str(&svc.TargetAddr, raw.TargetAddr, "target_addr")
	o.str(&svc.ControlAddr, raw.ControlAddr, "control_addr")
	set(o, &svc.RecordsPerPacket, raw.RecordsPerPacket, "records_per_packet")
	set(o, &svc.MTU, raw.MTU, "mtu")
	set(o, &svc.LegacyTargets, raw.LegacyTargets, "legacy_targets")
	o.str(&cfg.ScenarioPath, raw.Scenario, "scenario")
	o.log(&cfg.Log, raw.Log)
	if o.err != nil {
		return SimConfig{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, o.err)
	}

	if cfg.ScenarioPath != "" {
		if !filepath.IsAbs(cfg.ScenarioPath) {
			cfg.ScenarioPath = filepath.Join(filepath.Dir(path), cfg.ScenarioPath)
		}
		sc, err := scenario.LoadFile(cfg.ScenarioPath)
		if err != nil {
			return SimConfig{}, err
		}
		svc.Scenario = sc
	}

	if err := ValidateSimConfig(cfg); err != nil {
		return SimConfig{}, err
	}
	return cfg, nil
}

func LoadConsoleConfig(path string) (ConsoleConfig, error) {
	cfg := ConsoleConfig{
		Console: console.DefaultConfig(),
		Log:     logs.DefaultConfig(logs.ProfileRuntime),
	}
	var raw consoleFile
	o, err := decode(path, &raw)
	if err != nil {
		return ConsoleConfig{}, err
	}

	o.str(&cfg.Console.ControlAddr, raw.ControlAddr, "control_addr")
	o.duration(&cfg.Console.Timeout, raw.Timeout, "timeout")
	o.log(&cfg.Log, raw.Log)
	if o.err != nil {
		return ConsoleConfig{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, o.err)
	}

	if err := ValidateConsoleConfig(cfg); err != nil {
		return ConsoleConfig{}, err
	}
	return cfg, nil
}
