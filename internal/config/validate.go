package config

import (
	"fmt"
	"net"
	"strings"

	logs "github.com/danmuck/mfrlink/internal/logging"
	"github.com/danmuck/mfrlink/internal/protocol/frame"
	"github.com/danmuck/mfrlink/internal/scenario"
	"github.com/danmuck/mfrlink/internal/sim"
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func validateAddr(name, addr string, required bool) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		if required {
			return invalid("%s is required", name)
		}
		return nil
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return invalid("%s %q: %v", name, addr, err)
	}
	return nil
}

func validateLog(cfg logs.Config) error {
	if cfg.File.Path == "" {
		return nil
	}
	if cfg.File.MaxSizeMB < 0 || cfg.File.MaxBackups < 0 || cfg.File.MaxAgeDays < 0 {
		return invalid("log file rotation limits must not be negative")
	}
	return nil
}

func ValidateMFRConfig(cfg MFRConfig) error {
	svc := cfg.Service
	if strings.TrimSpace(svc.NodeID) == "" {
		return invalid("mfr config missing node_id")
	}
	if strings.TrimSpace(svc.Comm.Stream) == "" {
		return invalid("mfr config missing comm.stream")
	}
	if err := validateAddr("comm.listen_addr", svc.Comm.ListenAddr, true); err != nil {
		return err
	}
	if err := validateAddr("http_addr", svc.HTTPAddr, false); err != nil {
		return err
	}
	if err := validateAddr("control_addr", svc.ControlAddr, false); err != nil {
		return err
	}
	if svc.Comm.BufferSize < frame.HeaderSize {
		return invalid("comm.buffer_size %d is smaller than a batch header", svc.Comm.BufferSize)
	}
	if svc.Comm.PollTimeout <= 0 {
		return invalid("comm.poll_timeout must be positive")
	}
	if svc.StatsInterval < 0 {
		return invalid("stats_interval must not be negative")
	}
	if svc.TrackTTL <= 0 || svc.PruneInterval <= 0 {
		return invalid("track_ttl and prune_interval must be positive")
	}
	if strings.TrimSpace(svc.ControlAddr) != "" && (svc.StatusPoll <= 0 || svc.ControlTimeout <= 0) {
		return invalid("status_poll and control_timeout must be positive when control_addr is set")
	}
	return validateLog(cfg.Log)
}

func ValidateSimConfig(cfg SimConfig) error {
	svc := cfg.Service
	if strings.TrimSpace(svc.NodeID) == "" {
		return invalid("sim config missing node_id")
	}
	if err := validateAddr("target_addr", svc.TargetAddr, true); err != nil {
		return err
	}
	if err := validateAddr("control_addr", svc.ControlAddr, false); err != nil {
		return err
	}
	if svc.RecordsPerPacket < 0 {
		return invalid("records_per_packet must not be negative")
	}
	if svc.MTU != 0 && svc.MTU < frame.FrameSize(1, sim.TargetSize) {
		return invalid("mtu %d cannot carry one target record", svc.MTU)
	}
	if err := scenario.Validate(svc.Scenario); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return validateLog(cfg.Log)
}

func ValidateConsoleConfig(cfg ConsoleConfig) error {
	if err := validateAddr("control_addr", cfg.Console.ControlAddr, true); err != nil {
		return err
	}
	if cfg.Console.Timeout <= 0 {
		return invalid("timeout must be positive")
	}
	return validateLog(cfg.Log)
}
