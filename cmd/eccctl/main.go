package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/mfrlink/internal/config"
	"github.com/danmuck/mfrlink/internal/console"
	logs "github.com/danmuck/mfrlink/internal/logging"
	"github.com/danmuck/mfrlink/internal/observability"
)

func main() {
	configPath := flag.String("config", "", "config path (defaults to cmd/eccctl/config.toml when present)")
	addr := flag.String("addr", "", "override control_addr")
	timeout := flag.Duration("timeout", 0, "override request timeout")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: eccctl [flags] <command> [args]\n\n%s\n\nflags:\n", console.Usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "eccctl: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Console.ControlAddr = *addr
	}
	if *timeout > 0 {
		cfg.Console.Timeout = *timeout
	}

	logs.ConfigureWith(cfg.Log)
	observability.InitLogger("eccctl")

	os.Exit(run(cfg.Console, flag.Args()))
}

func run(cfg console.Config, args []string) int {
	defer logs.Close()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	err := console.Run(ctx, cfg, args, os.Stdout)
	switch {
	case errors.Is(err, console.ErrUsage):
		fmt.Fprintf(os.Stderr, "eccctl: %v\n", err)
		flag.Usage()
		return 2
	case err != nil:
		logs.Errorf("eccctl request failed addr=%q err=%v", cfg.ControlAddr, err)
		return 1
	}
	logs.Debugf("eccctl request done addr=%q elapsed=%s", cfg.ControlAddr, time.Since(start))
	return 0
}

func loadConfig(path string) (config.ConsoleConfig, error) {
	resolved, err := config.Resolve(config.KindConsole, path)
	if err != nil {
		return config.ConsoleConfig{}, err
	}
	if resolved == "" {
		return config.ConsoleConfig{
			Console: console.DefaultConfig(),
			Log:     logs.DefaultConfig(logs.ProfileRuntime),
		}, nil
	}
	return config.LoadConsoleConfig(resolved)
}
