package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/mfrlink/internal/config"
	logs "github.com/danmuck/mfrlink/internal/logging"
	"github.com/danmuck/mfrlink/internal/observability"
	"github.com/danmuck/mfrlink/internal/scenario"
	"github.com/danmuck/mfrlink/internal/simulator"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "config path (defaults to cmd/simd/config.toml when present)")
	scenarioPath := flag.String("scenario", "", "override the configured scenario file")
	target := flag.String("target", "", "override target_addr")
	legacy := flag.Bool("legacy", false, "send targets as single-record datagrams")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "simd: %v\n", err)
		os.Exit(1)
	}
	if *scenarioPath != "" {
		sc, err := scenario.LoadFile(*scenarioPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "simd: %v\n", err)
			os.Exit(1)
		}
		cfg.Service.Scenario = sc
	}
	if *target != "" {
		cfg.Service.TargetAddr = *target
	}
	if *legacy {
		cfg.Service.LegacyTargets = true
	}

	logs.ConfigureWith(cfg.Log)
	observability.InitLogger("simd")

	svc := simulator.NewServiceWithConfig(cfg.Service)
	err = svc.Run()
	if err != nil {
		log.Error().Err(err).Msg("simd exited")
	}
	_ = logs.Close()
	if err != nil {
		os.Exit(1)
	}
}

func loadConfig(path string) (config.SimConfig, error) {
	resolved, err := config.Resolve(config.KindSim, path)
	if err != nil {
		return config.SimConfig{}, err
	}
	if resolved == "" {
		return config.SimConfig{
			Service: simulator.DefaultServiceConfig(),
			Log:     logs.DefaultConfig(logs.ProfileRuntime),
		}, nil
	}
	return config.LoadSimConfig(resolved)
}
