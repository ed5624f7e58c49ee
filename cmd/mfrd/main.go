package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/mfrlink/internal/config"
	logs "github.com/danmuck/mfrlink/internal/logging"
	"github.com/danmuck/mfrlink/internal/mfr"
	"github.com/danmuck/mfrlink/internal/observability"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "config path (defaults to cmd/mfrd/config.toml when present)")
	listen := flag.String("listen", "", "override comm.listen_addr")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mfrd: %v\n", err)
		os.Exit(1)
	}
	if *listen != "" {
		cfg.Service.Comm.ListenAddr = *listen
	}

	logs.ConfigureWith(cfg.Log)
	observability.InitLogger("mfrd")
	observability.RegisterMetrics()

	svc := mfr.NewServiceWithConfig(cfg.Service)
	err = svc.Run()
	if err != nil {
		log.Error().Err(err).Msg("mfrd exited")
	}
	_ = logs.Close()
	if err != nil {
		os.Exit(1)
	}
}

func loadConfig(path string) (config.MFRConfig, error) {
	resolved, err := config.Resolve(config.KindMFR, path)
	if err != nil {
		return config.MFRConfig{}, err
	}
	if resolved == "" {
		return config.MFRConfig{
			Service: mfr.DefaultServiceConfig(),
			Log:     logs.DefaultConfig(logs.ProfileRuntime),
		}, nil
	}
	return config.LoadMFRConfig(resolved)
}
