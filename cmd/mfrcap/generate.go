package main

import (
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/danmuck/mfrlink/internal/capture"
	logs "github.com/danmuck/mfrlink/internal/logging"
	"github.com/danmuck/mfrlink/internal/scenario"
	"github.com/danmuck/mfrlink/internal/simulator"
)

type generateOptions struct {
	Scenario  scenario.Scenario
	Ticks     int
	Port      uint16
	Legacy    bool
	PerPacket int
	Start     time.Time
}

func runGenerate(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	out := fs.String("out", "", "pcap file to write")
	scenarioPath := fs.String("scenario", "", "YAML scenario (defaults to the built-in scenario)")
	ticks := fs.Int("ticks", 100, "simulation ticks to record")
	port := fs.Uint("port", 9870, "UDP destination port")
	legacy := fs.Bool("legacy", false, "send targets as single-record datagrams")
	perPacket := fs.Int("per-packet", 0, "records per batch frame (0 uses the default)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return fmt.Errorf("generate: -out is required")
	}
	if *ticks <= 0 {
		return fmt.Errorf("generate: -ticks must be positive")
	}
	if *port == 0 || *port > 0xFFFF {
		return fmt.Errorf("generate: port %d out of range", *port)
	}

	opts := generateOptions{
		Scenario:  scenario.Default(),
		Ticks:     *ticks,
		Port:      uint16(*port),
		Legacy:    *legacy,
		PerPacket: *perPacket,
		Start:     time.Now().UTC(),
	}
	if *scenarioPath != "" {
		sc, err := scenario.LoadFile(*scenarioPath)
		if err != nil {
			return err
		}
		opts.Scenario = sc
	}

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	n, err := generate(f, opts)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	logs.Infof("mfrcap.generate done file=%q scenario=%q ticks=%d datagrams=%d", *out, opts.Scenario.Name, opts.Ticks, n)
	_, err = fmt.Fprintf(stdout, "wrote %d datagrams over %d ticks to %s\n", n, opts.Ticks, *out)
	return err
}

// pcapSink turns each simulator datagram write into one captured frame
// stamped with the current simulated time.
type pcapSink struct {
	w     *capture.Writer
	now   time.Time
	port  uint16
	count int
}

func (s *pcapSink) Write(p []byte) (int, error) {
	err := s.w.Write(capture.Datagram{
		Time:    s.now,
		SrcIP:   net.IPv4(127, 0, 0, 1),
		DstIP:   net.IPv4(127, 0, 0, 1),
		SrcPort: 40000,
		DstPort: s.port,
		Payload: p,
	})
	if err != nil {
		return 0, err
	}
	s.count++
	return len(p), nil
}

// generate runs the scenario offline and records what the simulator would
// have sent.
func generate(w io.Writer, opts generateOptions) (int, error) {
	if err := scenario.Validate(opts.Scenario); err != nil {
		return 0, err
	}
	cw, err := capture.NewWriter(w)
	if err != nil {
		return 0, err
	}
	cfg := simulator.DefaultServiceConfig()
	cfg.Scenario = opts.Scenario
	cfg.LegacyTargets = opts.Legacy
	if opts.PerPacket > 0 {
		cfg.RecordsPerPacket = opts.PerPacket
	}
	svc := simulator.NewServiceWithConfig(cfg)

	sink := &pcapSink{w: cw, port: opts.Port}
	for i := 1; i <= opts.Ticks; i++ {
		sink.now = opts.Start.Add(time.Duration(i) * opts.Scenario.Tick)
		if err := svc.Advance(sink); err != nil {
			return sink.count, fmt.Errorf("generate: tick %d: %w", i, err)
		}
	}
	return sink.count, nil
}
