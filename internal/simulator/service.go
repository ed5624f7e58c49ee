package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	logs "github.com/danmuck/mfrlink/internal/logging"
	"github.com/danmuck/mfrlink/internal/observability"
	"github.com/danmuck/mfrlink/internal/protocol"
	"github.com/danmuck/mfrlink/internal/protocol/batch"
	"github.com/danmuck/mfrlink/internal/protocol/command"
	"github.com/danmuck/mfrlink/internal/protocol/frame"
	"github.com/danmuck/mfrlink/internal/scenario"
	"github.com/danmuck/mfrlink/internal/sim"
	"github.com/danmuck/mfrlink/internal/transport"
)

var ErrMissingTarget = errors.New("simulator: missing udp target address")

// ServiceConfig configures the simd runtime.
type ServiceConfig struct {
	NodeID           string
	TargetAddr       string
	ControlAddr      string
	RecordsPerPacket int
	MTU              int
	LegacyTargets    bool
	Scenario         scenario.Scenario
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		NodeID:           "sim.local",
		TargetAddr:       "127.0.0.1:9870",
		ControlAddr:      "127.0.0.1:9871",
		RecordsPerPacket: batch.DefaultRecordsPerPacket,
		Scenario:         scenario.Default(),
	}
}

// perPacket resolves the batch size: an explicit MTU wins over
// RecordsPerPacket.
func (c ServiceConfig) perPacket() int {
	if c.MTU > 0 {
		return batch.RecordsPerMTU(c.MTU, sim.TargetSize)
	}
	return c.RecordsPerPacket
}

// Service steps the world and streams it to the MFR.
type Service struct {
	cfg    ServiceConfig
	world  *World
	sender *batch.Sender[sim.TargetSimData]
}

func NewService() *Service {
	return NewServiceWithConfig(DefaultServiceConfig())
}

func NewServiceWithConfig(cfg ServiceConfig) *Service {
	return &Service{
		cfg:    cfg,
		world:  NewWorld(cfg.Scenario),
		sender: batch.NewSender[sim.TargetSimData](sim.TargetLayout{}, cfg.perPacket()),
	}
}

func (s *Service) World() *World { return s.world }

// Run blocks until SIGINT, SIGTERM, or the scenario's tick limit.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Serve(ctx)
}

func (s *Service) Serve(ctx context.Context) error {
	if strings.TrimSpace(s.cfg.TargetAddr) == "" {
		return ErrMissingTarget
	}
	if err := scenario.Validate(s.cfg.Scenario); err != nil {
		return err
	}
	tx, err := transport.DialUDP(s.cfg.TargetAddr)
	if err != nil {
		return err
	}
	defer tx.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	controlErr := make(chan error, 1)
	if addr := strings.TrimSpace(s.cfg.ControlAddr); addr != "" {
		srv := transport.NewControlServer(transport.ControlServerConfig{}, s.HandleControl)
		go func() {
			controlErr <- srv.ListenAndServe(ctx, addr)
		}()
	}

	sc := s.cfg.Scenario
	logs.Infof(
		"simulator.Service.Serve ready node=%q scenario=%q target=%s tick=%s per_packet=%d",
		s.cfg.NodeID, sc.Name, tx.RemoteAddr(), sc.Tick, s.sender.MaxPerPacket(),
	)

	ticker := time.NewTicker(sc.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logs.Infof("simulator.Service.Serve stopped tick=%d packets=%d", s.world.Tick(), tx.Packets())
			return nil
		case err := <-controlErr:
			if err != nil {
				return fmt.Errorf("simulator: control server: %w", err)
			}
			controlErr = nil
		case <-ticker.C:
			if err := s.Advance(tx); err != nil {
				logs.Warnf("simulator.Service.publish err=%v", err)
			}
			if sc.MaxTicks > 0 && s.world.Tick() >= sc.MaxTicks {
				logs.Infof("simulator.Service.Serve scenario complete tick=%d", s.world.Tick())
				return nil
			}
		}
	}
}

// Advance steps the world by one scenario tick and publishes the result to w.
// Each Write on w carries exactly one datagram.
func (s *Service) Advance(w io.Writer) error {
	s.world.Step(s.cfg.Scenario.Tick)
	return s.publish(w)
}

// publish sends one tick of reports: targets as batch frames (or legacy
// datagrams when configured), missiles as legacy datagrams.
func (s *Service) publish(tx io.Writer) error {
	targets := s.world.TargetReports()
	var errs []error
	if s.cfg.LegacyTargets {
		for _, t := range targets {
			if _, err := tx.Write(frame.EncodeLegacy[sim.TargetSimData](sim.TargetLayout{}, sim.TagTarget, t)); err != nil {
				errs = append(errs, err)
			}
		}
		observability.RecordSent("target", len(targets))
	} else {
		n, err := s.sender.Send(tx, targets)
		observability.RecordSent("target", n)
		if err != nil {
			errs = append(errs, err)
		}
	}

	missiles := s.world.MissileReports()
	for _, m := range missiles {
		if _, err := tx.Write(frame.EncodeLegacy[sim.MissileSimData](sim.MissileLayout{}, sim.TagMissile, m)); err != nil {
			errs = append(errs, err)
		}
	}
	observability.RecordSent("missile", len(missiles))
	return errors.Join(errs...)
}

// HandleControl answers one framed control request.
func (s *Service) HandleControl(_ context.Context, payload []byte) ([]byte, error) {
	start := time.Now()
	req, err := command.ParseRequest(payload)
	if err != nil {
		observability.RecordControlRequest("invalid", protocol.Kind(err), time.Since(start))
		return nil, err
	}
	name := req.RequestType().String()
	resp, err := s.world.Handle(req)
	if err != nil {
		observability.RecordControlRequest(name, protocol.Kind(err), time.Since(start))
		return nil, err
	}
	out, err := command.MarshalResponse(resp)
	observability.RecordControlRequest(name, protocol.Kind(err), time.Since(start))
	if err != nil {
		return nil, err
	}
	logs.Debugf("simulator.Service.HandleControl request=%s response=%s", name, resp.CommandType())
	return out, nil
}
