package mfr

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	logs "github.com/danmuck/mfrlink/internal/logging"
)

var (
	ErrInvalidTrackTTL     = errors.New("mfr: invalid track ttl")
	ErrInvalidPollInterval = errors.New("mfr: invalid status poll interval")
)

// ServiceConfig configures the mfrd runtime.
type ServiceConfig struct {
	NodeID        string
	Comm          CommConfig
	HTTPAddr      string
	StatsInterval time.Duration
	TrackTTL      time.Duration
	PruneInterval time.Duration

	ControlAddr    string
	StatusPoll     time.Duration
	ControlTimeout time.Duration
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		NodeID:         "mfr.local",
		Comm:           DefaultCommConfig(),
		HTTPAddr:       "127.0.0.1:9880",
		StatsInterval:  10 * time.Second,
		TrackTTL:       5 * time.Second,
		PruneInterval:  time.Second,
		StatusPoll:     2 * time.Second,
		ControlTimeout: 2 * time.Second,
	}
}

// Service runs the MFR receive path and its status surfaces.
type Service struct {
	cfg     ServiceConfig
	comm    *CommManager
	picture *Picture
	assets  *AssetView
	started time.Time
}

func NewService() *Service {
	return NewServiceWithConfig(DefaultServiceConfig())
}

func NewServiceWithConfig(cfg ServiceConfig) *Service {
	s := &Service{
		cfg:     cfg,
		comm:    NewCommManager(cfg.Comm),
		picture: NewPicture(),
		assets:  NewAssetView(),
	}
	s.comm.Attach(s.picture)
	return s
}

func (s *Service) Comm() *CommManager { return s.comm }

func (s *Service) Picture() *Picture { return s.picture }

func (s *Service) Assets() *AssetView { return s.assets }

// Run blocks until SIGINT or SIGTERM.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Serve(ctx)
}

// Serve runs until ctx is cancelled or a listener fails.
func (s *Service) Serve(ctx context.Context) error {
	if err := s.validate(); err != nil {
		return err
	}
	s.started = time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := s.comm.Start(ctx); err != nil {
		return err
	}
	defer s.comm.Stop()
	logs.Infof("mfr.Service.Serve ready node=%q udp=%s", s.cfg.NodeID, s.comm.Addr())

	StartStatsReporter(ctx, s.cfg.StatsInterval, s.comm, s.picture)
	go s.pruneLoop(ctx)

	if addr := strings.TrimSpace(s.cfg.ControlAddr); addr != "" {
		poller := NewStatusPoller(addr, s.cfg.StatusPoll, s.cfg.ControlTimeout, s.assets)
		go poller.Run(ctx)
	}

	httpErr := make(chan error, 1)
	var srv *http.Server
	if addr := strings.TrimSpace(s.cfg.HTTPAddr); addr != "" {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return err
		}
		srv = &http.Server{
			Handler:           NewRouter(s.cfg.NodeID, s.started, s.comm, s.picture, s.assets),
			ReadHeaderTimeout: 5 * time.Second,
		}
		logs.Infof("mfr.Service.Serve http listening addr=%q", ln.Addr().String())
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				httpErr <- err
			}
		}()
	}

	var err error
	select {
	case <-ctx.Done():
	case err = <-httpErr:
	}

	if srv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = srv.Shutdown(shutdownCtx)
	}
	logs.Infof("mfr.Service.Serve stopped node=%q", s.cfg.NodeID)
	return err
}

func (s *Service) validate() error {
	if s.cfg.TrackTTL <= 0 || s.cfg.PruneInterval <= 0 {
		return ErrInvalidTrackTTL
	}
	if strings.TrimSpace(s.cfg.ControlAddr) != "" && s.cfg.StatusPoll <= 0 {
		return ErrInvalidPollInterval
	}
	return nil
}

func (s *Service) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.PruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			targets, missiles := s.picture.Prune(s.cfg.TrackTTL)
			if targets > 0 || missiles > 0 {
				logs.Debugf("mfr.Service.pruneLoop dropped targets=%d missiles=%d", targets, missiles)
			}
		case <-ctx.Done():
			return
		}
	}
}
