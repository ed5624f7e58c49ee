package mfr

import (
	"context"
	"fmt"
	"sync"
	"time"

	logs "github.com/danmuck/mfrlink/internal/logging"
	"github.com/danmuck/mfrlink/internal/observability"
	"github.com/danmuck/mfrlink/internal/protocol"
	"github.com/danmuck/mfrlink/internal/protocol/command"
	"github.com/danmuck/mfrlink/internal/transport"
)

// AssetView holds the latest status report polled from the simulator's
// control channel.
type AssetView struct {
	mu      sync.RWMutex
	status  *command.StatusResponse
	updated time.Time
	lastErr string
	polls   uint64
	fails   uint64
}

type AssetSnapshot struct {
	Status    *command.StatusResponse `json:"status,omitempty"`
	Updated   time.Time               `json:"updated"`
	LastError string                  `json:"last_error,omitempty"`
	Polls     uint64                  `json:"polls"`
	Failures  uint64                  `json:"failures"`
}

func NewAssetView() *AssetView {
	return &AssetView{}
}

func (v *AssetView) Snapshot() AssetSnapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return AssetSnapshot{
		Status:    v.status,
		Updated:   v.updated,
		LastError: v.lastErr,
		Polls:     v.polls,
		Failures:  v.fails,
	}
}

func (v *AssetView) record(status *command.StatusResponse, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.polls++
	if err != nil {
		v.fails++
		v.lastErr = err.Error()
		return
	}
	v.status = status
	v.updated = time.Now()
	v.lastErr = ""
}

// StatusPoller requests STATUS from the simulator control channel on an
// interval. A failed exchange drops the connection and redials next tick.
type StatusPoller struct {
	addr     string
	interval time.Duration
	timeout  time.Duration
	view     *AssetView

	client *transport.ControlClient
}

func NewStatusPoller(addr string, interval, timeout time.Duration, view *AssetView) *StatusPoller {
	return &StatusPoller{addr: addr, interval: interval, timeout: timeout, view: view}
}

func (p *StatusPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	defer p.reset()

	for {
		status, err := p.poll(ctx)
		if err != nil && ctx.Err() == nil {
			logs.Warnf("mfr.StatusPoller.poll addr=%q kind=%s err=%v", p.addr, protocol.Kind(err), err)
		}
		if ctx.Err() != nil {
			return
		}
		p.view.record(status, err)

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (p *StatusPoller) poll(ctx context.Context) (*command.StatusResponse, error) {
	start := time.Now()
	status, err := p.exchange(ctx)
	outcome := protocol.Kind(err)
	observability.RecordControlRequest(command.StatusRequestType.String(), outcome, time.Since(start))
	if err != nil {
		p.reset()
	}
	return status, err
}

func (p *StatusPoller) exchange(ctx context.Context) (*command.StatusResponse, error) {
	if p.client == nil {
		c, err := transport.DialControl(ctx, p.addr, p.timeout)
		if err != nil {
			return nil, err
		}
		p.client = c
	}
	req, err := command.MarshalRequest(&command.StatusRequest{})
	if err != nil {
		return nil, err
	}
	raw, err := p.client.RoundTrip(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, err := command.ParseResponse(raw)
	if err != nil {
		return nil, err
	}
	status, ok := resp.(*command.StatusResponse)
	if !ok {
		return nil, fmt.Errorf("mfr: status poll answered with %s", resp.CommandType())
	}
	return status, nil
}

func (p *StatusPoller) reset() {
	if p.client != nil {
		_ = p.client.Close()
		p.client = nil
	}
}
