package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	logs "github.com/danmuck/mfrlink/internal/logging"
	"github.com/danmuck/mfrlink/internal/protocol"
	"github.com/danmuck/mfrlink/internal/protocol/tcpframe"
)

const (
	DefaultControlTimeout = 5 * time.Second
	DefaultIdleTimeout    = 30 * time.Second
)

var ErrUnexpectedMarker = errors.New("transport: unexpected frame marker")

// ControlHandler answers one request payload with one response payload.
type ControlHandler func(ctx context.Context, payload []byte) ([]byte, error)

type ControlServerConfig struct {
	IdleTimeout  time.Duration
	WriteTimeout time.Duration
	Limits       tcpframe.Limits
}

func (c ControlServerConfig) withDefaults() ControlServerConfig {
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultControlTimeout
	}
	if c.Limits.MaxPayloadBytes == 0 {
		c.Limits = tcpframe.DefaultLimits()
	}
	return c
}

// ControlServer serves framed request/response exchanges over TCP, one
// request frame at a time per connection.
type ControlServer struct {
	cfg     ControlServerConfig
	handler ControlHandler

	wg      sync.WaitGroup
	clients atomic.Int64
}

func NewControlServer(cfg ControlServerConfig, handler ControlHandler) *ControlServer {
	return &ControlServer{cfg: cfg.withDefaults(), handler: handler}
}

// ListenAndServe binds addr and serves until ctx is cancelled.
func (s *ControlServer) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", strings.TrimSpace(addr))
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts on ln until ctx is cancelled, then waits for open
// connections to finish.
func (s *ControlServer) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	logs.Infof("transport.ControlServer listening addr=%q", ln.Addr().String())

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	defer s.wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *ControlServer) Clients() int64 {
	return s.clients.Load()
}

func (s *ControlServer) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()
	active := s.clients.Add(1)
	logs.Infof("transport.ControlServer client connected remote=%q active_clients=%d", remote, active)
	defer func() {
		remaining := s.clients.Add(-1)
		logs.Infof("transport.ControlServer client disconnected remote=%q active_clients=%d", remote, remaining)
	}()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout))
		req, err := tcpframe.Read(conn, s.cfg.Limits)
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				logs.Warnf("transport.ControlServer read remote=%q kind=%s err=%v", remote, protocol.Kind(err), err)
			}
			return
		}
		if req.Marker != tcpframe.MarkerRequest {
			logs.Warnf("transport.ControlServer remote=%q marker=%#02x rejected", remote, req.Marker)
			return
		}
		resp, err := s.handler(ctx, req.Payload)
		if err != nil {
			logs.Warnf("transport.ControlServer handler remote=%q kind=%s err=%v", remote, protocol.Kind(err), err)
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
		if err := tcpframe.Write(conn, tcpframe.MarkerResponse, resp); err != nil {
			logs.Warnf("transport.ControlServer write remote=%q err=%v", remote, err)
			return
		}
	}
}

// ControlClient is a single TCP control connection. Calls are serialized.
type ControlClient struct {
	mu      sync.Mutex
	conn    net.Conn
	timeout time.Duration
	limits  tcpframe.Limits
}

// DialControl connects to a control server. timeout <= 0 selects
// DefaultControlTimeout and bounds both the dial and each round trip.
func DialControl(ctx context.Context, addr string, timeout time.Duration) (*ControlClient, error) {
	if timeout <= 0 {
		timeout = DefaultControlTimeout
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial control %s: %w", addr, err)
	}
	return &ControlClient{conn: conn, timeout: timeout, limits: tcpframe.DefaultLimits()}, nil
}

// RoundTrip writes payload as a request frame and returns the payload of the
// response frame.
func (c *ControlClient) RoundTrip(ctx context.Context, payload []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetDeadline(deadline)
	stop := context.AfterFunc(ctx, func() { _ = c.conn.SetDeadline(time.Now()) })
	defer stop()

	if err := tcpframe.Write(c.conn, tcpframe.MarkerRequest, payload); err != nil {
		if cerr := contextErr(ctx); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("transport: control write: %w", err)
	}
	resp, err := tcpframe.Read(c.conn, c.limits)
	if err != nil {
		if cerr := contextErr(ctx); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("transport: control read: %w", err)
	}
	if resp.Marker != tcpframe.MarkerResponse {
		return nil, fmt.Errorf("%w: %#02x", ErrUnexpectedMarker, resp.Marker)
	}
	return resp.Payload, nil
}

// contextErr also reports an expired deadline the context timer has not
// observed yet, since the socket deadline can fire first.
func contextErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d, ok := ctx.Deadline(); ok && !time.Now().Before(d) {
		return context.DeadlineExceeded
	}
	return nil
}

func (c *ControlClient) Close() error {
	return c.conn.Close()
}
