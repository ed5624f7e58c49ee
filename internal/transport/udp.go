package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	logs "github.com/danmuck/mfrlink/internal/logging"
)

const (
	DefaultReadBufferSize = 64 * 1024
	DefaultPollTimeout    = time.Second
)

var ErrAlreadyStarted = errors.New("transport: receiver already started")

// PacketHandler is called once per datagram from the receive goroutine.
// payload is only valid for the duration of the call.
type PacketHandler func(payload []byte, from net.Addr)

type UDPReceiverConfig struct {
	Name        string
	BufferSize  int
	PollTimeout time.Duration
}

func (c UDPReceiverConfig) withDefaults() UDPReceiverConfig {
	if c.Name == "" {
		c.Name = "udp"
	}
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultReadBufferSize
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = DefaultPollTimeout
	}
	return c
}

// UDPReceiver runs one receive goroutine over a packet socket. The read
// deadline is re-armed every PollTimeout so cancellation is observed even
// when no traffic arrives.
type UDPReceiver struct {
	conn    net.PacketConn
	cfg     UDPReceiverConfig
	handler PacketHandler

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool

	packets   atomic.Uint64
	bytes     atomic.Uint64
	readError atomic.Uint64
}

// ListenUDP binds addr and wraps the socket in a receiver.
func ListenUDP(addr string, cfg UDPReceiverConfig, handler PacketHandler) (*UDPReceiver, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen udp %s: %w", addr, err)
	}
	return NewUDPReceiver(conn, cfg, handler), nil
}

// NewUDPReceiver takes ownership of conn; Stop closes it.
func NewUDPReceiver(conn net.PacketConn, cfg UDPReceiverConfig, handler PacketHandler) *UDPReceiver {
	return &UDPReceiver{
		conn:    conn,
		cfg:     cfg.withDefaults(),
		handler: handler,
	}
}

func (r *UDPReceiver) Addr() net.Addr {
	return r.conn.LocalAddr()
}

// Start launches the receive goroutine. It runs until ctx is cancelled or
// Stop is called.
func (r *UDPReceiver) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != nil || r.stopped {
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.run(ctx, r.done)
	logs.Infof("transport.UDPReceiver.Start name=%s addr=%s", r.cfg.Name, r.conn.LocalAddr())
	return nil
}

// Stop cancels the loop, waits for it to exit, then closes the socket.
// It is safe to call more than once.
func (r *UDPReceiver) Stop() error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	err := r.conn.Close()
	logs.Infof("transport.UDPReceiver.Stop name=%s packets=%d", r.cfg.Name, r.packets.Load())
	return err
}

// Done is closed when the receive goroutine exits. It is nil before Start.
func (r *UDPReceiver) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

type UDPReceiverStats struct {
	Packets    uint64 `json:"packets"`
	Bytes      uint64 `json:"bytes"`
	ReadErrors uint64 `json:"read_errors"`
}

func (r *UDPReceiver) Stats() UDPReceiverStats {
	return UDPReceiverStats{
		Packets:    r.packets.Load(),
		Bytes:      r.bytes.Load(),
		ReadErrors: r.readError.Load(),
	}
}

func (r *UDPReceiver) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	buf := make([]byte, r.cfg.BufferSize)
	for {
		if ctx.Err() != nil {
			return
		}
		_ = r.conn.SetReadDeadline(time.Now().Add(r.cfg.PollTimeout))
		n, from, err := r.conn.ReadFrom(buf)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return
			}
			r.readError.Add(1)
			logs.Warnf("transport.UDPReceiver.run name=%s read err=%v", r.cfg.Name, err)
			continue
		}
		r.packets.Add(1)
		r.bytes.Add(uint64(n))
		if r.handler != nil {
			r.handler(buf[:n], from)
		}
	}
}

// UDPSender writes one datagram per Write to a fixed peer.
type UDPSender struct {
	conn    net.Conn
	packets atomic.Uint64
	bytes   atomic.Uint64
}

var _ io.Writer = (*UDPSender)(nil)

// DialUDP connects a UDP socket to addr.
func DialUDP(addr string) (*UDPSender, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial udp %s: %w", addr, err)
	}
	return &UDPSender{conn: conn}, nil
}

func (s *UDPSender) Write(p []byte) (int, error) {
	n, err := s.conn.Write(p)
	if err != nil {
		return n, err
	}
	s.packets.Add(1)
	s.bytes.Add(uint64(n))
	return n, nil
}

func (s *UDPSender) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}

func (s *UDPSender) Packets() uint64 { return s.packets.Load() }

func (s *UDPSender) Bytes() uint64 { return s.bytes.Load() }

func (s *UDPSender) Close() error {
	return s.conn.Close()
}
