package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/danmuck/mfrlink/internal/protocol/command"
	"github.com/danmuck/mfrlink/internal/transport"
)

var ErrUsage = errors.New("console: usage")

const Usage = `commands:
  status
  radar-mode <radar-id> <standby|search|track>
  ls-mode <ls-id> <standby|ready|launching>
  launch <ls-id> <target-id>
  move <ls-id> <x> <y>`

type Config struct {
	ControlAddr string
	Timeout     time.Duration
}

func DefaultConfig() Config {
	return Config{
		ControlAddr: "127.0.0.1:9871",
		Timeout:     transport.DefaultControlTimeout,
	}
}

// ParseArgs turns a command line into a control request.
func ParseArgs(args []string) (command.Request, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: missing command", ErrUsage)
	}
	verb, rest := strings.ToLower(args[0]), args[1:]
	want := map[string]int{"status": 0, "radar-mode": 2, "ls-mode": 2, "launch": 2, "move": 3}
	n, ok := want[verb]
	if !ok {
		return nil, fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
	if len(rest) != n {
		return nil, fmt.Errorf("%w: %s takes %d arguments, got %d", ErrUsage, verb, n, len(rest))
	}

	switch verb {
	case "status":
		return &command.StatusRequest{}, nil
	case "radar-mode":
		id, err := parseID(rest[0])
		if err != nil {
			return nil, err
		}
		mode, err := command.ParseRadarMode(strings.ToLower(rest[1]))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUsage, err)
		}
		return &command.RadarModeChange{RadarID: id, Mode: mode}, nil
	case "ls-mode":
		id, err := parseID(rest[0])
		if err != nil {
			return nil, err
		}
		mode, err := command.ParseLSMode(strings.ToLower(rest[1]))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUsage, err)
		}
		return &command.LSModeChange{LSID: id, Mode: mode}, nil
	case "launch":
		ls, err := parseID(rest[0])
		if err != nil {
			return nil, err
		}
		tgt, err := parseID(rest[1])
		if err != nil {
			return nil, err
		}
		return &command.MissileLaunch{LSID: ls, TargetID: tgt}, nil
	default:
		ls, err := parseID(rest[0])
		if err != nil {
			return nil, err
		}
		x, err := strconv.ParseFloat(rest[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: x: %v", ErrUsage, err)
		}
		y, err := strconv.ParseFloat(rest[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: y: %v", ErrUsage, err)
		}
		return &command.LSMove{LSID: ls, X: x, Y: y}, nil
	}
}

func parseID(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: id %q: %v", ErrUsage, s, err)
	}
	return uint32(v), nil
}

// Exec sends req over a fresh control connection and parses the reply.
func Exec(ctx context.Context, cfg Config, req command.Request) (command.Response, error) {
	payload, err := command.MarshalRequest(req)
	if err != nil {
		return nil, err
	}
	client, err := transport.DialControl(ctx, cfg.ControlAddr, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	raw, err := client.RoundTrip(ctx, payload)
	if err != nil {
		return nil, err
	}
	return command.ParseResponse(raw)
}

// Run parses args, executes the request and renders the response to w.
func Run(ctx context.Context, cfg Config, args []string, w io.Writer) error {
	req, err := ParseArgs(args)
	if err != nil {
		return err
	}
	resp, err := Exec(ctx, cfg, req)
	if err != nil {
		return err
	}
	return Render(w, resp)
}
