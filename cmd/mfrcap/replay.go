package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/danmuck/mfrlink/internal/capture"
	logs "github.com/danmuck/mfrlink/internal/logging"
	"github.com/danmuck/mfrlink/internal/mfr"
	"github.com/pterm/pterm"
)

type replayResult struct {
	Capture  capture.ReplayStats
	Comm     mfr.CommStats
	Targets  []mfr.TargetTrack
	Missiles []mfr.MissileTrack
}

func runReplay(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	path := fs.String("pcap", "", "pcap or pcapng file to replay")
	port := fs.Uint("port", 9870, "UDP destination port carrying simulator traffic; 0 replays every UDP datagram")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return fmt.Errorf("replay: -pcap is required")
	}
	if *port > 0xFFFF {
		return fmt.Errorf("replay: port %d out of range", *port)
	}

	f, err := os.Open(*path)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := replay(f, uint16(*port))
	if err != nil {
		return err
	}
	logs.Infof("mfrcap.replay done file=%q frames=%d matched=%d", *path, res.Capture.Frames, res.Capture.Matched)
	return renderReplay(stdout, res)
}

// replay feeds every matching datagram to a detached CommManager, the same
// path live datagrams take after the socket read.
func replay(r io.Reader, port uint16) (replayResult, error) {
	cfg := mfr.DefaultCommConfig()
	cfg.Stream = "capture"
	comm := mfr.NewCommManager(cfg)
	pic := mfr.NewPicture()
	comm.Attach(pic)

	st, err := capture.Replay(r, capture.Filter{DstPort: port}, func(d capture.Datagram) {
		comm.HandleDatagram(d.Payload)
	})
	if err != nil {
		return replayResult{}, err
	}
	return replayResult{
		Capture:  st,
		Comm:     comm.Stats(),
		Targets:  pic.Targets(),
		Missiles: pic.Missiles(),
	}, nil
}

func renderReplay(w io.Writer, res replayResult) error {
	b := res.Comm.Batch
	summary := pterm.TableData{
		{"metric", "value"},
		{"frames", strconv.Itoa(res.Capture.Frames)},
		{"udp datagrams", strconv.Itoa(res.Capture.UDP)},
		{"matched datagrams", strconv.Itoa(res.Capture.Matched)},
		{"batch packets", u64(b.TotalPackets)},
		{"last seq", strconv.FormatUint(uint64(b.LastSeqID), 10)},
		{"lost packets", u64(b.LossCount)},
		{"loss ratio", strconv.FormatFloat(res.Comm.LossRatio, 'f', 4, 64)},
		{"reordered", u64(b.Reordered)},
		{"integrity failures", u64(b.IntegrityFailures)},
		{"malformed batches", u64(b.Malformed)},
		{"target records", u64(b.Delivered)},
		{"legacy targets", u64(res.Comm.LegacyTargets)},
		{"legacy missiles", u64(res.Comm.LegacyMissiles)},
		{"legacy malformed", u64(res.Comm.LegacyMalformed)},
	}
	targets := pterm.TableData{{"target", "kind", "x", "y", "z", "tick", "updates"}}
	for _, t := range res.Targets {
		targets = append(targets, []string{u32(t.ID), t.Kind, f64(t.Pos[0]), f64(t.Pos[1]), f64(t.Pos[2]), u32(t.Tick), u64(t.Updates)})
	}
	missiles := pterm.TableData{{"missile", "target", "state", "x", "y", "z", "tick"}}
	for _, m := range res.Missiles {
		missiles = append(missiles, []string{u32(m.ID), u32(m.TargetID), m.State, f64(m.Pos[0]), f64(m.Pos[1]), f64(m.Pos[2]), u32(m.Tick)})
	}

	for _, sec := range []struct {
		title string
		data  pterm.TableData
	}{
		{"Replay", summary},
		{"Targets", targets},
		{"Missiles", missiles},
	} {
		out, err := pterm.DefaultTable.WithHasHeader().WithData(sec.data).Srender()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\n%s\n\n", pterm.Bold.Sprint(sec.title), out); err != nil {
			return err
		}
	}
	return nil
}

func u32(v uint32) string { return strconv.FormatUint(uint64(v), 10) }

func u64(v uint64) string { return strconv.FormatUint(v, 10) }

func f64(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }
