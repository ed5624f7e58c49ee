package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/mfrlink/internal/scenario"
	"github.com/danmuck/mfrlink/internal/testutil/testlog"
	"github.com/pterm/pterm"
)

func TestMain(m *testing.M) {
	pterm.DisableStyling()
	os.Exit(m.Run())
}

func generateOpts(legacy bool) generateOptions {
	return generateOptions{
		Scenario:  scenario.Default(),
		Ticks:     10,
		Port:      9870,
		Legacy:    legacy,
		PerPacket: 1,
		Start:     time.Unix(1_700_000_000, 0).UTC(),
	}
}

func TestGenerateThenReplayBatch(t *testing.T) {
	testlog.Start(t)
	var file bytes.Buffer
	n, err := generate(&file, generateOpts(false))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	targets := len(scenario.Default().Targets)
	if n != 10*targets {
		t.Fatalf("datagrams: got %d want %d", n, 10*targets)
	}

	res, err := replay(bytes.NewReader(file.Bytes()), 9870)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if res.Capture.Matched != n {
		t.Fatalf("capture stats: %+v", res.Capture)
	}
	b := res.Comm.Batch
	if b.TotalPackets != uint64(n) || b.LossCount != 0 || b.IntegrityFailures != 0 {
		t.Fatalf("batch stats: %+v", b)
	}
	if b.LastSeqID != uint32(n-1) {
		t.Fatalf("last seq: %d", b.LastSeqID)
	}
	if len(res.Targets) != targets {
		t.Fatalf("tracks: %+v", res.Targets)
	}
	for _, tr := range res.Targets {
		if tr.Tick != 10 || tr.Updates != 10 {
			t.Fatalf("track %d: tick=%d updates=%d", tr.ID, tr.Tick, tr.Updates)
		}
	}

	var out bytes.Buffer
	if err := renderReplay(&out, res); err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"Replay", "Targets", "lost packets", "1001"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("report missing %q:\n%s", want, out.String())
		}
	}
}

func TestGenerateThenReplayLegacy(t *testing.T) {
	testlog.Start(t)
	var file bytes.Buffer
	n, err := generate(&file, generateOpts(true))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	res, err := replay(bytes.NewReader(file.Bytes()), 9870)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if res.Comm.Batch.TotalPackets != 0 || res.Comm.LegacyTargets != uint64(n) {
		t.Fatalf("stats: %+v", res.Comm)
	}
}

func TestReplayOtherPortSeesNothing(t *testing.T) {
	testlog.Start(t)
	var file bytes.Buffer
	if _, err := generate(&file, generateOpts(false)); err != nil {
		t.Fatalf("generate: %v", err)
	}
	res, err := replay(bytes.NewReader(file.Bytes()), 9999)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if res.Capture.Matched != 0 || res.Comm.Batch.TotalPackets != 0 || len(res.Targets) != 0 {
		t.Fatalf("unexpected traffic: %+v", res.Capture)
	}
}

func TestRunCommands(t *testing.T) {
	testlog.Start(t)
	var stdout, stderr bytes.Buffer
	if code := run(nil, &stdout, &stderr); code != 2 {
		t.Fatalf("no args exit code: %d", code)
	}
	if code := run([]string{"bogus"}, &stdout, &stderr); code != 2 {
		t.Fatalf("unknown command exit code: %d", code)
	}
	if code := run([]string{"replay"}, &stdout, &stderr); code != 1 {
		t.Fatalf("replay without pcap exit code: %d", code)
	}

	path := filepath.Join(t.TempDir(), "sim.pcap")
	if code := run([]string{"generate", "-out", path, "-ticks", "3"}, &stdout, &stderr); code != 0 {
		t.Fatalf("generate exit code: %d stderr=%s", code, stderr.String())
	}
	stdout.Reset()
	if code := run([]string{"replay", "-pcap", path}, &stdout, &stderr); code != 0 {
		t.Fatalf("replay exit code: %d stderr=%s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "matched datagrams") {
		t.Fatalf("unexpected report:\n%s", stdout.String())
	}
}
