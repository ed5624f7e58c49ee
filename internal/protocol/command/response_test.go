package command

import (
	"encoding/binary"
	"errors"
	"reflect"
	"testing"

	"github.com/danmuck/mfrlink/internal/protocol"
)

func sampleStatus() *StatusResponse {
	return &StatusResponse{
		Radars: []RadarStatus{
			{RadarID: 1, Mode: RadarTrack, AzimuthDeg: 45.5, ElevationDeg: 10, Operational: true},
		},
		LCs: []LCStatus{
			{LCID: 7, State: LCReady, ConnectedLS: 2},
		},
		LSs: []LSStatus{
			{LSID: 11, Mode: LSReady, X: 100.25, Y: -20.5, AzimuthDeg: 90, MissilesLeft: 4},
			{LSID: 12, Mode: LSMoving, X: 300, Y: 40, AzimuthDeg: 180, MissilesLeft: 0},
		},
		Targets: []TargetStatus{
			{TargetID: 1001, X: 5000, Y: 2500, Z: 3000, Speed: 250, HeadingDeg: 270, Threat: ThreatHigh},
		},
		Missiles: []MissileStatus{
			{MissileID: 501, TargetID: 1001, X: 120, Y: 30, Z: 800, State: MissileInFlight},
		},
	}
}

func mustMarshal(t *testing.T, resp Response) []byte {
	t.Helper()
	b, err := MarshalResponse(resp)
	if err != nil {
		t.Fatalf("marshal %s: %v", resp.CommandType(), err)
	}
	return b
}

func TestParseResponseEmptyBuffer(t *testing.T) {
	resp, err := ParseResponse(nil)
	if !errors.Is(err, protocol.ErrEmptyBuffer) {
		t.Fatalf("expected ErrEmptyBuffer, got %v", err)
	}
	if resp != nil {
		t.Fatalf("expected nil response, got %#v", resp)
	}
}

func TestParseResponseUnknownCommand(t *testing.T) {
	for _, b := range [][]byte{
		{0x01, 0xDE, 0xAD, 0xBE, 0xEF},
		{0x00},
		{byte(StatusRequestType)},
		{0xFF, 0x00},
	} {
		if _, err := ParseResponse(b); !errors.Is(err, protocol.ErrUnknownCommand) {
			t.Fatalf("buffer % x: expected ErrUnknownCommand, got %v", b, err)
		}
	}
}

func TestParseResponseRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		resp Response
	}{
		{"status", sampleStatus()},
		{"empty status", &StatusResponse{
			Radars: []RadarStatus{}, LCs: []LCStatus{}, LSs: []LSStatus{},
			Targets: []TargetStatus{}, Missiles: []MissileStatus{},
		}},
		{"radar mode ack", &RadarModeChangeAck{RadarID: 3, Mode: RadarSearch, Result: AckAccepted}},
		{"ls mode ack", &LSModeChangeAck{LSID: 11, Mode: LSLaunching, Result: AckRejected}},
		{"missile launch ack", &MissileLaunchAck{LSID: 11, MissileID: 502, TargetID: 1001, Result: AckAccepted}},
		{"ls move ack", &LSMoveAck{LSID: 12, X: 12.5, Y: -7.25, Result: AckAccepted}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := mustMarshal(t, tc.resp)
			if CommandType(buf[0]) != tc.resp.CommandType() {
				t.Fatalf("type byte got=%#02x want=%s", buf[0], tc.resp.CommandType())
			}
			got, err := ParseResponse(buf)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if !reflect.DeepEqual(got, tc.resp) {
				t.Fatalf("round-trip mismatch:\n got=%+v\nwant=%+v", got, tc.resp)
			}
		})
	}
}

func TestParseResponseFixedSizes(t *testing.T) {
	cases := []struct {
		resp Response
		size int
	}{
		{&RadarModeChangeAck{}, RadarModeChangeAckSize},
		{&LSModeChangeAck{}, LSModeChangeAckSize},
		{&MissileLaunchAck{}, MissileLaunchAckSize},
		{&LSMoveAck{}, LSMoveAckSize},
	}
	for _, tc := range cases {
		if got := len(mustMarshal(t, tc.resp)); got != 1+tc.size {
			t.Fatalf("%s encoded %d bytes, want %d", tc.resp.CommandType(), got, 1+tc.size)
		}
	}
	st := sampleStatus()
	want := 1 + 5*2 +
		len(st.Radars)*RadarStatusSize + len(st.LCs)*LCStatusSize + len(st.LSs)*LSStatusSize +
		len(st.Targets)*TargetStatusSize + len(st.Missiles)*MissileStatusSize
	if got := len(mustMarshal(t, st)); got != want {
		t.Fatalf("status encoded %d bytes, want %d", got, want)
	}
}

func TestParseResponseTruncatedAck(t *testing.T) {
	for _, resp := range []Response{
		&RadarModeChangeAck{RadarID: 1},
		&LSModeChangeAck{LSID: 1},
		&MissileLaunchAck{LSID: 1},
		&LSMoveAck{LSID: 1},
	} {
		full := mustMarshal(t, resp)
		for n := 1; n < len(full); n++ {
			got, err := ParseResponse(full[:n])
			if !errors.Is(err, protocol.ErrTruncated) {
				t.Fatalf("%s prefix %d: expected ErrTruncated, got %v", resp.CommandType(), n, err)
			}
			if got != nil {
				t.Fatalf("%s prefix %d: response returned on error", resp.CommandType(), n)
			}
		}
	}
}

func TestParseResponseStatusPrefixesNeverSucceed(t *testing.T) {
	full := mustMarshal(t, sampleStatus())
	for n := 1; n < len(full); n++ {
		got, err := ParseResponse(full[:n])
		if !errors.Is(err, protocol.ErrTruncated) && !errors.Is(err, protocol.ErrMalformed) {
			t.Fatalf("prefix %d: expected ErrTruncated or ErrMalformed, got %v", n, err)
		}
		if got != nil {
			t.Fatalf("prefix %d: partial status returned", n)
		}
	}
	if _, err := ParseResponse(full[:1]); !errors.Is(err, protocol.ErrTruncated) {
		t.Fatalf("type byte only: expected ErrTruncated, got %v", err)
	}
}

func TestParseResponseStatusCountOverrunIsMalformed(t *testing.T) {
	full := mustMarshal(t, sampleStatus())
	for _, count := range []uint16{11, 100, 0xFFFF} {
		buf := append([]byte(nil), full...)
		binary.LittleEndian.PutUint16(buf[1:3], count)
		if _, err := ParseResponse(buf); !errors.Is(err, protocol.ErrMalformed) {
			t.Fatalf("radar count %d: expected ErrMalformed, got %v", count, err)
		}
	}

	// Missile list is last: declare one more entry than present.
	buf := append([]byte(nil), full...)
	off := len(buf) - MissileStatusSize - 2
	binary.LittleEndian.PutUint16(buf[off:off+2], 2)
	if _, err := ParseResponse(buf); !errors.Is(err, protocol.ErrMalformed) {
		t.Fatalf("missile overrun: expected ErrMalformed, got %v", err)
	}
}

func TestParseResponseInvalidDiscriminants(t *testing.T) {
	ack := mustMarshal(t, &RadarModeChangeAck{RadarID: 1, Mode: RadarTrack})
	ack[5] = 9
	if _, err := ParseResponse(ack); !errors.Is(err, protocol.ErrMalformed) {
		t.Fatalf("radar mode: expected ErrMalformed, got %v", err)
	}

	ack = mustMarshal(t, &MissileLaunchAck{LSID: 1})
	ack[len(ack)-1] = 2
	if _, err := ParseResponse(ack); !errors.Is(err, protocol.ErrMalformed) {
		t.Fatalf("ack result: expected ErrMalformed, got %v", err)
	}

	st := mustMarshal(t, &StatusResponse{Radars: []RadarStatus{{RadarID: 1, Operational: true}}})
	st[3+RadarStatusSize-1] = 7
	if _, err := ParseResponse(st); !errors.Is(err, protocol.ErrMalformed) {
		t.Fatalf("radar operational: expected ErrMalformed, got %v", err)
	}

	st = mustMarshal(t, &StatusResponse{Targets: []TargetStatus{{TargetID: 1}}})
	st[len(st)-3] = byte(ThreatHigh + 1)
	if _, err := ParseResponse(st); !errors.Is(err, protocol.ErrMalformed) {
		t.Fatalf("target threat: expected ErrMalformed, got %v", err)
	}
}

func TestParseResponseTrailingBytesIsMalformed(t *testing.T) {
	for _, resp := range []Response{sampleStatus(), &LSMoveAck{LSID: 1}} {
		buf := append(mustMarshal(t, resp), 0x00)
		if _, err := ParseResponse(buf); !errors.Is(err, protocol.ErrMalformed) {
			t.Fatalf("%s: expected ErrMalformed, got %v", resp.CommandType(), err)
		}
	}
}

func TestParseResponseDoesNotAliasInput(t *testing.T) {
	buf := mustMarshal(t, sampleStatus())
	got, err := ParseResponse(buf)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for i := range buf {
		buf[i] = 0xFF
	}
	if !reflect.DeepEqual(got, sampleStatus()) {
		t.Fatalf("parsed result changed after input mutation")
	}
}
