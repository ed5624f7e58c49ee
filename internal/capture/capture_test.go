package capture

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

func sampleDatagrams() []Datagram {
	base := time.Unix(1_700_000_000, 0).UTC()
	src, dst := net.IPv4(10, 0, 0, 1), net.IPv4(10, 0, 0, 2)
	return []Datagram{
		{Time: base, SrcIP: src, DstIP: dst, SrcPort: 40000, DstPort: 9870, Payload: []byte("first")},
		{Time: base.Add(time.Millisecond), SrcIP: src, DstIP: dst, SrcPort: 40000, DstPort: 9999, Payload: []byte("other port")},
		{Time: base.Add(2 * time.Millisecond), SrcIP: src, DstIP: dst, SrcPort: 40000, DstPort: 9870, Payload: bytes.Repeat([]byte{0xAB}, 1200)},
	}
}

func TestWriteThenReplayFiltersByPort(t *testing.T) {
	var file bytes.Buffer
	w, err := NewWriter(&file)
	if err != nil {
		t.Fatalf("writer: %v", err)
	}
	in := sampleDatagrams()
	for _, d := range in {
		if err := w.Write(d); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	var got []Datagram
	st, err := Replay(bytes.NewReader(file.Bytes()), Filter{DstPort: 9870}, func(d Datagram) {
		got = append(got, d)
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if st.Frames != 3 || st.UDP != 3 || st.Matched != 2 {
		t.Fatalf("stats: %+v", st)
	}
	if !bytes.Equal(got[0].Payload, in[0].Payload) || !bytes.Equal(got[1].Payload, in[2].Payload) {
		t.Fatalf("payload mismatch")
	}
	if !got[1].Time.Equal(in[2].Time) || !got[0].SrcIP.Equal(in[0].SrcIP) || got[0].SrcPort != 40000 {
		t.Fatalf("metadata: %+v", got[0])
	}
}

func TestReplayPcapng(t *testing.T) {
	var file bytes.Buffer
	ng, err := pcapgo.NewNgWriter(&file, layers.LinkTypeEthernet)
	if err != nil {
		t.Fatalf("ng writer: %v", err)
	}

	var classic bytes.Buffer
	w, err := NewWriter(&classic)
	if err != nil {
		t.Fatalf("writer: %v", err)
	}
	d := sampleDatagrams()[0]
	if err := w.Write(d); err != nil {
		t.Fatalf("write: %v", err)
	}
	r, err := pcapgo.NewReader(bytes.NewReader(classic.Bytes()))
	if err != nil {
		t.Fatalf("reader: %v", err)
	}
	data, ci, err := r.ReadPacketData()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := ng.WritePacket(ci, data); err != nil {
		t.Fatalf("ng write: %v", err)
	}
	if err := ng.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	n := 0
	st, err := Replay(bytes.NewReader(file.Bytes()), Filter{}, func(got Datagram) {
		n++
		if !bytes.Equal(got.Payload, d.Payload) {
			t.Fatalf("payload mismatch")
		}
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if n != 1 || st.Matched != 1 {
		t.Fatalf("stats: %+v", st)
	}
}

func TestReplayRejectsGarbage(t *testing.T) {
	if _, err := Replay(bytes.NewReader([]byte("not a capture file")), Filter{}, func(Datagram) {}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestWriterRequiresIPv4(t *testing.T) {
	w, err := NewWriter(&bytes.Buffer{})
	if err != nil {
		t.Fatalf("writer: %v", err)
	}
	d := sampleDatagrams()[0]
	d.DstIP = net.ParseIP("::1")
	if err := w.Write(d); err == nil {
		t.Fatalf("expected error for IPv6 destination")
	}
}
