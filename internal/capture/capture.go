// Package capture reads and writes UDP traffic in pcap and pcapng files so
// recorded link sessions can be replayed through the receive path offline.
package capture

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

const ngMagic = 0x0A0D0D0A

// Datagram is one UDP payload with its addressing.
type Datagram struct {
	Time    time.Time
	SrcIP   net.IP
	DstIP   net.IP
	SrcPort uint16
	DstPort uint16
	Payload []byte
}

// Filter selects datagrams by destination port; zero matches any port.
type Filter struct {
	DstPort uint16
}

func (f Filter) match(d Datagram) bool {
	return f.DstPort == 0 || f.DstPort == d.DstPort
}

type ReplayStats struct {
	Frames  int `json:"frames"`
	UDP     int `json:"udp"`
	Matched int `json:"matched"`
}

type packetSource interface {
	LinkType() layers.LinkType
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
}

// open detects pcapng by its section header magic and falls back to
// classic pcap otherwise.
func open(r io.Reader) (packetSource, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("capture: read magic: %w", err)
	}
	if binary.LittleEndian.Uint32(head) == ngMagic {
		ng, err := pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return nil, fmt.Errorf("capture: pcapng: %w", err)
		}
		return ng, nil
	}
	pr, err := pcapgo.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("capture: pcap: %w", err)
	}
	return pr, nil
}

// Replay decodes every frame in r and calls handle for each UDP datagram
// that passes filter, in capture order. Non-UDP frames are skipped.
func Replay(r io.Reader, filter Filter, handle func(Datagram)) (ReplayStats, error) {
	src, err := open(r)
	if err != nil {
		return ReplayStats{}, err
	}
	var st ReplayStats
	for {
		data, ci, err := src.ReadPacketData()
		if errors.Is(err, io.EOF) {
			return st, nil
		}
		if err != nil {
			return st, fmt.Errorf("capture: frame %d: %w", st.Frames+1, err)
		}
		st.Frames++

		pkt := gopacket.NewPacket(data, src.LinkType(), gopacket.DecodeOptions{Lazy: true, NoCopy: true})
		udpLayer := pkt.Layer(layers.LayerTypeUDP)
		if udpLayer == nil {
			continue
		}
		udp := udpLayer.(*layers.UDP)
		st.UDP++

		d := Datagram{
			Time:    ci.Timestamp,
			SrcPort: uint16(udp.SrcPort),
			DstPort: uint16(udp.DstPort),
			Payload: udp.Payload,
		}
		switch ip := pkt.NetworkLayer().(type) {
		case *layers.IPv4:
			d.SrcIP, d.DstIP = ip.SrcIP, ip.DstIP
		case *layers.IPv6:
			d.SrcIP, d.DstIP = ip.SrcIP, ip.DstIP
		}
		if !filter.match(d) {
			continue
		}
		st.Matched++
		handle(d)
	}
}

// Writer emits datagrams as Ethernet/IPv4/UDP frames in a classic pcap file.
type Writer struct {
	w   *pcapgo.Writer
	buf gopacket.SerializeBuffer
}

// NewWriter writes the pcap file header to w.
func NewWriter(w io.Writer) (*Writer, error) {
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(65535, layers.LinkTypeEthernet); err != nil {
		return nil, fmt.Errorf("capture: write header: %w", err)
	}
	return &Writer{w: pw, buf: gopacket.NewSerializeBuffer()}, nil
}

func (w *Writer) Write(d Datagram) error {
	src, dst := d.SrcIP.To4(), d.DstIP.To4()
	if src == nil || dst == nil {
		return fmt.Errorf("capture: writer needs IPv4 addresses, got %v -> %v", d.SrcIP, d.DstIP)
	}
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 0x01},
		DstMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 0x02},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    src,
		DstIP:    dst,
	}
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(d.SrcPort),
		DstPort: layers.UDPPort(d.DstPort),
	}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		return err
	}
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(w.buf, opts, eth, ip, udp, gopacket.Payload(d.Payload)); err != nil {
		return fmt.Errorf("capture: serialize: %w", err)
	}
	frame := w.buf.Bytes()
	ci := gopacket.CaptureInfo{Timestamp: d.Time, CaptureLength: len(frame), Length: len(frame)}
	return w.w.WritePacket(ci, frame)
}
