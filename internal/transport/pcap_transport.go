package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
)

// PcapTransport reads and writes radiotap-prefixed frames over a live
// monitor-mode pcap handle.
type PcapTransport struct {
	handle  *pcap.Handle
	packets chan gopacket.Packet
}

// NewPcapTransport opens iface in promiscuous mode and starts streaming
// captured packets.
func NewPcapTransport(iface string) (*PcapTransport, error) {
	handle, err := pcap.OpenLive(iface, 65536, true, pcap.BlockForever)
	if err != nil {
		return nil, fmt.Errorf("transport: pcap open %s: %w", iface, err)
	}

	source := gopacket.NewPacketSource(handle, handle.LinkType())
	return &PcapTransport{handle: handle, packets: source.Packets()}, nil
}

// Receive blocks until a frame arrives, ctx is cancelled, or the handle
// is closed.
func (t *PcapTransport) Receive(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case packet, ok := <-t.packets:
		if !ok {
			return nil, errors.New("transport: pcap source closed")
		}
		return packet.Data(), nil
	}
}

// Send writes a raw (radiotap-prefixed) frame to the interface.
func (t *PcapTransport) Send(frame []byte) error {
	return t.handle.WritePacketData(frame)
}

// Close releases the pcap handle.
func (t *PcapTransport) Close() error {
	t.handle.Close()
	return nil
}
