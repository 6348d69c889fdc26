package upper

import (
	"net"
	"sync"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	ethertypeARP layers.EthernetType = 0x0806
	arpOpRequest                     = 1
	arpOpReply                       = 2
)

// SyntheticNetwork is an in-process stand-in for a kernel TAP device: it
// answers ARP requests for its configured IP address and otherwise does
// nothing with a delivered frame (spec: ARP/ICMP/DHCP/DNS responders are
// "stub application-layer helpers whose only interaction with the core
// is frame in, frame out").
type SyntheticNetwork struct {
	MAC net.HardwareAddr
	IP  net.IP

	mu    sync.Mutex
	queue [][]byte
}

// NewSyntheticNetwork returns a synthetic network answering as mac/ip.
func NewSyntheticNetwork(mac [6]byte, ip net.IP) *SyntheticNetwork {
	return &SyntheticNetwork{MAC: net.HardwareAddr(mac[:]), IP: ip.To4()}
}

// Deliver implements ap.UpperNetwork. It inspects frame and, if it is an
// ARP request for this network's IP, queues a reply for Read.
func (n *SyntheticNetwork) Deliver(frame []byte) error {
	if reply := n.respondARP(frame); reply != nil {
		n.mu.Lock()
		n.queue = append(n.queue, reply)
		n.mu.Unlock()
	}
	return nil
}

// Read returns the next queued reply frame, or (0, nil) if none is
// pending. The upper-layer bridge polls this in its send loop.
func (n *SyntheticNetwork) Read(buf []byte) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.queue) == 0 {
		return 0, nil
	}
	next := n.queue[0]
	n.queue = n.queue[1:]
	return copy(buf, next), nil
}

func (n *SyntheticNetwork) respondARP(frame []byte) []byte {
	if len(frame) < 14+28 || n.IP == nil {
		return nil
	}
	ethertype := layers.EthernetType(uint16(frame[12])<<8 | uint16(frame[13]))
	if ethertype != ethertypeARP {
		return nil
	}

	body := frame[14:]
	operation := uint16(body[6])<<8 | uint16(body[7])
	if operation != arpOpRequest {
		return nil
	}

	senderHA := append([]byte(nil), body[8:14]...)
	senderPA := append([]byte(nil), body[14:18]...)
	targetPA := body[24:28]
	if !net.IP(targetPA).Equal(n.IP) {
		return nil
	}

	reply := make([]byte, 28)
	copy(reply[0:4], body[0:4]) // htype, ptype
	reply[4], reply[5] = body[4], body[5]
	reply[6], reply[7] = 0, arpOpReply
	copy(reply[8:14], n.MAC)
	copy(reply[14:18], n.IP)
	copy(reply[18:24], senderHA)
	copy(reply[24:28], senderPA)

	eth := &layers.Ethernet{
		DstMAC:       senderHA,
		SrcMAC:       n.MAC,
		EthernetType: ethertypeARP,
	}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, gopacket.Payload(reply)); err != nil {
		return nil
	}
	return buf.Bytes()
}
