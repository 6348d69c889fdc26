// Package upper bridges Ethernet traffic between a BSS's associated
// stations and its upper-layer collaborator: a kernel TAP device or an
// in-process synthetic network (spec §2 "Upper-network bridge").
package upper

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/gopacket/layers"

	"github.com/wmapap/wmap-ap/internal/ap"
	"github.com/wmapap/wmap-ap/internal/dataplane"
)

// Device is the upper-layer collaborator a Bridge pumps frames through:
// a TAPDevice or a SyntheticNetwork. Both implement ap.UpperNetwork
// directly via Deliver, and satisfy Device for the downward direction
// via Read.
type Device interface {
	Deliver(frame []byte) error
	Read(buf []byte) (int, error)
}

// Sender transmits an already-encoded radiotap frame over the radio.
type Sender interface {
	Send(frame []byte) error
}

// Bridge reads plaintext Ethernet frames the upper network wants to
// send, encrypts each to its destination station (or the BSS group key
// for broadcast/multicast), and transmits it (spec §2).
type Bridge struct {
	BSS    *ap.BSS
	Device Device
	Sender Sender
	Logger *slog.Logger
}

// NewBridge returns a Bridge. A nil logger falls back to slog.Default().
func NewBridge(bss *ap.BSS, dev Device, sender Sender, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{BSS: bss, Device: dev, Sender: sender, Logger: logger}
}

// Run reads outgoing frames from the device until ctx is cancelled.
// idlePoll is the delay between reads when Device.Read returns (0, nil)
// without blocking, as SyntheticNetwork does; a TAPDevice blocks inside
// Read itself and idlePoll is never used.
func (b *Bridge) Run(ctx context.Context, idlePoll time.Duration) {
	buf := make([]byte, 65536)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := b.Device.Read(buf)
		if err != nil {
			b.Logger.Error("upper device read failed", "error", err)
			return
		}
		if n == 0 {
			time.Sleep(idlePoll)
			continue
		}
		if err := b.sendDown(buf[:n]); err != nil {
			b.Logger.Warn("dropping frame from upper network", "error", err)
		}
	}
}

// sendDown encrypts one Ethernet frame read from the upper network and
// transmits it, routing to a single station or the BSS group key
// depending on the destination address (spec §4.4).
func (b *Bridge) sendDown(ethernetFrame []byte) error {
	if len(ethernetFrame) < 14 {
		return nil
	}
	var dstMAC, srcMAC [6]byte
	copy(dstMAC[:], ethernetFrame[0:6])
	copy(srcMAC[:], ethernetFrame[6:12])
	ethertype := layers.EthernetType(uint16(ethernetFrame[12])<<8 | uint16(ethernetFrame[13]))
	payload := ethernetFrame[14:]

	var (
		enc *dataplane.EncryptedFrame
		err error
	)
	if dataplane.IsGroupDestination(dstMAC) {
		enc, err = dataplane.EncryptGroup(b.BSS, ethertype, srcMAC, payload)
	} else {
		sta := b.BSS.Station(dstMAC)
		if sta == nil || !sta.Associated {
			return nil // destination not (yet) an associated station; drop silently
		}
		enc, err = dataplane.EncryptToStation(b.BSS, sta, ethertype, srcMAC, payload)
	}
	if err != nil {
		return err
	}

	return b.Sender.Send(enc.Encode())
}
