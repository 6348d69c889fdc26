// Package codec implements lossless encode/decode for the frame kinds the
// access point crafts and consumes on the air: radiotap, the 802.11 MAC
// header, CCMP headers, LLC/SNAP, and EAPOL-Key. Parsing is built on
// gopacket/layers, the same library the teacher sniffer uses to decode
// monitor-mode captures; gopacket's RadioTap layer already walks the
// `present` bitmap to locate each field, so the "bad FCS" flag is never
// read from a hardcoded offset.
package codec

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// DecodeRadioTap parses the radiotap prefix of a captured frame and returns
// the parsed layer plus the remaining bytes (the 802.11 frame it precedes).
// ok is false and the frame must be dropped when the badFCS flag is set.
func DecodeRadioTap(data []byte) (rt *layers.RadioTap, rest []byte, ok bool, err error) {
	packet := gopacket.NewPacket(data, layers.LayerTypeRadioTap, gopacket.NoCopy)
	layer := packet.Layer(layers.LayerTypeRadioTap)
	if layer == nil {
		return nil, nil, false, fmt.Errorf("codec: no radiotap layer in %d bytes", len(data))
	}
	rt, isRT := layer.(*layers.RadioTap)
	if !isRT {
		return nil, nil, false, fmt.Errorf("codec: radiotap layer has unexpected type")
	}
	if rt.Flags.BadFCS() {
		return rt, nil, false, nil
	}
	return rt, layer.LayerPayload(), true, nil
}

// EncodeRadioTap builds a minimal radiotap header (rate only) to prefix a
// transmitted frame, matching the teacher's injection builders which use
// `layers.RadioTap{Present: layers.RadioTapPresentRate, Rate: 5}`.
func EncodeRadioTap() *layers.RadioTap {
	return &layers.RadioTap{
		Present: layers.RadioTapPresentRate,
		Rate:    2, // 1 Mbps, matches a conservative beacon/management rate
	}
}
