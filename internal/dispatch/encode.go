package dispatch

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/wmapap/wmap-ap/internal/codec"
)

// frame-control Type field values (IEEE 802.11-2016 §9.2.4.1.3), shifted
// into bits 2-3 of the frame-control word.
const (
	fcTypeMgmt = 0 << 2
	fcTypeData = 2 << 2
	fcFromDS   = 1 << 9
)

func radiotapBytes() []byte {
	rt := codec.EncodeRadioTap()
	buf := gopacket.NewSerializeBuffer()
	if err := rt.SerializeTo(buf, gopacket.SerializeOptions{FixLengths: true}); err != nil {
		return nil
	}
	return buf.Bytes()
}

// encodeDot11 assembles a radiotap-prefixed 802.11 header plus body: the
// common shape every frame this package transmits shares once its
// fixed/information-element body is built.
func encodeDot11(fc uint16, addr1, addr2, addr3 [6]byte, sc uint16, body []byte) []byte {
	rt := radiotapBytes()
	out := make([]byte, 0, len(rt)+24+len(body))
	out = append(out, rt...)
	out = append(out, byte(fc), byte(fc>>8))
	out = append(out, 0, 0) // duration/ID
	out = append(out, addr1[:]...)
	out = append(out, addr2[:]...)
	out = append(out, addr3[:]...)
	out = append(out, byte(sc), byte(sc>>8))
	out = append(out, body...)
	return out
}

// Encode serializes a management frame (auth/assoc/deauth response or
// beacon/probe-response) as a transmittable radiotap+802.11 byte string.
// subtype occupies bits 4-7 of the frame-control field; sc is the
// sequence-control value the caller allocated via BSS.NextSequenceControl.
func (f *ManagementFrame) Encode(sc uint16) []byte {
	fc := uint16(fcTypeMgmt) | uint16(f.Subtype)<<4
	return encodeDot11(fc, f.Addr1, f.Addr2, f.Addr3, sc, f.Body)
}

// Encode serializes a beacon or probe response. Beacons use subtype
// 0x08, probe responses 0x05.
func (f *BeaconFrame) Encode(sc uint16) []byte {
	subtype := uint8(0x08)
	if f.IsProbeResponse {
		subtype = 0x05
	}
	fc := uint16(fcTypeMgmt) | uint16(subtype)<<4
	return encodeDot11(fc, f.Addr1, f.Addr2, f.Addr3, sc, f.Body)
}

// Encode serializes an EAPOL-Key frame as an unencrypted data frame
// carrying LLC/SNAP(EAPOL), from-DS set since the AP is the transmitter.
func (f *EAPOLFrame) Encode(sc uint16) []byte {
	fc := uint16(fcTypeData) | fcFromDS
	_, snap := codec.BuildLLCSNAP(layers.EthernetTypeEAPOL)
	body := make([]byte, 0, codec.LLCSNAPLen+len(f.Body))
	body = append(body, 0xaa, 0xaa, 0x03, 0x00, 0x00, 0x00, byte(snap.Type>>8), byte(snap.Type))
	body = append(body, f.Body...)
	return encodeDot11(fc, f.Addr1, f.Addr2, f.Addr3, sc, body)
}
