package codec

// CCMPHeaderLen is the fixed 8-byte size of the CCMP header that follows the
// 802.11 MAC header (and QoS-control field, if present) on every protected
// data frame.
const CCMPHeaderLen = 8

// CCMPHeader is the decoded form of the 8-byte CCMP header: a 6-byte packet
// number split non-contiguously around a reserved/Key-ID octet, exactly as
// IEEE 802.11-2016 Figure 12-8 lays it out on the wire.
type CCMPHeader struct {
	PN     uint64 // 48-bit packet number, reassembled from PN0..PN5
	KeyID  uint8  // 2-bit key identifier (0 for pairwise, 1-3 for group)
	ExtIV  bool   // always true for CCMP; present for parity with the wire format
}

// EncodeCCMPHeader packs a PN and key id into the 8-byte on-wire layout:
//
//	byte0 = PN0          byte1 = PN1
//	byte2 = Rsvd(0)      byte3 = ExtIV<<5 | KeyID<<6
//	byte4 = PN2          byte5 = PN3
//	byte6 = PN4          byte7 = PN5
func EncodeCCMPHeader(h CCMPHeader) []byte {
	b := make([]byte, CCMPHeaderLen)
	b[0] = byte(h.PN)
	b[1] = byte(h.PN >> 8)
	b[2] = 0x00
	b[3] = (h.KeyID & 0x03) << 6
	if h.ExtIV {
		b[3] |= 1 << 5
	}
	b[4] = byte(h.PN >> 16)
	b[5] = byte(h.PN >> 24)
	b[6] = byte(h.PN >> 32)
	b[7] = byte(h.PN >> 40)
	return b
}

// DecodeCCMPHeader is the inverse of EncodeCCMPHeader. It does not validate
// the ExtIV bit; callers that need to reject legacy WEP/TKIP headers should
// check it explicitly via the returned ExtIV field.
func DecodeCCMPHeader(b []byte) CCMPHeader {
	pn := uint64(b[0]) |
		uint64(b[1])<<8 |
		uint64(b[4])<<16 |
		uint64(b[5])<<24 |
		uint64(b[6])<<32 |
		uint64(b[7])<<40

	return CCMPHeader{
		PN:    pn,
		KeyID: (b[3] >> 6) & 0x03,
		ExtIV: b[3]&(1<<5) != 0,
	}
}
