package crypto

// Dot11FrameHeader carries the subset of the 802.11 MAC header CCMP's
// nonce and AAD construction depend on (IEEE 802.11-2016 §12.5.3.3.3).
// FCfield is the raw two-byte frame control field as it appears on the
// wire (little-endian on the air, represented here as the host uint16
// gopacket decodes it into).
type Dot11FrameHeader struct {
	FCField        uint16
	Addr1          [6]byte
	Addr2          [6]byte
	Addr3          [6]byte
	SequenceControl uint16
	QoSControl      uint16
	HasQoS          bool
	Addr4           *[6]byte
}

// frame control bits relevant to AAD construction.
const (
	fcProtected    = 1 << 14
	fcRetry        = 1 << 11
	fcPowerMgmt    = 1 << 12
	fcMoreData     = 1 << 13
	fcOrder        = 1 << 15
	fcSubtypeLow4  = 0x00F0 // subtype bits that must be masked for QoS frames (bits 4-6 carry TID only)
)

// CCMPNonce builds the 13-byte CCM nonce: 1 byte priority (0 for non-QoS),
// 6 bytes of the transmitter address, and 6 bytes of PN in big-endian.
func CCMPNonce(priority byte, transmitter [6]byte, pn uint64) []byte {
	nonce := make([]byte, 13)
	nonce[0] = priority
	copy(nonce[1:7], transmitter[:])
	nonce[7] = byte(pn >> 40)
	nonce[8] = byte(pn >> 32)
	nonce[9] = byte(pn >> 24)
	nonce[10] = byte(pn >> 16)
	nonce[11] = byte(pn >> 8)
	nonce[12] = byte(pn)
	return nonce
}

// CCMPAAD builds the CCM additional authenticated data from an 802.11
// header, masking retry/power-management/more-data/order bits to zero
// exactly as IEEE 802.11-2016 §12.5.3.3.3 requires, so that replaying a
// frame with only those mutable bits changed does not change the AAD.
// AMSDU SPP handling is left off per spec.
func CCMPAAD(h Dot11FrameHeader) []byte {
	fc := h.FCField &^ (fcRetry | fcPowerMgmt | fcMoreData | fcOrder)

	aad := make([]byte, 0, 30)
	aad = append(aad, byte(fc), byte(fc>>8))
	aad = append(aad, h.Addr1[:]...)
	aad = append(aad, h.Addr2[:]...)
	aad = append(aad, h.Addr3[:]...)

	sc := h.SequenceControl &^ 0x000F // fragment number masked to zero
	aad = append(aad, byte(sc), byte(sc>>8))

	if h.Addr4 != nil {
		aad = append(aad, h.Addr4[:]...)
	}

	if h.HasQoS {
		qos := h.QoSControl & 0x000F // only TID; A-MSDU present, ack policy and the rest masked (no SPP)
		aad = append(aad, byte(qos), byte(qos>>8))
	}

	return aad
}
