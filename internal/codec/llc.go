package codec

import (
	"github.com/google/gopacket/layers"
)

// BuildLLCSNAP returns an 802.2 LLC header followed by a SNAP header
// carrying the given upper-layer ethertype, the wrapper every data frame
// (including EAPOL) and decrypted/encrypted Ethernet payload carries
// between the CCMP header and the payload itself.
func BuildLLCSNAP(ethertype layers.EthernetType) (*layers.LLC, *layers.SNAP) {
	llc := &layers.LLC{
		DSAP:    0xaa,
		SSAP:    0xaa,
		Control: 0x03,
	}
	snap := &layers.SNAP{
		OrganizationalCode: []byte{0, 0, 0},
		Type:               ethertype,
	}
	return llc, snap
}

// IsSNAPFrame reports whether the given bytes begin with the
// DSAP=SSAP=0xAA / Control=0x03 / OUI=00:00:00 LLC/SNAP prefix this access
// point always produces, so a decrypted data frame payload can be
// recognized before being unwrapped.
func IsSNAPFrame(b []byte) bool {
	return len(b) >= 8 &&
		b[0] == 0xaa && b[1] == 0xaa && b[2] == 0x03 &&
		b[3] == 0x00 && b[4] == 0x00 && b[5] == 0x00
}

// SNAPEthertype extracts the two-byte ethertype following an 8-byte
// LLC/SNAP header. Callers must check IsSNAPFrame first.
func SNAPEthertype(b []byte) layers.EthernetType {
	return layers.EthernetType(uint16(b[6])<<8 | uint16(b[7]))
}

// LLCSNAPLen is the fixed size of the LLC+SNAP header this access point
// prepends to every bridged Ethernet payload.
const LLCSNAPLen = 8
