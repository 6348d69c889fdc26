package codec

import (
	"encoding/binary"
	"fmt"
)

// RSN cipher/AKM suite type octets, OUI 00-0F-AC (IEEE 802.11-2016 Table
// 9-133/9-134). Only the handful this access point actually advertises or
// accepts get a name; parseCipherSuite/parseAKMSuite fall back to a
// numbered placeholder for everything else, matching the sniffer's RSN
// parser.
const (
	cipherSuiteCCMP128 = 4
	akmSuitePSK        = 2
)

var rsnOUI = [3]byte{0x00, 0x0f, 0xac}

// RSNInfo is the decoded RSN information element (tag 48) carried in
// beacons, probe responses, and association requests.
type RSNInfo struct {
	Version         uint16
	GroupCipher     string
	PairwiseCiphers []string
	AKMSuites       []string
	Capabilities    RSNCapabilities
}

// RSNCapabilities mirrors the 2-byte RSN Capabilities field.
type RSNCapabilities struct {
	PreAuth          bool
	NoPairwise       bool
	PTKSAReplayCount uint8
	GTKSAReplayCount uint8
	MFPRequired      bool
	MFPCapable       bool
	PeerKeyEnabled   bool
}

// ParseRSN decodes an RSN information element body.
func ParseRSN(data []byte) (*RSNInfo, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("codec: RSN IE too short: %d bytes", len(data))
	}

	rsn := &RSNInfo{}
	offset := 0

	rsn.Version = binary.LittleEndian.Uint16(data[offset : offset+2])
	offset += 2

	if offset+4 <= len(data) {
		rsn.GroupCipher = parseCipherSuite(data[offset : offset+4])
		offset += 4
	}

	if offset+2 <= len(data) {
		count := int(binary.LittleEndian.Uint16(data[offset : offset+2]))
		offset += 2
		for i := 0; i < count && offset+4 <= len(data); i++ {
			rsn.PairwiseCiphers = append(rsn.PairwiseCiphers, parseCipherSuite(data[offset:offset+4]))
			offset += 4
		}
	}

	if offset+2 <= len(data) {
		count := int(binary.LittleEndian.Uint16(data[offset : offset+2]))
		offset += 2
		for i := 0; i < count && offset+4 <= len(data); i++ {
			rsn.AKMSuites = append(rsn.AKMSuites, parseAKMSuite(data[offset:offset+4]))
			offset += 4
		}
	}

	if offset+2 <= len(data) {
		caps := binary.LittleEndian.Uint16(data[offset : offset+2])
		rsn.Capabilities = parseRSNCapabilities(caps)
	}

	return rsn, nil
}

// IsPSKCCMP reports whether the RSN IE advertises exactly the suite this
// access point speaks: CCMP-128 pairwise/group cipher with a PSK AKM.
func (r *RSNInfo) IsPSKCCMP() bool {
	if r.GroupCipher != "CCMP" {
		return false
	}
	hasCCMP, hasPSK := false, false
	for _, c := range r.PairwiseCiphers {
		if c == "CCMP" {
			hasCCMP = true
		}
	}
	for _, a := range r.AKMSuites {
		if a == "PSK" {
			hasPSK = true
		}
	}
	return hasCCMP && hasPSK
}

func parseCipherSuite(data []byte) string {
	if len(data) < 4 {
		return "UNKNOWN"
	}
	switch data[3] {
	case 1:
		return "WEP-40"
	case 2:
		return "TKIP"
	case cipherSuiteCCMP128:
		return "CCMP"
	case 5:
		return "WEP-104"
	case 8:
		return "GCMP-128"
	case 9:
		return "GCMP-256"
	case 10:
		return "CCMP-256"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", data[3])
	}
}

func parseAKMSuite(data []byte) string {
	if len(data) < 4 {
		return "UNKNOWN"
	}
	switch data[3] {
	case 1:
		return "802.1X"
	case akmSuitePSK:
		return "PSK"
	case 3:
		return "FT-802.1X"
	case 4:
		return "FT-PSK"
	case 5:
		return "802.1X-SHA256"
	case 6:
		return "PSK-SHA256"
	case 8:
		return "SAE"
	case 9:
		return "FT-SAE"
	case 18:
		return "OWE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", data[3])
	}
}

func parseRSNCapabilities(caps uint16) RSNCapabilities {
	return RSNCapabilities{
		PreAuth:          caps&0x0001 != 0,
		NoPairwise:       caps&0x0002 != 0,
		PTKSAReplayCount: uint8((caps >> 2) & 0x03),
		GTKSAReplayCount: uint8((caps >> 4) & 0x03),
		MFPRequired:      caps&0x0040 != 0,
		MFPCapable:       caps&0x0080 != 0,
		PeerKeyEnabled:   caps&0x0200 != 0,
	}
}

// BuildRSNIE encodes the RSN information element this access point
// advertises in beacons, probe responses, and message 3: CCMP-128 group
// and pairwise ciphers, PSK AKM, no management frame protection.
func BuildRSNIE() []byte {
	body := make([]byte, 0, 20)

	version := make([]byte, 2)
	binary.LittleEndian.PutUint16(version, 1)
	body = append(body, version...)

	body = append(body, suiteBytes(cipherSuiteCCMP128)...) // group cipher

	body = append(body, 0x01, 0x00) // pairwise cipher count = 1
	body = append(body, suiteBytes(cipherSuiteCCMP128)...)

	body = append(body, 0x01, 0x00) // AKM count = 1
	body = append(body, suiteBytes(akmSuitePSK)...)

	body = append(body, 0x00, 0x00) // RSN capabilities: none set

	return BuildIE(IERSN, body)
}

func suiteBytes(suiteType byte) []byte {
	return []byte{rsnOUI[0], rsnOUI[1], rsnOUI[2], suiteType}
}

// BuildGTKKDE wraps a GTK in the GTK Key Data Encapsulation element (IEEE
// 802.11-2016 §12.7.2, Figure 12-35) used in message 3's Key Data field,
// itself then AES-key-wrapped by the caller before being placed on the
// wire. The Key ID/Tx octet and the reserved octet that follow the data
// type are sent as 0x00 0x00, matching the original AP's fixed encoding.
func BuildGTKKDE(keyID uint8, gtk []byte) []byte {
	body := make([]byte, 0, 6+len(gtk))
	body = append(body, rsnOUI[0], rsnOUI[1], rsnOUI[2], 0x01) // OUI + data type 1 (GTK KDE)
	body = append(body, 0x00, 0x00)                             // Key ID + Tx bit, reserved
	body = append(body, gtk...)

	return BuildIE(IEVendorSpecific, body)
}
