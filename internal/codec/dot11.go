package codec

import (
	"github.com/google/gopacket/layers"
)

// FrameClass classifies a decoded 802.11 frame for dispatch purposes.
type FrameClass int

const (
	ClassUnknown FrameClass = iota
	ClassManagement
	ClassControl
	ClassData
)

// ClassifyDot11 maps a gopacket Dot11 layer's type/subtype into the coarse
// class the dispatcher switches on.
func ClassifyDot11(d *layers.Dot11) FrameClass {
	switch d.Type.MainType() {
	case layers.Dot11TypeMgmt:
		return ClassManagement
	case layers.Dot11TypeCtrl:
		return ClassControl
	case layers.Dot11TypeData:
		return ClassData
	default:
		return ClassUnknown
	}
}

// IsToDS / IsFromDS / IsProtected read the corresponding single-bit flags
// out of the Dot11 layer's Flags field, matching the bit layout every
// builder in this package and in internal/dataplane assumes.
func IsToDS(d *layers.Dot11) bool       { return d.Flags.ToDS() }
func IsFromDS(d *layers.Dot11) bool     { return d.Flags.FromDS() }
func IsProtected(d *layers.Dot11) bool  { return d.Flags.WEP() }
func IsRetry(d *layers.Dot11) bool      { return d.Flags.Retry() }

// QoSTID extracts the traffic identifier from a QoS data frame's
// QoS-control field (the low four bits).
func QoSTID(qos *layers.Dot11QoS) uint8 {
	if qos == nil {
		return 0
	}
	return uint8(qos.TID)
}

// BuildDeauth constructs the body of a Deauthentication management frame:
// a single little-endian uint16 reason code, per IEEE 802.11-2016 §9.4.1.7.
func BuildDeauth(reason uint16) []byte {
	return []byte{byte(reason), byte(reason >> 8)}
}

// BuildDisassoc mirrors BuildDeauth for Disassociation frames, which share
// the same single reason-code body layout.
func BuildDisassoc(reason uint16) []byte {
	return BuildDeauth(reason)
}

// 802.11 reason codes. The dispatcher emits ReasonUnspecified (message-2
// MIC failure) and ReasonSTANotAuthenticated (unknown station).
const (
	ReasonUnspecified          uint16 = 1
	ReasonClass3FromNonAssoc   uint16 = 7
	ReasonDisassocSTAHasLeft   uint16 = 8
	ReasonSTANotAuthenticated  uint16 = 9
	ReasonMICFailure           uint16 = 14
)

// BuildAuthResponse builds an Open-System authentication response body:
// algorithm number (0 = Open), transaction sequence number, status code.
func BuildAuthResponse(seqNum, status uint16) []byte {
	body := make([]byte, 6)
	body[0], body[1] = 0x00, 0x00 // algorithm: Open System
	body[2], body[3] = byte(seqNum), byte(seqNum>>8)
	body[4], body[5] = byte(status), byte(status>>8)
	return body
}
