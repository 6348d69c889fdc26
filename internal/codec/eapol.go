package codec

import (
	"encoding/binary"
	"fmt"
)

// EAPOL-Key Information field bit masks (IEEE 802.11i), mirrored from the
// sniffer's handshake parser so both directions of the protocol agree on
// the same constants.
const (
	KeyInfoDescriptorVersionMask = 0x0007
	KeyInfoKeyType               = 1 << 3 // 1 = Pairwise, 0 = Group/SMK
	KeyInfoKeyIndexMask          = 0x0030
	KeyInfoInstall               = 1 << 6
	KeyInfoKeyAck                = 1 << 7
	KeyInfoKeyMIC                = 1 << 8
	KeyInfoSecure                = 1 << 9
	KeyInfoError                 = 1 << 10
	KeyInfoRequest               = 1 << 11
	KeyInfoEncryptedKeyData      = 1 << 12

	// DescriptorVersionHMACSHA1AES selects HMAC-SHA1 MIC and AES
	// key-wrap, the only descriptor version this
	// authenticator ever sets (CCMP-128 pairwise ciphers use version 2).
	DescriptorVersionHMACSHA1AES = 2

	eapolKeyDescriptorTypeRSN = 2

	// eapolKeyFixedLen is the byte length of an EAPOL-Key body up to and
	// including the two-byte Key Data Length field, before the variable
	// Key Data.
	eapolKeyFixedLen = 95
)

// EAPOLKeyFrame is the decoded/to-be-encoded body of an EAPOL-Key frame,
// the payload layer carried inside an 802.1X EAPOL frame during the
// four-way handshake.
type EAPOLKeyFrame struct {
	DescriptorType uint8
	KeyInformation uint16
	KeyLength      uint16
	ReplayCounter  uint64
	Nonce          [32]byte
	KeyIV          [16]byte
	KeyRSC         uint64
	KeyID          uint64 // reserved field, always zero on transmit
	MIC            [16]byte
	KeyData        []byte
}

// HasMIC / HasAck / IsPairwise / HasSecure / DescriptorVersion read the
// KeyInformation bit field the way the sniffer's parser does.
func (f *EAPOLKeyFrame) HasMIC() bool     { return f.KeyInformation&KeyInfoKeyMIC != 0 }
func (f *EAPOLKeyFrame) HasAck() bool     { return f.KeyInformation&KeyInfoKeyAck != 0 }
func (f *EAPOLKeyFrame) IsPairwise() bool { return f.KeyInformation&KeyInfoKeyType != 0 }
func (f *EAPOLKeyFrame) HasSecure() bool  { return f.KeyInformation&KeyInfoSecure != 0 }
func (f *EAPOLKeyFrame) DescriptorVersion() uint8 {
	return uint8(f.KeyInformation & KeyInfoDescriptorVersionMask)
}

// EncodeEAPOLKey serializes an EAPOL-Key body. The MIC field is written
// verbatim from f.MIC; callers computing a MIC must zero it, encode,
// compute crypto.EAPOLKeyMIC over the result, then splice the MIC back in
// at offset MICOffset (77), MICLen bytes long.
func EncodeEAPOLKey(f *EAPOLKeyFrame) []byte {
	out := make([]byte, eapolKeyFixedLen+len(f.KeyData))
	out[0] = f.DescriptorType
	binary.BigEndian.PutUint16(out[1:3], f.KeyInformation)
	binary.BigEndian.PutUint16(out[3:5], f.KeyLength)
	binary.BigEndian.PutUint64(out[5:13], f.ReplayCounter)
	copy(out[13:45], f.Nonce[:])
	copy(out[45:61], f.KeyIV[:])
	binary.BigEndian.PutUint64(out[61:69], f.KeyRSC)
	binary.BigEndian.PutUint64(out[69:77], f.KeyID)
	copy(out[77:93], f.MIC[:])
	binary.BigEndian.PutUint16(out[93:95], uint16(len(f.KeyData)))
	copy(out[95:], f.KeyData)
	return out
}

// DecodeEAPOLKey parses an EAPOL-Key body (the EAPOL frame's payload,
// after the 1-byte Type field has already been stripped), matching the
// sniffer's ParseEAPOLKey field layout byte-for-byte.
func DecodeEAPOLKey(payload []byte) (*EAPOLKeyFrame, error) {
	if len(payload) < eapolKeyFixedLen {
		return nil, fmt.Errorf("codec: EAPOL-Key payload too short: %d bytes", len(payload))
	}

	f := &EAPOLKeyFrame{
		DescriptorType: payload[0],
		KeyInformation: binary.BigEndian.Uint16(payload[1:3]),
		KeyLength:      binary.BigEndian.Uint16(payload[3:5]),
		ReplayCounter:  binary.BigEndian.Uint64(payload[5:13]),
		KeyRSC:         binary.BigEndian.Uint64(payload[61:69]),
		KeyID:          binary.BigEndian.Uint64(payload[69:77]),
	}
	copy(f.Nonce[:], payload[13:45])
	copy(f.KeyIV[:], payload[45:61])
	copy(f.MIC[:], payload[77:93])

	keyDataLen := int(binary.BigEndian.Uint16(payload[93:95]))
	end := eapolKeyFixedLen + keyDataLen
	if end > len(payload) {
		return nil, fmt.Errorf("codec: EAPOL-Key data length %d exceeds payload", keyDataLen)
	}
	f.KeyData = payload[eapolKeyFixedLen:end]

	return f, nil
}

// MICOffset and MICLen locate the MIC field within an encoded EAPOL-Key
// body, so callers can zero it before MIC computation and splice the
// computed value back in without re-serializing the whole frame.
const (
	MICOffset = 77
	MICLen    = 16
)

// EAPOLFrame is the 802.1X EAPOL wrapper (IEEE Std 802.1X-2010 §11.3)
// around an EAPOL-Key body.
type EAPOLFrame struct {
	Version uint8
	Type    uint8
	Body    []byte
}

const eapolTypeKey = 3

// EncodeEAPOL serializes the 4-byte 802.1X header (version, type, body
// length) followed by the body.
func EncodeEAPOL(version uint8, body []byte) []byte {
	out := make([]byte, 4+len(body))
	out[0] = version
	out[1] = eapolTypeKey
	binary.BigEndian.PutUint16(out[2:4], uint16(len(body)))
	copy(out[4:], body)
	return out
}

// DecodeEAPOL parses the 802.1X header and returns the frame plus the
// declared body, truncated to the declared length if the capture padded
// it (a common radiotap/driver artifact the sniffer also tolerates).
func DecodeEAPOL(b []byte) (*EAPOLFrame, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("codec: EAPOL frame too short: %d bytes", len(b))
	}
	bodyLen := int(binary.BigEndian.Uint16(b[2:4]))
	if 4+bodyLen > len(b) {
		bodyLen = len(b) - 4
	}
	return &EAPOLFrame{
		Version: b[0],
		Type:    b[1],
		Body:    b[4 : 4+bodyLen],
	}, nil
}
