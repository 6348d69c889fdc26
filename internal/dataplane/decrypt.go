package dataplane

import (
	"errors"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/wmapap/wmap-ap/internal/ap"
	"github.com/wmapap/wmap-ap/internal/codec"
	apcrypto "github.com/wmapap/wmap-ap/internal/crypto"
)

// ErrUnknownStation is returned when the transmitter address of a
// protected frame does not match any station in the BSS (spec §4.4 step
// 2: "send deauthentication (reason=9)").
var ErrUnknownStation = errors.New("dataplane: unknown station")

// ErrReplayedPN is returned when a frame's packet number is not strictly
// greater than the highest one seen for that (station, key) pair (spec
// §4.4 "Replay protection").
var ErrReplayedPN = errors.New("dataplane: replayed packet number")

// ErrSpoofedSource is returned when the reconstructed Ethernet frame's
// source address does not match the transmitting station's MAC (spec
// §4.4 step 7, anti-spoofing).
var ErrSpoofedSource = errors.New("dataplane: reconstructed source address does not match station")

// DecryptedFrame is a reconstructed Ethernet frame plus the station it
// came from.
type DecryptedFrame struct {
	DstMAC    [6]byte
	SrcMAC    [6]byte
	Ethertype layers.EthernetType
	Payload   []byte
}

// Decrypt processes a received protected data frame with to-DS set:
// looks up the transmitting station, selects TK or GTK by key id,
// verifies the CCM tag, enforces PN replay protection, and reconstructs
// the original Ethernet frame (spec §4.4).
func Decrypt(bss *ap.BSS, addr1, addr2, addr3 [6]byte, fcField, sc uint16, ccmpHeaderBytes, ciphertextAndTag []byte) (*DecryptedFrame, error) {
	if addr1 != bss.BSSID {
		return nil, fmt.Errorf("dataplane: frame addressed to a different BSSID")
	}

	sta := bss.Station(addr2)
	if sta == nil {
		return nil, ErrUnknownStation
	}

	hdr := codec.DecodeCCMPHeader(ccmpHeaderBytes)

	var key []byte
	switch hdr.KeyID {
	case 0:
		key = sta.PTK.TK()
	case 1, 2, 3:
		key = bss.GTK[:]
	default:
		return nil, fmt.Errorf("dataplane: unsupported key id %d", hdr.KeyID)
	}

	nonce := apcrypto.CCMPNonce(0, addr2, hdr.PN)
	aad := apcrypto.CCMPAAD(apcrypto.Dot11FrameHeader{
		FCField:         fcField,
		Addr1:           addr1,
		Addr2:           addr2,
		Addr3:           addr3,
		SequenceControl: sc,
	})

	plaintext, err := apcrypto.CCMDecrypt(key, nonce, aad, ciphertextAndTag)
	if err != nil {
		return nil, fmt.Errorf("dataplane: CCM decrypt: %w", err)
	}

	accepted := false
	bss.WithStation(addr2, func(s *ap.Station) {
		accepted = s.AcceptsPN(hdr.KeyID, hdr.PN)
	})
	if !accepted {
		return nil, ErrReplayedPN
	}

	if !codec.IsSNAPFrame(plaintext) {
		return nil, fmt.Errorf("dataplane: decrypted payload is not LLC/SNAP")
	}
	ethertype := codec.SNAPEthertype(plaintext)
	body := plaintext[codec.LLCSNAPLen:]

	// to-DS: DA = addr3, SA = addr2 (the transmitting station).
	if addr2 != sta.MAC {
		return nil, ErrSpoofedSource
	}

	return &DecryptedFrame{
		DstMAC:    addr3,
		SrcMAC:    addr2,
		Ethertype: ethertype,
		Payload:   body,
	}, nil
}

// EncodeEthernet serializes a DecryptedFrame as a standard Ethernet II
// frame, the form the upper-layer device (TAP or synthetic network)
// expects.
func (d *DecryptedFrame) EncodeEthernet() ([]byte, error) {
	eth := &layers.Ethernet{
		DstMAC:       d.DstMAC[:],
		SrcMAC:       d.SrcMAC[:],
		EthernetType: d.Ethertype,
	}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, gopacket.Payload(d.Payload)); err != nil {
		return nil, fmt.Errorf("dataplane: encoding ethernet frame: %w", err)
	}
	return buf.Bytes(), nil
}
