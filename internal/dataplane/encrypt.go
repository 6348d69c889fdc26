// Package dataplane implements CCMP-128 encryption and decryption of data
// frames: key selection (pairwise vs. group), PN allocation, 802.11/CCMP
// header construction, and the Ethernet reconstruction on decrypt (spec
// §4.4).
package dataplane

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/wmapap/wmap-ap/internal/ap"
	"github.com/wmapap/wmap-ap/internal/codec"
	apcrypto "github.com/wmapap/wmap-ap/internal/crypto"
)

// frame control bits this package sets on transmitted data frames.
const (
	fcTypeData  = 2 << 2 // Type=Data (binary 10) occupies bits 2-3 of the frame control field
	fcFromDS    = 1 << 9
	fcProtected = 1 << 14
	fcToDS      = 1 << 8
)

// EncryptedFrame is everything the transport needs to put a protected
// data frame on the air: the 802.11 header fields, the CCMP header, and
// the ciphertext-plus-tag payload.
type EncryptedFrame struct {
	FCField         uint16
	Addr1           [6]byte
	Addr2           [6]byte
	Addr3           [6]byte
	SequenceControl uint16
	CCMPHeader      []byte
	Ciphertext      []byte // includes the trailing 8-byte tag
}

// Encode serializes the frame as a radiotap-prefixed 802.11 data frame
// ready for transport.Send.
func (ef *EncryptedFrame) Encode() []byte {
	rt := codec.EncodeRadioTap()
	rtBytes := radiotapBytes(rt)

	out := make([]byte, 0, len(rtBytes)+24+len(ef.CCMPHeader)+len(ef.Ciphertext))
	out = append(out, rtBytes...)
	out = append(out, byte(ef.FCField), byte(ef.FCField>>8))
	out = append(out, 0, 0) // duration/ID, left to the radio
	out = append(out, ef.Addr1[:]...)
	out = append(out, ef.Addr2[:]...)
	out = append(out, ef.Addr3[:]...)
	out = append(out, byte(ef.SequenceControl), byte(ef.SequenceControl>>8))
	out = append(out, ef.CCMPHeader...)
	out = append(out, ef.Ciphertext...)
	return out
}

func radiotapBytes(rt *layers.RadioTap) []byte {
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	if err := rt.SerializeTo(buf, opts); err != nil {
		return nil
	}
	return buf.Bytes()
}

var broadcastMAC = [6]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// IsGroupDestination reports whether a destination MAC is broadcast or
// multicast (the low bit of the first octet is the I/G bit).
func IsGroupDestination(mac [6]byte) bool {
	return mac[0]&0x01 != 0
}

// EncryptToStation encrypts payload (the bytes after the Ethernet header)
// for unicast delivery to an associated station using its pairwise TK.
// ethertype is the Ethernet frame's original ethertype; srcMAC is the
// Ethernet source address (spec §4.4 step 5: "Payload to encrypt =
// LLC/SNAP(Ethertype) ∥ payload-after-Ethernet-header").
func EncryptToStation(bss *ap.BSS, sta *ap.Station, ethertype layers.EthernetType, srcMAC [6]byte, payload []byte) (*EncryptedFrame, error) {
	if !sta.Associated {
		return nil, fmt.Errorf("dataplane: station not associated")
	}

	var pn uint64
	bss.WithStation(sta.MAC, func(s *ap.Station) {
		s.UnicastPN++
		pn = s.UnicastPN
	})

	return encrypt(sta.PTK.TK(), 0, pn, bss.BSSID, sta.MAC, bss.BSSID, srcMAC, bss.NextSequenceControl(), ethertype, payload)
}

// EncryptGroup encrypts payload for broadcast/multicast delivery using
// the BSS's GTK.
func EncryptGroup(bss *ap.BSS, ethertype layers.EthernetType, srcMAC [6]byte, payload []byte) (*EncryptedFrame, error) {
	pn := bss.NextGroupPN()
	return encrypt(bss.GTK[:], bss.GTKKeyID, pn, broadcastMAC, bss.BSSID, bss.BSSID, srcMAC, bss.NextSequenceControl(), ethertype, payload)
}

func encrypt(key []byte, keyID uint8, pn uint64, addr1, addr2, addr3, srcMAC [6]byte, sc uint16, ethertype layers.EthernetType, payload []byte) (*EncryptedFrame, error) {
	fc := uint16(fcTypeData) | fcFromDS | fcProtected

	ccmpHdr := codec.EncodeCCMPHeader(codec.CCMPHeader{PN: pn, KeyID: keyID, ExtIV: true})

	_, snap := codec.BuildLLCSNAP(ethertype)
	plaintext := make([]byte, 0, codec.LLCSNAPLen+len(payload))
	plaintext = append(plaintext, 0xaa, 0xaa, 0x03, 0x00, 0x00, 0x00, byte(snap.Type>>8), byte(snap.Type))
	plaintext = append(plaintext, payload...)

	nonce := apcrypto.CCMPNonce(0, addr2, pn)
	aad := apcrypto.CCMPAAD(apcrypto.Dot11FrameHeader{
		FCField:         fc,
		Addr1:           addr1,
		Addr2:           addr2,
		Addr3:           addr3,
		SequenceControl: sc,
	})

	ciphertext, err := apcrypto.CCMEncrypt(key, nonce, aad, plaintext)
	if err != nil {
		return nil, fmt.Errorf("dataplane: CCM encrypt: %w", err)
	}

	return &EncryptedFrame{
		FCField:         fc,
		Addr1:           addr1,
		Addr2:           addr2,
		Addr3:           addr3,
		SequenceControl: sc,
		CCMPHeader:      ccmpHdr,
		Ciphertext:      ciphertext,
	}, nil
}
