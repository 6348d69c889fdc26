// Package handshake implements the WPA2-Personal four-way handshake from
// the authenticator's side: message-1 construction, message-2
// verification, and message-3 construction carrying a wrapped GTK. It
// operates purely on EAPOL-Key bytes and the ap.BSS/ap.Station domain
// model; framing the result into an 802.11 data frame is the dispatcher's
// job.
package handshake

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/wmapap/wmap-ap/internal/ap"
	"github.com/wmapap/wmap-ap/internal/codec"
	apcrypto "github.com/wmapap/wmap-ap/internal/crypto"
)

// ErrBadMIC is returned by HandleMessage2 when the received message-2 MIC
// does not match, per spec §4.3 ("on mismatch: send deauthentication
// (reason=1) and delete Station").
var ErrBadMIC = errors.New("handshake: message-2 MIC verification failed")

// eapolProtocolVersion is the 802.1X protocol version this access point
// emits (spec §6: "EAPOL-Key (version = 2, type = 3)").
const eapolProtocolVersion = 2

const (
	replayCounterMessage1 = 1
	replayCounterMessage3 = 2
)

// BuildMessage1 prepares message-1: draws a fresh ANonce, builds the
// EAPOL-Key body (key_ack=1, has_key_mic=0, replay_counter=1), and stores
// it on the station for retransmit. Returns the encoded EAPOL frame
// bytes (802.1X header + EAPOL-Key body).
func BuildMessage1(sta *ap.Station) ([]byte, error) {
	if _, err := rand.Read(sta.ANonce[:]); err != nil {
		return nil, fmt.Errorf("handshake: generating ANonce: %w", err)
	}

	f := &codec.EAPOLKeyFrame{
		DescriptorType: 2, // RSN
		KeyInformation: codec.KeyInfoKeyType | codec.KeyInfoKeyAck | codec.DescriptorVersionHMACSHA1AES,
		KeyLength:      16,
		ReplayCounter:  replayCounterMessage1,
		Nonce:          sta.ANonce,
	}

	body := codec.EncodeEAPOLKey(f)
	frame := codec.EncodeEAPOL(eapolProtocolVersion, body)
	sta.Message1Frame = frame
	sta.State = ap.StateHandshakeStarted
	sta.EAPOLReady = true
	return frame, nil
}

// HandleMessage2 verifies an incoming message-2, deriving the PTK and
// checking its MIC. On success it stores the PTK and SNonce on sta and
// returns nil; on MIC mismatch it returns ErrBadMIC and the caller must
// deauthenticate and delete the station (spec §4.3).
func HandleMessage2(bss *ap.BSS, sta *ap.Station, aa, spa [6]byte, frame []byte) error {
	eapol, err := codec.DecodeEAPOL(frame)
	if err != nil {
		return fmt.Errorf("handshake: decoding message-2 EAPOL header: %w", err)
	}
	keyFrame, err := codec.DecodeEAPOLKey(eapol.Body)
	if err != nil {
		return fmt.Errorf("handshake: decoding message-2 key frame: %w", err)
	}

	if keyFrame.HasAck() || !keyFrame.HasMIC() {
		return fmt.Errorf("handshake: frame does not look like message-2 (ack=%v mic=%v)", keyFrame.HasAck(), keyFrame.HasMIC())
	}

	sta.SNonce = keyFrame.Nonce
	ptkBytes := apcrypto.DerivePTK(bss.PMK[:], aa[:], spa[:], sta.ANonce[:], sta.SNonce[:])
	copy(sta.PTK[:], ptkBytes)

	received := keyFrame.MIC
	keyFrame.MIC = [16]byte{}
	zeroed := codec.EncodeEAPOLKey(keyFrame)
	zeroedEAPOL := codec.EncodeEAPOL(eapol.Version, zeroed)

	computed := apcrypto.EAPOLKeyMIC(sta.PTK.KCK(), zeroedEAPOL)
	if subtle.ConstantTimeCompare(computed, received[:]) != 1 {
		return ErrBadMIC
	}

	sta.ReplayCounter = keyFrame.ReplayCounter
	sta.State = ap.StatePTKDerived
	return nil
}

// BuildMessage3 constructs message-3: RSN IE plus wrapped GTK-KDE as key
// data, MIC computed over the frame with the MIC field zeroed (spec
// §4.3). Marks the station associated on return.
func BuildMessage3(bss *ap.BSS, sta *ap.Station) ([]byte, error) {
	keyData := buildKeyData(bss)

	wrapped, err := apcrypto.WrapKey(sta.PTK.KEK(), keyData)
	if err != nil {
		return nil, fmt.Errorf("handshake: wrapping message-3 key data: %w", err)
	}

	f := &codec.EAPOLKeyFrame{
		DescriptorType: 2,
		KeyInformation: codec.KeyInfoKeyType | codec.KeyInfoInstall | codec.KeyInfoKeyAck |
			codec.KeyInfoKeyMIC | codec.KeyInfoSecure | codec.KeyInfoEncryptedKeyData |
			codec.DescriptorVersionHMACSHA1AES,
		KeyLength:     16,
		ReplayCounter: replayCounterMessage3,
		Nonce:         sta.ANonce,
		KeyData:       wrapped,
	}

	body := codec.EncodeEAPOLKey(f)
	zeroedEAPOL := codec.EncodeEAPOL(eapolProtocolVersion, body)
	mic := apcrypto.EAPOLKeyMIC(sta.PTK.KCK(), zeroedEAPOL)
	copy(body[codec.MICOffset:codec.MICOffset+codec.MICLen], mic)

	frame := codec.EncodeEAPOL(eapolProtocolVersion, body)

	sta.Associated = true
	sta.EAPOLReady = false
	return frame, nil
}

// buildKeyData assembles message-3's key-data plaintext: the RSN IE
// (identical to the one published in beacons) followed by the GTK-KDE,
// padded to a multiple of 8 bytes with the 0xDD 0x00 KDE terminator
// sequence as spec §4.3 requires.
func buildKeyData(bss *ap.BSS) []byte {
	data := append([]byte{}, codec.BuildRSNIE()...)
	data = append(data, codec.BuildGTKKDE(bss.GTKKeyID, bss.GTK[:])...)

	// KDE terminator (0xDD 0x00) plus zero padding to the next multiple
	// of 8, the length AES Key Wrap requires.
	data = append(data, 0xDD, 0x00)
	for len(data)%8 != 0 {
		data = append(data, 0x00)
	}
	return data
}
