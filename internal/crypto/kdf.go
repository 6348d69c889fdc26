package crypto

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha1"

	"golang.org/x/crypto/pbkdf2"
)

// pairwiseExpansionLabel is the fixed label IEEE 802.11i mixes into PRF-512
// when deriving a PTK from a PMK.
const pairwiseExpansionLabel = "Pairwise key expansion"

// DerivePMK derives the pairwise master key from a passphrase and SSID:
// PBKDF2-HMAC-SHA1(PSK, SSID, 4096, 32). It is deterministic and depends
// only on (ssid, psk), matching the PMK-immutability invariant in §3.
func DerivePMK(psk, ssid string) [32]byte {
	key := pbkdf2.Key([]byte(psk), []byte(ssid), 4096, 32, sha1.New)
	var pmk [32]byte
	copy(pmk[:], key)
	return pmk
}

// DerivePTK implements IEEE 802.11i's PRF-512 used to expand a PMK into a
// 64-byte pairwise transient key. aa/spa are the authenticator (BSSID) and
// supplicant (STA) MAC addresses; aNonce/sNonce are the 32-byte nonces
// exchanged in messages 1 and 2. Per spec, the two address-derived halves
// and the two nonce-derived halves are each ordered byte-lexicographically
// (min first), independently of which party is "first" in the handshake.
func DerivePTK(pmk []byte, aa, spa, aNonce, sNonce []byte) []byte {
	data := make([]byte, 0, len(aa)+len(spa)+len(aNonce)+len(sNonce))
	data = append(data, minBytes(aa, spa)...)
	data = append(data, maxBytes(aa, spa)...)
	data = append(data, minBytes(aNonce, sNonce)...)
	data = append(data, maxBytes(aNonce, sNonce)...)

	return prf(pmk, pairwiseExpansionLabel, data, 512)
}

// prf is IEEE 802.11's PRF(K, A, B, Len): repeated HMAC-SHA1 over
// (A, 0x00, B, counter) for counter = 0, 1, ..., concatenated and truncated
// to Len bits.
func prf(key []byte, label string, data []byte, bitLen int) []byte {
	byteLen := bitLen / 8
	iterations := (byteLen + sha1.Size - 1) / sha1.Size

	out := make([]byte, 0, iterations*sha1.Size)
	for i := 0; i < iterations; i++ {
		mac := hmac.New(sha1.New, key)
		mac.Write([]byte(label))
		mac.Write([]byte{0x00})
		mac.Write(data)
		mac.Write([]byte{byte(i)})
		out = append(out, mac.Sum(nil)...)
	}
	return out[:byteLen]
}

// EAPOLKeyMIC computes the EAPOL-Key MIC: HMAC-SHA1(KCK, frame), truncated
// to 16 bytes. frame must have its MIC field zeroed by the caller before
// this is called.
func EAPOLKeyMIC(kck, frame []byte) []byte {
	mac := hmac.New(sha1.New, kck)
	mac.Write(frame)
	return mac.Sum(nil)[:16]
}

func minBytes(a, b []byte) []byte {
	if bytes.Compare(a, b) <= 0 {
		return a
	}
	return b
}

func maxBytes(a, b []byte) []byte {
	if bytes.Compare(a, b) <= 0 {
		return b
	}
	return a
}
