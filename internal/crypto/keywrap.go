// Package crypto implements the cryptographic primitives used by the WPA2
// handshake authenticator: RFC 3394 AES Key Wrap for GTK distribution,
// AES-CCM for CCMP frame protection, and the PBKDF2/PRF-512/MIC key
// derivation functions defined by IEEE 802.11i.
package crypto

import (
	"crypto/aes"
	"encoding/binary"
	"errors"
)

// defaultIV is the RFC 3394 integrity check value (A6A6A6A6A6A6A6A6).
var defaultIV = [8]byte{0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6}

// WrapKey implements RFC 3394 AES Key Wrap. plaintext must be a non-zero
// multiple of 8 bytes; the returned ciphertext is len(plaintext)+8 bytes.
func WrapKey(kek, plaintext []byte) ([]byte, error) {
	if len(plaintext) == 0 || len(plaintext)%8 != 0 {
		return nil, errors.New("crypto: key wrap plaintext must be a non-zero multiple of 8 bytes")
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, err
	}

	n := len(plaintext) / 8
	r := make([][8]byte, n)
	for i := 0; i < n; i++ {
		copy(r[i][:], plaintext[i*8:(i+1)*8])
	}

	a := defaultIV
	buf := make([]byte, 16)
	out := make([]byte, 16)
	for j := 0; j <= 5; j++ {
		for i := 1; i <= n; i++ {
			copy(buf[0:8], a[:])
			copy(buf[8:16], r[i-1][:])
			block.Encrypt(out, buf)

			var t uint64
			copy(a[:], out[0:8])
			t = binary.BigEndian.Uint64(a[:]) ^ uint64(n*j+i)
			binary.BigEndian.PutUint64(a[:], t)
			copy(r[i-1][:], out[8:16])
		}
	}

	ciphertext := make([]byte, 8+len(plaintext))
	copy(ciphertext[0:8], a[:])
	for i := 0; i < n; i++ {
		copy(ciphertext[8+i*8:8+(i+1)*8], r[i][:])
	}
	return ciphertext, nil
}

// UnwrapKey reverses WrapKey. It returns an error if the key does not
// decrypt to the RFC 3394 integrity check value.
func UnwrapKey(kek, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < 16 || len(ciphertext)%8 != 0 {
		return nil, errors.New("crypto: key wrap ciphertext must be at least 16 bytes and a multiple of 8")
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, err
	}

	n := len(ciphertext)/8 - 1
	var a [8]byte
	copy(a[:], ciphertext[0:8])
	r := make([][8]byte, n)
	for i := 0; i < n; i++ {
		copy(r[i][:], ciphertext[8+i*8:8+(i+1)*8])
	}

	buf := make([]byte, 16)
	out := make([]byte, 16)
	for j := 5; j >= 0; j-- {
		for i := n; i >= 1; i-- {
			t := binary.BigEndian.Uint64(a[:]) ^ uint64(n*j+i)
			binary.BigEndian.PutUint64(a[:], t)

			copy(buf[0:8], a[:])
			copy(buf[8:16], r[i-1][:])
			block.Decrypt(out, buf)

			copy(a[:], out[0:8])
			copy(r[i-1][:], out[8:16])
		}
	}

	if a != defaultIV {
		return nil, errors.New("crypto: key wrap integrity check failed")
	}

	plaintext := make([]byte, n*8)
	for i := 0; i < n; i++ {
		copy(plaintext[i*8:(i+1)*8], r[i][:])
	}
	return plaintext, nil
}
