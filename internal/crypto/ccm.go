package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"encoding/binary"
	"errors"
)

// CCMP-128 fixes these CCM parameters (IEEE 802.11-2016 §12.5.3): a 128-bit
// key, an 8-byte (64-bit) authentication tag, a 13-byte nonce, and a 2-byte
// length field (L=2). Go's standard library only ships GCM, not CCM, so the
// mode is built directly on crypto/aes's block cipher the same way
// crypto/cipher builds GCM on top of a cipher.Block.
const (
	ccmNonceLen = 13
	ccmTagLen   = 8
	ccmL        = 2
)

var errCCMTagMismatch = errors.New("crypto: ccm authentication failed")

// CCMEncrypt seals plaintext under key/nonce/aad, per AES-CCM (RFC 3610)
// with M=8, L=2. The returned slice is len(plaintext)+8 bytes: ciphertext
// followed by the authentication tag.
func CCMEncrypt(key, nonce, aad, plaintext []byte) ([]byte, error) {
	block, err := newCCMBlock(key, nonce)
	if err != nil {
		return nil, err
	}

	mac := ccmCBCMAC(block, nonce, aad, plaintext)
	s0 := ccmCounterBlock(block, nonce, 0)

	out := make([]byte, len(plaintext)+ccmTagLen)
	ccmCTR(block, nonce, plaintext, out[:len(plaintext)])

	tag := out[len(plaintext):]
	for i := 0; i < ccmTagLen; i++ {
		tag[i] = mac[i] ^ s0[i]
	}
	return out, nil
}

// CCMDecrypt opens a ciphertext produced by CCMEncrypt, verifying the
// appended tag before returning plaintext. On tag mismatch it returns
// errCCMTagMismatch and no plaintext, matching §4.4's "decrypt and verify
// tag; on failure, drop" contract.
func CCMDecrypt(key, nonce, aad, ciphertextAndTag []byte) ([]byte, error) {
	if len(ciphertextAndTag) < ccmTagLen {
		return nil, errors.New("crypto: ccm input shorter than tag")
	}
	block, err := newCCMBlock(key, nonce)
	if err != nil {
		return nil, err
	}

	ciphertext := ciphertextAndTag[:len(ciphertextAndTag)-ccmTagLen]
	gotTag := ciphertextAndTag[len(ciphertextAndTag)-ccmTagLen:]

	plaintext := make([]byte, len(ciphertext))
	ccmCTR(block, nonce, ciphertext, plaintext)

	mac := ccmCBCMAC(block, nonce, aad, plaintext)
	s0 := ccmCounterBlock(block, nonce, 0)

	wantTag := make([]byte, ccmTagLen)
	for i := 0; i < ccmTagLen; i++ {
		wantTag[i] = mac[i] ^ s0[i]
	}
	if subtle.ConstantTimeCompare(wantTag, gotTag) != 1 {
		return nil, errCCMTagMismatch
	}
	return plaintext, nil
}

func newCCMBlock(key, nonce []byte) (cipher.Block, error) {
	if len(nonce) != ccmNonceLen {
		return nil, errors.New("crypto: ccm nonce must be 13 bytes")
	}
	return aes.NewCipher(key)
}

// ccmCounterBlock computes S_i = E(K, flags || N || i), the CTR keystream
// block for counter i. S0 is reserved for unmasking the MIC.
func ccmCounterBlock(block cipher.Block, nonce []byte, counter uint16) []byte {
	a := make([]byte, 16)
	a[0] = byte(ccmL - 1) // flags: Adata=0, M field=0 for counter blocks
	copy(a[1:1+ccmNonceLen], nonce)
	binary.BigEndian.PutUint16(a[14:16], counter)

	out := make([]byte, 16)
	block.Encrypt(out, a)
	return out
}

// ccmCTR encrypts/decrypts src into dst using CCM's counter mode, starting
// at counter=1 (counter=0 is reserved for masking the MIC).
func ccmCTR(block cipher.Block, nonce, src, dst []byte) {
	counter := uint16(1)
	for off := 0; off < len(src); off += 16 {
		ks := ccmCounterBlock(block, nonce, counter)
		end := off + 16
		if end > len(src) {
			end = len(src)
		}
		for i := off; i < end; i++ {
			dst[i] = src[i] ^ ks[i-off]
		}
		counter++
	}
}

// ccmCBCMAC computes the CBC-MAC over B0 (flags/nonce/length), the
// length-prefixed and zero-padded AAD blocks, and the zero-padded plaintext
// blocks, returning the full 16-byte MAC (callers truncate to ccmTagLen).
func ccmCBCMAC(block cipher.Block, nonce, aad, plaintext []byte) []byte {
	b0 := make([]byte, 16)
	flags := byte(0)
	if len(aad) > 0 {
		flags |= 0x40
	}
	flags |= byte((ccmTagLen-2)/2) << 3
	flags |= byte(ccmL - 1)
	b0[0] = flags
	copy(b0[1:1+ccmNonceLen], nonce)
	binary.BigEndian.PutUint16(b0[14:16], uint16(len(plaintext)))

	data := make([]byte, 0, 16+len(aad)+8+len(plaintext)+16)
	data = append(data, b0...)
	data = append(data, ccmFormatAAD(aad)...)
	data = append(data, ccmPad16(plaintext)...)

	x := make([]byte, 16)
	buf := make([]byte, 16)
	for off := 0; off < len(data); off += 16 {
		for i := 0; i < 16; i++ {
			buf[i] = x[i] ^ data[off+i]
		}
		block.Encrypt(x, buf)
	}
	return x
}

// ccmFormatAAD prepends the RFC 3610 2-byte big-endian length field and
// zero-pads the result to a 16-byte boundary. CCMP AAD (22/24/26 bytes) is
// always well under the 0xFF00 threshold that would require the extended
// (6-byte) length encoding.
func ccmFormatAAD(aad []byte) []byte {
	if len(aad) == 0 {
		return nil
	}
	header := make([]byte, 2)
	binary.BigEndian.PutUint16(header, uint16(len(aad)))
	combined := append(header, aad...)
	return ccmPad16(combined)
}

func ccmPad16(b []byte) []byte {
	if len(b)%16 == 0 {
		out := make([]byte, len(b))
		copy(out, b)
		return out
	}
	padded := make([]byte, len(b)+(16-len(b)%16))
	copy(padded, b)
	return padded
}
