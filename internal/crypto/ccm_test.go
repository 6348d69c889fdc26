package crypto

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func randBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return b
}

// TestCCMRoundTrip exercises §8's round-trip law: decrypt(encrypt(F)) == F.
func TestCCMRoundTrip(t *testing.T) {
	key := randBytes(t, 16)
	nonce := randBytes(t, ccmNonceLen)
	aad := randBytes(t, 22)
	plaintext := []byte("a plaintext ethernet frame payload of arbitrary length")

	sealed, err := CCMEncrypt(key, nonce, aad, plaintext)
	require.NoError(t, err)
	require.Len(t, sealed, len(plaintext)+ccmTagLen)

	opened, err := CCMDecrypt(key, nonce, aad, sealed)
	require.NoError(t, err)
	require.True(t, bytes.Equal(plaintext, opened))
}

func TestCCMRoundTripEmptyPlaintext(t *testing.T) {
	key := randBytes(t, 16)
	nonce := randBytes(t, ccmNonceLen)
	aad := randBytes(t, 24)

	sealed, err := CCMEncrypt(key, nonce, aad, nil)
	require.NoError(t, err)
	require.Len(t, sealed, ccmTagLen)

	opened, err := CCMDecrypt(key, nonce, aad, sealed)
	require.NoError(t, err)
	require.Empty(t, opened)
}

// TestCCMTamperedAADRejected exercises §8's "tampered MIC rejection" law:
// flipping any bit in the AAD region causes the tag check to fail.
func TestCCMTamperedAADRejected(t *testing.T) {
	key := randBytes(t, 16)
	nonce := randBytes(t, ccmNonceLen)
	aad := randBytes(t, 22)
	plaintext := []byte("payload")

	sealed, err := CCMEncrypt(key, nonce, aad, plaintext)
	require.NoError(t, err)

	tampered := make([]byte, len(aad))
	copy(tampered, aad)
	tampered[0] ^= 0x01

	_, err = CCMDecrypt(key, nonce, tampered, sealed)
	require.ErrorIs(t, err, errCCMTagMismatch)
}

func TestCCMTamperedCiphertextRejected(t *testing.T) {
	key := randBytes(t, 16)
	nonce := randBytes(t, ccmNonceLen)
	aad := randBytes(t, 22)
	plaintext := []byte("payload")

	sealed, err := CCMEncrypt(key, nonce, aad, plaintext)
	require.NoError(t, err)
	sealed[0] ^= 0x01

	_, err = CCMDecrypt(key, nonce, aad, sealed)
	require.ErrorIs(t, err, errCCMTagMismatch)
}

func TestCCMTamperedTagRejected(t *testing.T) {
	key := randBytes(t, 16)
	nonce := randBytes(t, ccmNonceLen)
	aad := randBytes(t, 22)
	plaintext := []byte("payload")

	sealed, err := CCMEncrypt(key, nonce, aad, plaintext)
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0x01

	_, err = CCMDecrypt(key, nonce, aad, sealed)
	require.ErrorIs(t, err, errCCMTagMismatch)
}

func TestCCMRejectsShortNonce(t *testing.T) {
	key := randBytes(t, 16)
	_, err := CCMEncrypt(key, []byte{1, 2, 3}, nil, []byte("x"))
	require.Error(t, err)
}
