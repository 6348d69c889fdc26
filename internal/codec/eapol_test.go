package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEAPOLKeyRoundTrip(t *testing.T) {
	f := &EAPOLKeyFrame{
		DescriptorType: eapolKeyDescriptorTypeRSN,
		KeyInformation: KeyInfoKeyType | KeyInfoKeyAck | DescriptorVersionHMACSHA1AES,
		KeyLength:      16,
		ReplayCounter:  1,
		KeyData:        []byte{0x30, 0x02, 0xde, 0xad},
	}
	for i := range f.Nonce {
		f.Nonce[i] = byte(i)
	}

	encoded := EncodeEAPOLKey(f)
	require.Len(t, encoded, eapolKeyFixedLen+len(f.KeyData))

	decoded, err := DecodeEAPOLKey(encoded)
	require.NoError(t, err)
	require.Equal(t, f.DescriptorType, decoded.DescriptorType)
	require.Equal(t, f.KeyInformation, decoded.KeyInformation)
	require.Equal(t, f.ReplayCounter, decoded.ReplayCounter)
	require.Equal(t, f.Nonce, decoded.Nonce)
	require.Equal(t, f.KeyData, decoded.KeyData)

	require.True(t, decoded.IsPairwise())
	require.True(t, decoded.HasAck())
	require.False(t, decoded.HasMIC())
	require.Equal(t, uint8(DescriptorVersionHMACSHA1AES), decoded.DescriptorVersion())
}

func TestDecodeEAPOLKeyRejectsShortPayload(t *testing.T) {
	_, err := DecodeEAPOLKey(make([]byte, 10))
	require.Error(t, err)
}

func TestDecodeEAPOLKeyRejectsOverflowingKeyData(t *testing.T) {
	payload := make([]byte, eapolKeyFixedLen)
	payload[93] = 0xFF
	payload[94] = 0xFF
	_, err := DecodeEAPOLKey(payload)
	require.Error(t, err)
}

func TestMICOffsetMatchesEncodedLayout(t *testing.T) {
	f := &EAPOLKeyFrame{MIC: [16]byte{1, 2, 3, 4}}
	encoded := EncodeEAPOLKey(f)
	require.Equal(t, f.MIC[:], encoded[MICOffset:MICOffset+MICLen])
}

func TestEAPOLFrameRoundTrip(t *testing.T) {
	body := []byte{0xAA, 0xBB, 0xCC}
	encoded := EncodeEAPOL(2, body)

	decoded, err := DecodeEAPOL(encoded)
	require.NoError(t, err)
	require.Equal(t, uint8(2), decoded.Version)
	require.Equal(t, uint8(eapolTypeKey), decoded.Type)
	require.Equal(t, body, decoded.Body)
}

func TestDecodeEAPOLRejectsShortFrame(t *testing.T) {
	_, err := DecodeEAPOL([]byte{1, 2})
	require.Error(t, err)
}
