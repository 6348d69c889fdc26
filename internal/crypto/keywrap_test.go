package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

// Vectors from RFC 3394 section 4, the same ones exercised by the
// wlan/keywrap package's test suite.
func TestWrapKeyRFC3394Vectors(t *testing.T) {
	cases := []struct {
		name       string
		kek        string
		data       string
		ciphertext string
	}{
		{
			name:       "128 data, 128 kek",
			kek:        "000102030405060708090A0B0C0D0E0F",
			data:       "00112233445566778899AABBCCDDEEFF",
			ciphertext: "1FA68B0A8112B447AEF34BD8FB5A7B829D3E862371D2CFE5",
		},
		{
			name:       "192 data, 192 kek",
			kek:        "000102030405060708090A0B0C0D0E0F1011121314151617",
			data:       "00112233445566778899AABBCCDDEEFF0001020304050607",
			ciphertext: "031D33264E15D33268F24EC260743EDCE1C6C7DDEE725A936BA814915C6762D2",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kek, err := hex.DecodeString(tc.kek)
			require.NoError(t, err)
			data, err := hex.DecodeString(tc.data)
			require.NoError(t, err)
			want, err := hex.DecodeString(tc.ciphertext)
			require.NoError(t, err)

			got, err := WrapKey(kek, data)
			require.NoError(t, err)
			require.Equal(t, want, got)

			plain, err := UnwrapKey(kek, want)
			require.NoError(t, err)
			require.Equal(t, data, plain)
		})
	}
}

func TestUnwrapKeyDetectsTamperedKey(t *testing.T) {
	kek, _ := hex.DecodeString("000102030405060708090A0B0C0D0E0F")
	data, _ := hex.DecodeString("00112233445566778899AABBCCDDEEFF")

	ciphertext, err := WrapKey(kek, data)
	require.NoError(t, err)

	kek[0] ^= 0xFF
	_, err = UnwrapKey(kek, ciphertext)
	require.Error(t, err)
}

func TestWrapKeyRejectsNonMultipleOf8(t *testing.T) {
	kek, _ := hex.DecodeString("000102030405060708090A0B0C0D0E0F")
	_, err := WrapKey(kek, []byte("short"))
	require.Error(t, err)
}
