package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCCMPHeaderRoundTrip(t *testing.T) {
	cases := []CCMPHeader{
		{PN: 0, KeyID: 0, ExtIV: true},
		{PN: 1, KeyID: 1, ExtIV: true},
		{PN: 0xFFFFFFFFFFFF, KeyID: 3, ExtIV: true},
		{PN: 0x0102030405, KeyID: 2, ExtIV: true},
	}

	for _, c := range cases {
		encoded := EncodeCCMPHeader(c)
		require.Len(t, encoded, CCMPHeaderLen)

		decoded := DecodeCCMPHeader(encoded)
		require.Equal(t, c.PN, decoded.PN)
		require.Equal(t, c.KeyID, decoded.KeyID)
		require.Equal(t, c.ExtIV, decoded.ExtIV)
	}
}

func TestCCMPHeaderPNIncrementsByteLayout(t *testing.T) {
	low := EncodeCCMPHeader(CCMPHeader{PN: 1, ExtIV: true})
	high := EncodeCCMPHeader(CCMPHeader{PN: 0x010000000000, ExtIV: true})

	require.Equal(t, byte(1), low[0])
	require.Equal(t, byte(0x01), high[7])
}
