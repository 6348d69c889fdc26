package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeRadioTapRejectsEmptyBuffer(t *testing.T) {
	_, _, ok, err := DecodeRadioTap(nil)
	require.False(t, ok)
	require.Error(t, err)
}

func TestEncodeRadioTapSetsRatePresent(t *testing.T) {
	rt := EncodeRadioTap()
	require.NotZero(t, rt.Present&(1<<2)) // TSFT=bit0, Flags=bit1, Rate=bit2
}
