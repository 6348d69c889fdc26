package ap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewStationStartsUnknown(t *testing.T) {
	sta := NewStation([6]byte{1, 2, 3, 4, 5, 6})
	require.Equal(t, StateUnknown, sta.State)
	require.False(t, sta.Associated)
	require.NotEqual(t, [16]byte{}, [16]byte(sta.SessionID)) // uuid.New() is non-zero
}

func TestAcceptsPNStrictlyMonotonic(t *testing.T) {
	sta := NewStation([6]byte{1, 2, 3, 4, 5, 6})

	require.True(t, sta.AcceptsPN(0, 1))
	require.True(t, sta.AcceptsPN(0, 2))
	require.False(t, sta.AcceptsPN(0, 2)) // duplicate
	require.False(t, sta.AcceptsPN(0, 1)) // out of order
	require.True(t, sta.AcceptsPN(0, 5))
}

func TestAcceptsPNIsPerKeyID(t *testing.T) {
	sta := NewStation([6]byte{1, 2, 3, 4, 5, 6})

	require.True(t, sta.AcceptsPN(0, 10))
	require.True(t, sta.AcceptsPN(1, 1)) // independent counter for the group key
	require.False(t, sta.AcceptsPN(1, 1))
}

func TestPTKPartitionOffsets(t *testing.T) {
	var ptk PTK
	for i := range ptk {
		ptk[i] = byte(i)
	}

	require.Equal(t, byte(0), ptk.KCK()[0])
	require.Len(t, ptk.KCK(), 16)
	require.Equal(t, byte(16), ptk.KEK()[0])
	require.Len(t, ptk.KEK(), 16)
	require.Equal(t, byte(32), ptk.TK()[0])
	require.Len(t, ptk.TK(), 16)
	require.Equal(t, byte(48), ptk.MICToSTA()[0])
	require.Len(t, ptk.MICToSTA(), 8)
	require.Equal(t, byte(56), ptk.MICToAuth()[0])
	require.Len(t, ptk.MICToAuth(), 8)
}
