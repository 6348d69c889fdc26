package ap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddBSSSetsPrimaryToFirst(t *testing.T) {
	a := New()

	b1, err := NewBSS([6]byte{1}, "net-a", "password1", nil)
	require.NoError(t, err)
	b2, err := NewBSS([6]byte{2}, "net-b", "password1", nil)
	require.NoError(t, err)

	a.AddBSS(b1)
	a.AddBSS(b2)

	require.Same(t, b1, a.Primary())
}

func TestBSSBySSIDExactMatch(t *testing.T) {
	a := New()
	b, err := NewBSS([6]byte{1}, "my-net", "password1", nil)
	require.NoError(t, err)
	a.AddBSS(b)

	require.Same(t, b, a.BSSBySSID("my-net"))
	require.Nil(t, a.BSSBySSID("other-net"))
}

func TestIsOwnBSSID(t *testing.T) {
	a := New()
	bssid := [6]byte{1, 2, 3, 4, 5, 6}
	b, err := NewBSS(bssid, "net", "password1", nil)
	require.NoError(t, err)
	a.AddBSS(b)

	require.True(t, a.IsOwnBSSID(bssid))
	require.False(t, a.IsOwnBSSID([6]byte{9, 9, 9, 9, 9, 9}))
}

func TestEachVisitsAllBSSes(t *testing.T) {
	a := New()
	b1, _ := NewBSS([6]byte{1}, "a", "password1", nil)
	b2, _ := NewBSS([6]byte{2}, "b", "password1", nil)
	a.AddBSS(b1)
	a.AddBSS(b2)

	seen := map[[6]byte]bool{}
	a.Each(func(b *BSS) { seen[b.BSSID] = true })
	require.Len(t, seen, 2)
}
