package dataplane

import (
	"testing"

	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/require"

	"github.com/wmapap/wmap-ap/internal/ap"
)

func newAssociatedStation(t *testing.T) (*ap.BSS, *ap.Station) {
	t.Helper()
	bssid := [6]byte{0x02, 0, 0, 0, 0, 1}
	bss, err := ap.NewBSS(bssid, "net", "password123", nil)
	require.NoError(t, err)

	staMAC := [6]byte{0xaa, 0xbb, 0xcc, 0, 0, 1}
	sta := bss.EnsureStation(staMAC)
	for i := range sta.PTK {
		sta.PTK[i] = byte(i)
	}
	sta.Associated = true
	return bss, sta
}

// TestUnicastEncryptDecryptRoundTrip exercises spec §8's round-trip law
// for the unicast path: decrypt(encrypt(F)) = F.
func TestUnicastEncryptDecryptRoundTrip(t *testing.T) {
	bss, sta := newAssociatedStation(t)

	payload := []byte("an ARP request payload, arbitrary length content")
	enc, err := EncryptToStation(bss, sta, layers.EthernetTypeARP, sta.MAC, payload)
	require.NoError(t, err)
	require.Equal(t, uint64(1), sta.UnicastPN)

	dec, err := Decrypt(bss, enc.Addr1, enc.Addr2, enc.Addr3, enc.FCField, enc.SequenceControl, enc.CCMPHeader, enc.Ciphertext)
	require.NoError(t, err)
	require.Equal(t, layers.EthernetTypeARP, dec.Ethertype)
	require.Equal(t, payload, dec.Payload)
	require.Equal(t, sta.MAC, dec.SrcMAC)
}

func TestDecryptRejectsUnknownStation(t *testing.T) {
	bss, sta := newAssociatedStation(t)
	payload := []byte("hello")
	enc, err := EncryptToStation(bss, sta, layers.EthernetTypeIPv4, sta.MAC, payload)
	require.NoError(t, err)

	bss.RemoveStation(sta.MAC)
	_, err = Decrypt(bss, enc.Addr1, enc.Addr2, enc.Addr3, enc.FCField, enc.SequenceControl, enc.CCMPHeader, enc.Ciphertext)
	require.ErrorIs(t, err, ErrUnknownStation)
}

func TestDecryptRejectsReplayedPN(t *testing.T) {
	bss, sta := newAssociatedStation(t)
	payload := []byte("hello")
	enc, err := EncryptToStation(bss, sta, layers.EthernetTypeIPv4, sta.MAC, payload)
	require.NoError(t, err)

	_, err = Decrypt(bss, enc.Addr1, enc.Addr2, enc.Addr3, enc.FCField, enc.SequenceControl, enc.CCMPHeader, enc.Ciphertext)
	require.NoError(t, err)

	_, err = Decrypt(bss, enc.Addr1, enc.Addr2, enc.Addr3, enc.FCField, enc.SequenceControl, enc.CCMPHeader, enc.Ciphertext)
	require.ErrorIs(t, err, ErrReplayedPN)
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	bss, sta := newAssociatedStation(t)
	payload := []byte("hello")
	enc, err := EncryptToStation(bss, sta, layers.EthernetTypeIPv4, sta.MAC, payload)
	require.NoError(t, err)

	tampered := append([]byte{}, enc.Ciphertext...)
	tampered[0] ^= 0x01

	_, err = Decrypt(bss, enc.Addr1, enc.Addr2, enc.Addr3, enc.FCField, enc.SequenceControl, enc.CCMPHeader, tampered)
	require.Error(t, err)
}

// TestGroupEncryptUsesBSSGTKAndGroupPN verifies the group-traffic path
// selects the BSS's GTK and its own monotonic PN counter, independent of
// any station's unicast PN (spec §4.4 step 1-2).
func TestGroupEncryptUsesBSSGTKAndGroupPN(t *testing.T) {
	bss, _ := newAssociatedStation(t)

	payload := []byte("a broadcast DHCP discover")
	enc, err := EncryptGroup(bss, layers.EthernetTypeIPv4, bss.BSSID, payload)
	require.NoError(t, err)
	require.Equal(t, broadcastMAC, enc.Addr1)
	require.Equal(t, uint8(1), enc.CCMPHeader[3]>>6&0x03) // key id from BSS.GTKKeyID

	second, err := EncryptGroup(bss, layers.EthernetTypeIPv4, bss.BSSID, payload)
	require.NoError(t, err)
	require.NotEqual(t, enc.CCMPHeader, second.CCMPHeader) // PN advanced
}

func TestIsGroupDestination(t *testing.T) {
	require.True(t, IsGroupDestination(broadcastMAC))
	require.True(t, IsGroupDestination([6]byte{0x01, 0, 0, 0, 0, 0}))
	require.False(t, IsGroupDestination([6]byte{0x02, 0, 0, 0, 0, 0}))
}
