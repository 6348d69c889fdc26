package dispatch

import (
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/require"

	"github.com/wmapap/wmap-ap/internal/ap"
	"github.com/wmapap/wmap-ap/internal/codec"
	apcrypto "github.com/wmapap/wmap-ap/internal/crypto"
)

// frame-control bits a station sets that this dispatcher never builds
// itself (it only ever receives them), needed to construct realistic
// to-DS protected data frames in tests.
const (
	fcToDS      = 1 << 8
	fcProtected = 1 << 14
)

func testRadiotapBytes(t *testing.T) []byte {
	t.Helper()
	rt := &layers.RadioTap{Present: layers.RadioTapPresentRate, Rate: 2}
	buf := gopacket.NewSerializeBuffer()
	require.NoError(t, rt.SerializeTo(buf, gopacket.SerializeOptions{FixLengths: true}))
	return buf.Bytes()
}

// buildFrame assembles a radiotap-prefixed 802.11 frame byte for byte the
// way this package's own Encode methods do, so Dispatch (which decodes
// with the same gopacket layer) can be exercised without depending on
// unconfirmed gopacket management-frame struct layouts.
func buildFrame(t *testing.T, fc uint16, addr1, addr2, addr3 [6]byte, body []byte) []byte {
	t.Helper()
	out := append([]byte{}, testRadiotapBytes(t)...)
	out = append(out, byte(fc), byte(fc>>8))
	out = append(out, 0, 0)
	out = append(out, addr1[:]...)
	out = append(out, addr2[:]...)
	out = append(out, addr3[:]...)
	out = append(out, 0, 0) // sequence control
	out = append(out, body...)
	return out
}

func testBSSForDispatch(t *testing.T) (*ap.AP, [6]byte) {
	t.Helper()
	bssid := [6]byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}
	bss, err := ap.NewBSS(bssid, "test-net", "password123", nil)
	require.NoError(t, err)
	a := ap.New()
	a.AddBSS(bss)
	return a, bssid
}

func TestDispatchDropsSelfLoop(t *testing.T) {
	a, bssid := testBSSForDispatch(t)
	d := New(a, nil)

	// addr2 == our own BSSID: the AP hearing its own transmission.
	frame := buildFrame(t, uint16(fcTypeMgmt)|uint16(subtypeAuth)<<4, bssid, bssid, bssid, []byte{0, 0, 1, 0, 0, 0})
	_, ok := d.Dispatch(frame, time.Now())
	require.False(t, ok)
}

func TestDispatchDropsUnknownBSSID(t *testing.T) {
	a, _ := testBSSForDispatch(t)
	d := New(a, nil)

	other := [6]byte{1, 2, 3, 4, 5, 6}
	sta := [6]byte{7, 8, 9, 10, 11, 12}
	frame := buildFrame(t, uint16(fcTypeMgmt)|uint16(subtypeAuth)<<4, other, sta, other, []byte{0, 0, 1, 0, 0, 0})
	_, ok := d.Dispatch(frame, time.Now())
	require.False(t, ok)
}

func TestDispatchAuthenticationProducesResponseAndEmitsEvent(t *testing.T) {
	a, bssid := testBSSForDispatch(t)
	d := New(a, nil)

	var gotEvent string
	d.OnEvent = func(bssidStr, station, event, reason string) {
		gotEvent = event
	}

	sta := [6]byte{1, 2, 3, 4, 5, 6}
	frame := buildFrame(t, uint16(fcTypeMgmt)|uint16(subtypeAuth)<<4, bssid, sta, bssid, []byte{0, 0, 1, 0, 0, 0})

	action, ok := d.Dispatch(frame, time.Now())
	require.True(t, ok)
	require.NotNil(t, action.Management)
	require.Equal(t, "authenticated", gotEvent)

	bss := a.BSS(bssid)
	station := bss.Station(sta)
	require.NotNil(t, station)
	require.Equal(t, ap.StateAuthenticated, station.State)
}

func TestDispatchAssociationAllocatesAIDAndBuildsMessage1(t *testing.T) {
	a, bssid := testBSSForDispatch(t)
	d := New(a, nil)

	sta := [6]byte{1, 2, 3, 4, 5, 6}
	bss := a.BSS(bssid)
	bss.EnsureStation(sta).State = ap.StateAuthenticated

	assocBody := []byte{0x01, 0x04, 0x00, 0x00}
	const subtypeAssocReq = 0x00
	reqFrame := buildFrame(t, uint16(fcTypeMgmt)|uint16(subtypeAssocReq)<<4, bssid, sta, bssid, assocBody)
	action, ok := d.Dispatch(reqFrame, time.Now())
	require.True(t, ok)
	require.NotNil(t, action.Management)
	require.NotNil(t, action.EAPOL)

	station := bss.Station(sta)
	require.NotZero(t, station.AID)
}

// TestDispatchDecryptsProtectedDataFrame drives a STA->AP encrypted data
// frame through Dispatch end to end (radiotap decode, gopacket Dot11
// decode, FC reconstruction, CCMP decrypt) rather than calling
// dataplane.Decrypt directly with the encoder's own FCField, so a
// regression in Dispatch's own FC reconstruction is actually caught.
func TestDispatchDecryptsProtectedDataFrame(t *testing.T) {
	a, bssid := testBSSForDispatch(t)
	d := New(a, nil)

	bss := a.BSS(bssid)
	staMAC := [6]byte{1, 2, 3, 4, 5, 6}
	destMAC := [6]byte{9, 9, 9, 9, 9, 9}
	sta := bss.EnsureStation(staMAC)
	for i := range sta.PTK {
		sta.PTK[i] = byte(i + 1)
	}
	sta.Associated = true

	payload := []byte("hello from the station")
	_, snap := codec.BuildLLCSNAP(layers.EthernetTypeIPv4)
	plaintext := make([]byte, 0, codec.LLCSNAPLen+len(payload))
	plaintext = append(plaintext, 0xaa, 0xaa, 0x03, 0x00, 0x00, 0x00, byte(snap.Type>>8), byte(snap.Type))
	plaintext = append(plaintext, payload...)

	const pn = 1
	ccmpHdr := codec.EncodeCCMPHeader(codec.CCMPHeader{PN: pn, KeyID: 0, ExtIV: true})

	fc := uint16(fcTypeData) | fcToDS | fcProtected
	const sc = 0 // buildFrame always writes a zero sequence-control field
	nonce := apcrypto.CCMPNonce(0, staMAC, pn)
	aad := apcrypto.CCMPAAD(apcrypto.Dot11FrameHeader{
		FCField:         fc,
		Addr1:           bssid,
		Addr2:           staMAC,
		Addr3:           destMAC,
		SequenceControl: sc,
	})
	ciphertext, err := apcrypto.CCMEncrypt(sta.PTK.TK(), nonce, aad, plaintext)
	require.NoError(t, err)

	body := append(append([]byte{}, ccmpHdr...), ciphertext...)
	frame := buildFrame(t, fc, bssid, staMAC, destMAC, body)

	action, ok := d.Dispatch(frame, time.Now())
	require.True(t, ok)
	require.NotNil(t, action.Decrypted)
	require.Equal(t, layers.EthernetTypeIPv4, action.Decrypted.Ethertype)
	require.Equal(t, payload, action.Decrypted.Payload)
	require.Equal(t, staMAC, action.Decrypted.SrcMAC)
	require.Equal(t, destMAC, action.Decrypted.DstMAC)
}
