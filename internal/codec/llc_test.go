package codec

import (
	"testing"

	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/require"
)

func TestBuildLLCSNAPForEAPOL(t *testing.T) {
	llc, snap := BuildLLCSNAP(layers.EthernetTypeEAPOL)
	require.Equal(t, uint8(0xaa), llc.DSAP)
	require.Equal(t, uint8(0xaa), llc.SSAP)
	require.Equal(t, layers.EthernetTypeEAPOL, snap.Type)
	require.Equal(t, []byte{0, 0, 0}, snap.OrganizationalCode)
}

func TestIsSNAPFrameAndEthertype(t *testing.T) {
	llc, snap := BuildLLCSNAP(layers.EthernetTypeIPv4)
	raw := []byte{llc.DSAP, llc.SSAP, llc.Control,
		snap.OrganizationalCode[0], snap.OrganizationalCode[1], snap.OrganizationalCode[2],
		byte(snap.Type >> 8), byte(snap.Type)}

	require.True(t, IsSNAPFrame(raw))
	require.Equal(t, layers.EthernetTypeIPv4, SNAPEthertype(raw))
}

func TestIsSNAPFrameRejectsShortOrWrongPrefix(t *testing.T) {
	require.False(t, IsSNAPFrame([]byte{0xaa, 0xaa}))
	require.False(t, IsSNAPFrame([]byte{0x00, 0xaa, 0x03, 0, 0, 0, 0x08, 0x00}))
}
