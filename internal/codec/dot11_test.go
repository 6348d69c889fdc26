package codec

import (
	"testing"

	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/require"
)

func TestClassifyDot11(t *testing.T) {
	mgmt := &layers.Dot11{Type: layers.Dot11TypeMgmtBeacon}
	require.Equal(t, ClassManagement, ClassifyDot11(mgmt))

	data := &layers.Dot11{Type: layers.Dot11TypeData}
	require.Equal(t, ClassData, ClassifyDot11(data))

	ctrl := &layers.Dot11{Type: layers.Dot11TypeCtrlAck}
	require.Equal(t, ClassControl, ClassifyDot11(ctrl))
}

func TestBuildDeauthEncodesReasonLittleEndian(t *testing.T) {
	body := BuildDeauth(ReasonMICFailure)
	require.Equal(t, []byte{14, 0}, body)
}

func TestBuildAuthResponseLayout(t *testing.T) {
	body := BuildAuthResponse(2, 0)
	require.Len(t, body, 6)
	require.Equal(t, []byte{0x00, 0x00}, body[0:2]) // Open System
	require.Equal(t, []byte{0x02, 0x00}, body[2:4]) // seq num 2
	require.Equal(t, []byte{0x00, 0x00}, body[4:6]) // status success
}
