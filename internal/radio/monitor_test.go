package radio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	calls [][]string
	outs  map[string][]byte
	errs  map[string]error
}

func (f *fakeExecutor) Execute(name string, args ...string) ([]byte, error) {
	key := name
	f.calls = append(f.calls, append([]string{name}, args...))
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	return f.outs[key], nil
}

func TestSetChannelRejectsNonPositive(t *testing.T) {
	d := NewDriver(nil)
	err := d.SetChannel("wlan0", 0)
	require.Error(t, err)
}

func TestEnableMonitorModeRunsExpectedCommands(t *testing.T) {
	fx := &fakeExecutor{outs: map[string][]byte{}, errs: map[string]error{}}
	d := NewDriver(nil)
	d.SetExecutor(fx)

	err := d.EnableMonitorMode("wlan0", 6)
	require.NoError(t, err)
	require.Len(t, fx.calls, 4)
	assert.Equal(t, []string{"ip", "link", "set", "wlan0", "down"}, fx.calls[0])
	assert.Equal(t, []string{"iw", "wlan0", "set", "type", "monitor"}, fx.calls[1])
	assert.Equal(t, []string{"ip", "link", "set", "wlan0", "up"}, fx.calls[2])
	assert.Equal(t, []string{"iw", "wlan0", "set", "channel", "6"}, fx.calls[3])
}

func TestPhyForInterfaceParsesIwDev(t *testing.T) {
	fx := &fakeExecutor{
		outs: map[string][]byte{
			"iw": []byte("phy#0\n\tInterface wlan0\n"),
		},
		errs: map[string]error{},
	}
	d := NewDriver(nil)
	d.SetExecutor(fx)

	phy, err := d.phyForInterface("wlan0")
	require.NoError(t, err)
	assert.Equal(t, "phy0", phy)
}
