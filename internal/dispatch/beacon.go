package dispatch

import (
	"time"

	"github.com/wmapap/wmap-ap/internal/ap"
	"github.com/wmapap/wmap-ap/internal/codec"
)

// BeaconInterval is the time between beacon transmissions (spec §4.5).
const BeaconInterval = 50 * time.Millisecond

// beaconIntervalField is the value carried in the beacon body's
// beacon-interval field: 0x0064 time units (102.4ms each), spec §4.5.
const beaconIntervalField = 0x0064

// capability bits (IEEE 802.11-2016 §9.4.1.4).
const (
	capESS           = 1 << 0
	capShortPreamble = 1 << 5
	capPrivacy       = 1 << 4
)

// BeaconFrame is a beacon or probe-response body plus the header fields
// the transport needs (spec §4.5).
type BeaconFrame struct {
	IsProbeResponse bool
	Addr1           [6]byte // broadcast for beacons, the requester for probe responses
	Addr2           [6]byte
	Addr3           [6]byte
	Body            []byte
}

var broadcastMAC = [6]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// BuildBeaconOrProbeResponse assembles the fixed fields (timestamp,
// beacon interval, capability info) followed by the SSID, supported
// rates, DS parameter set, extended supported rates, country, and RSN
// information elements (spec §4.5). The timestamp is the wall-clock
// delta since processStart, the package's load time.
func BuildBeaconOrProbeResponse(bss *ap.BSS, channel uint8, isProbeResponse bool) *BeaconFrame {
	body := make([]byte, 0, 64)

	ts := uint64(time.Since(processStart).Microseconds())
	tsBytes := make([]byte, 8)
	for i := 0; i < 8; i++ {
		tsBytes[i] = byte(ts >> (8 * i))
	}
	body = append(body, tsBytes...)

	body = append(body, byte(beaconIntervalField), byte(beaconIntervalField>>8))

	caps := uint16(capESS | capShortPreamble | capPrivacy)
	body = append(body, byte(caps), byte(caps>>8))

	body = append(body, codec.BuildSSIDIE(bss.SSID)...)
	body = append(body, codec.BuildSupportedRatesIE()...)
	body = append(body, codec.BuildDSParameterSetIE(channel)...)
	body = append(body, codec.BuildExtSupportedRatesIE()...)
	body = append(body, codec.BuildIE(0x07, []byte{'U', 'S', ' ', channel, 1, 0x17})...) // country IE
	body = append(body, codec.BuildRSNIE()...)

	addr1 := broadcastMAC
	if isProbeResponse {
		addr1 = [6]byte{} // caller overwrites with the requester's address
	}

	return &BeaconFrame{
		IsProbeResponse: isProbeResponse,
		Addr1:           addr1,
		Addr2:           bss.BSSID,
		Addr3:           bss.BSSID,
		Body:            body,
	}
}

var processStart = time.Now()
