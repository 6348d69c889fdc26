package codec

// Information Element tag numbers this access point reads or writes.
const (
	IESSID              = 0
	IESupportedRates    = 1
	IEDSParameterSet    = 3
	IEExtSupportedRates = 50
	IERSN               = 48
	IEVendorSpecific    = 221
)

// IterateIEs walks a TLV-encoded information-element byte string (the body
// of a beacon/probe/(re)association frame, or a Key Data field), invoking
// callback for each well-formed element. It stops silently at the first
// element whose declared length would overrun the buffer.
func IterateIEs(data []byte, callback func(id int, val []byte)) {
	offset := 0
	limit := len(data)

	for offset < limit {
		if offset+2 > limit {
			break
		}
		id := int(data[offset])
		length := int(data[offset+1])
		offset += 2

		if offset+length > limit {
			break
		}
		callback(id, data[offset:offset+length])
		offset += length
	}
}

// FindIE returns the value of the first IE with the given tag, or nil.
func FindIE(data []byte, targetID int) []byte {
	var result []byte
	IterateIEs(data, func(id int, val []byte) {
		if result == nil && id == targetID {
			result = val
		}
	})
	return result
}

// HiddenSSIDSentinel is returned by ParseSSID when the SSID element is
// present but its value is the zero-length/zero-byte placeholder a probe
// response or beacon uses to hide the network name.
const HiddenSSIDSentinel = "<HIDDEN>"

// ParseSSID extracts the SSID from a beacon/probe information-element
// byte string.
func ParseSSID(data []byte) string {
	val := FindIE(data, IESSID)
	if val == nil {
		return ""
	}
	if len(val) == 0 || val[0] == 0x00 {
		return HiddenSSIDSentinel
	}
	return string(val)
}

// BuildIE encodes a single tag/length/value information element.
func BuildIE(id byte, value []byte) []byte {
	out := make([]byte, 2+len(value))
	out[0] = id
	out[1] = byte(len(value))
	copy(out[2:], value)
	return out
}

// BuildSSIDIE encodes the SSID element. An empty ssid produces a
// zero-length value IE, the conventional way to broadcast a hidden SSID.
func BuildSSIDIE(ssid string) []byte {
	return BuildIE(IESSID, []byte(ssid))
}

// BuildSupportedRatesIE encodes a minimal Supported Rates element
// advertising 1, 2, 5.5 and 11 Mbps (the mandatory 802.11b rate set),
// each rate byte having its high "basic rate" bit set.
func BuildSupportedRatesIE() []byte {
	return BuildIE(IESupportedRates, []byte{0x82, 0x84, 0x8b, 0x96})
}

// BuildDSParameterSetIE encodes the DS Parameter Set element carrying the
// operating channel number.
func BuildDSParameterSetIE(channel uint8) []byte {
	return BuildIE(IEDSParameterSet, []byte{channel})
}

// BuildExtSupportedRatesIE encodes the Extended Supported Rates element
// advertising the mandatory 802.11g OFDM rates (6, 9, 12, 18, 24, 36, 48,
// 54 Mbps), none of them basic.
func BuildExtSupportedRatesIE() []byte {
	return BuildIE(IEExtSupportedRates, []byte{0x0c, 0x12, 0x18, 0x24, 0x30, 0x48, 0x60, 0x6c})
}
