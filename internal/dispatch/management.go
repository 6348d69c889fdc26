// Package dispatch routes received frames to the right handler: the
// handshake authenticator, the data-plane decryptor, or one of the
// management-frame responders, and builds the management frames this
// access point transmits (spec §4.3, §4.6).
package dispatch

import (
	"fmt"
	"time"

	"github.com/wmapap/wmap-ap/internal/ap"
	"github.com/wmapap/wmap-ap/internal/codec"
	"github.com/wmapap/wmap-ap/internal/handshake"
)

// ManagementFrame is a fully-built management frame body plus the 802.11
// header fields the transport needs to serialize it.
type ManagementFrame struct {
	Subtype uint8
	Addr1   [6]byte
	Addr2   [6]byte
	Addr3   [6]byte
	Body    []byte
}

const (
	subtypeAuth         = 0x0B
	subtypeAssocResp    = 0x01
	subtypeReassocResp  = 0x03
	subtypeDeauth       = 0x0C
	subtypeProbeResp    = 0x05
)

// HandleProbeRequest builds a probe response. Per spec §4.3, an empty
// SSID element is answered from ap's primary BSS; otherwise only the BSS
// whose SSID matches exactly responds (nil, nil if no match).
func HandleProbeRequest(a *ap.AP, requester [6]byte, ssidIE []byte, channel uint8) (*BeaconFrame, error) {
	ssid := codec.ParseSSID(ssidIE)

	var bss *ap.BSS
	if ssid == "" || ssid == codec.HiddenSSIDSentinel {
		bss = a.Primary()
	} else {
		bss = a.BSSBySSID(ssid)
	}
	if bss == nil {
		return nil, nil
	}

	frame := BuildBeaconOrProbeResponse(bss, channel, true)
	frame.Addr1 = requester
	return frame, nil
}

// HandleAuthRequest builds an Open-System authentication response (spec
// §4.3 S0 -> S1). Returns nil if backoff rejects the request.
func HandleAuthRequest(bss *ap.BSS, sta [6]byte, now time.Time) *ManagementFrame {
	if bss.IsBSSID(sta) {
		return nil // self-loop protection
	}
	if !bss.CheckBackoff(sta, now, true) {
		return nil
	}

	station := bss.EnsureStation(sta)
	station.State = ap.StateAuthenticated

	return &ManagementFrame{
		Subtype: subtypeAuth,
		Addr1:   sta,
		Addr2:   bss.BSSID,
		Addr3:   bss.BSSID,
		Body:    codec.BuildAuthResponse(2, 0),
	}
}

// AssocResult bundles an assoc/reassoc-response with the message-1 frame
// sent immediately after it (spec §4.3 S1 -> S2).
type AssocResult struct {
	Response *ManagementFrame
	Message1 *EAPOLFrame
}

// EAPOLFrame is an EAPOL-Key frame that must be sent as a Data frame
// carrying LLC/SNAP(EAPOL), addressed directly to the station.
type EAPOLFrame struct {
	Addr1 [6]byte
	Addr2 [6]byte
	Addr3 [6]byte
	Body  []byte // encoded 802.1X + EAPOL-Key bytes
}

// HandleAssocRequest builds an association (or reassociation) response
// and the subsequent message-1, per spec §4.3. reassoc selects the
// 0x03 response subtype instead of 0x01.
func HandleAssocRequest(bss *ap.BSS, sta [6]byte, reassoc bool, now time.Time) (*AssocResult, error) {
	if bss.IsBSSID(sta) {
		return nil, nil
	}
	if !bss.CheckBackoff(sta, now, false) {
		return nil, nil
	}

	station := bss.EnsureStation(sta)
	aid := bss.AllocateAID()
	station.AID = aid

	subtype := uint8(subtypeAssocResp)
	if reassoc {
		subtype = subtypeReassocResp
	}

	caps := uint16(capESS | capShortPreamble | capPrivacy)

	respBody := make([]byte, 6)
	respBody[0], respBody[1] = byte(caps), byte(caps>>8)
	respBody[2], respBody[3] = 0x00, 0x00 // status = success
	respBody[4], respBody[5] = byte(aid|0xC000), byte((aid|0xC000)>>8)

	resp := &ManagementFrame{
		Subtype: subtype,
		Addr1:   sta,
		Addr2:   bss.BSSID,
		Addr3:   bss.BSSID,
		Body:    respBody,
	}

	msg1Body, err := handshake.BuildMessage1(station)
	if err != nil {
		return nil, fmt.Errorf("dispatch: building message-1: %w", err)
	}

	return &AssocResult{
		Response: resp,
		Message1: &EAPOLFrame{Addr1: sta, Addr2: bss.BSSID, Addr3: bss.BSSID, Body: msg1Body},
	}, nil
}

// BuildDeauth builds a deauthentication frame for the given reason code
// (spec §7: reason=1 for MIC failure, reason=9 for unknown STA).
func BuildDeauth(bss *ap.BSS, sta [6]byte, reason uint16) *ManagementFrame {
	return &ManagementFrame{
		Subtype: subtypeDeauth,
		Addr1:   sta,
		Addr2:   bss.BSSID,
		Addr3:   bss.BSSID,
		Body:    codec.BuildDeauth(reason),
	}
}
