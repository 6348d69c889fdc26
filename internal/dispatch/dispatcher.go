package dispatch

import (
	"log/slog"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/wmapap/wmap-ap/internal/ap"
	"github.com/wmapap/wmap-ap/internal/codec"
	"github.com/wmapap/wmap-ap/internal/dataplane"
	"github.com/wmapap/wmap-ap/internal/handshake"
	"github.com/wmapap/wmap-ap/internal/telemetry"
)

// Action is what the caller must do after Dispatch returns: transmit a
// frame, deliver a decrypted Ethernet frame upward, or do nothing.
type Action struct {
	Management *ManagementFrame
	EAPOL      *EAPOLFrame
	Beacon     *BeaconFrame
	Decrypted  *dataplane.DecryptedFrame
}

// Dispatcher routes received radio frames per spec §4.6: bad-FCS drop,
// address-based filtering, then EAPOL / CCMP / management routing.
type Dispatcher struct {
	AP     *ap.AP
	Logger *slog.Logger

	// OnEvent, if set, is called for each station lifecycle transition
	// this dispatcher drives, letting a caller bridge them to an audit
	// log or a status feed without this package depending on either.
	OnEvent func(bssid, station, event, reason string)
}

// New returns a Dispatcher. A nil logger falls back to slog.Default().
func New(a *ap.AP, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{AP: a, Logger: logger}
}

func (d *Dispatcher) emit(bss *ap.BSS, station [6]byte, event, reason string) {
	if d.OnEvent != nil {
		d.OnEvent(macString(bss.BSSID), macString(station), event, reason)
	}
}

// Dispatch processes one radiotap-prefixed frame and returns the action
// the caller (the receiver loop) must take, or ok=false if the frame was
// dropped.
func (d *Dispatcher) Dispatch(radiotapFrame []byte, now time.Time) (Action, bool) {
	_, rest, ok, err := codec.DecodeRadioTap(radiotapFrame)
	if err != nil {
		d.drop("radiotap_decode_error", "")
		return Action{}, false
	}
	if !ok {
		d.drop("bad_fcs", "")
		return Action{}, false
	}

	packet := gopacket.NewPacket(rest, layers.LayerTypeDot11, gopacket.NoCopy)
	dot11Layer := packet.Layer(layers.LayerTypeDot11)
	if dot11Layer == nil {
		d.drop("not_dot11", "")
		return Action{}, false
	}
	dot11, ok := dot11Layer.(*layers.Dot11)
	if !ok {
		d.drop("not_dot11", "")
		return Action{}, false
	}

	var addr1, addr2, addr3 [6]byte
	copy(addr1[:], dot11.Address1)
	copy(addr2[:], dot11.Address2)
	copy(addr3[:], dot11.Address3)

	if d.AP.IsOwnBSSID(addr2) {
		return Action{}, false // self-loop protection
	}

	bss := d.AP.BSS(addr1)
	broadcast := dataplane.IsGroupDestination(addr1)
	if !broadcast && bss == nil {
		d.drop("not_ours", "")
		return Action{}, false
	}
	if broadcast {
		bss = d.AP.BSS(addr2)
		if bss == nil {
			d.drop("not_ours", "")
			return Action{}, false
		}
	}

	telemetry.FramesReceived.WithLabelValues(macString(bss.BSSID)).Inc()

	if eapolLayer := packet.Layer(layers.LayerTypeEAPOL); eapolLayer != nil {
		return d.handleEAPOL(bss, addr2, eapolLayer.LayerPayload())
	}

	if codec.IsProtected(dot11) && codec.IsToDS(dot11) {
		return d.handleProtectedData(bss, dot11, addr1, addr2, addr3)
	}

	switch dot11.Type {
	case layers.Dot11TypeMgmtProbeReq:
		return d.handleProbeReq(bss, addr2, packet)
	case layers.Dot11TypeMgmtAuthentication:
		return d.handleAuth(bss, addr2, now)
	case layers.Dot11TypeMgmtAssociationReq:
		return d.handleAssoc(bss, addr2, false, now)
	case layers.Dot11TypeMgmtReassociationReq:
		return d.handleAssoc(bss, addr2, true, now)
	}

	d.drop("unhandled_frame", macString(bss.BSSID))
	return Action{}, false
}

func (d *Dispatcher) handleEAPOL(bss *ap.BSS, staMAC [6]byte, payload []byte) (Action, bool) {
	sta := bss.Station(staMAC)
	if sta == nil {
		d.drop("eapol_unknown_station", macString(bss.BSSID))
		return Action{}, false
	}

	if sta.State != ap.StateHandshakeStarted && sta.State != ap.StatePTKDerived {
		d.drop("eapol_unexpected_state", macString(bss.BSSID))
		return Action{}, false
	}

	err := handshake.HandleMessage2(bss, sta, bss.BSSID, staMAC, payload)
	if err != nil {
		telemetry.MICFailures.WithLabelValues(macString(bss.BSSID)).Inc()
		bss.RemoveStation(staMAC)
		d.Logger.Warn("message-2 rejected", "station", macString(staMAC), "error", err)
		d.emit(bss, staMAC, "mic_failure", err.Error())
		return Action{Management: BuildDeauth(bss, staMAC, codec.ReasonUnspecified)}, true
	}

	msg3, err := handshake.BuildMessage3(bss, sta)
	if err != nil {
		d.Logger.Error("building message-3", "error", err)
		return Action{}, false
	}

	telemetry.AssociationsTotal.WithLabelValues(macString(bss.BSSID)).Inc()
	telemetry.StationsAssociated.WithLabelValues(macString(bss.BSSID)).Inc()
	d.emit(bss, staMAC, "handshake_completed", "")

	return Action{EAPOL: &EAPOLFrame{Addr1: staMAC, Addr2: bss.BSSID, Addr3: bss.BSSID, Body: msg3}}, true
}

func (d *Dispatcher) handleProtectedData(bss *ap.BSS, dot11 *layers.Dot11, addr1, addr2, addr3 [6]byte) (Action, bool) {
	payload := dot11.LayerPayload()
	if len(payload) < codec.CCMPHeaderLen+8 {
		d.drop("ccmp_short_payload", macString(bss.BSSID))
		return Action{}, false
	}
	ccmpHeader := payload[:codec.CCMPHeaderLen]
	ciphertext := payload[codec.CCMPHeaderLen:]

	// dot11.Type is gopacket's combined type+subtype value, equal to the
	// wire FC byte0 shifted right by 2; dot11.Proto is the 2-bit protocol
	// version that occupies the low bits of that same byte. Reassemble the
	// actual on-air FC so the CCMP AAD matches what the transmitter (and
	// our own dataplane.encrypt) authenticated.
	fc := uint16(dot11.Type)<<2 | uint16(dot11.Proto) | uint16(dot11.Flags)<<8
	sc := dot11.SequenceNumber<<4 | uint16(dot11.FragmentNumber)

	dec, err := dataplane.Decrypt(bss, addr1, addr2, addr3, fc, sc, ccmpHeader, ciphertext)
	if err != nil {
		telemetry.CCMPDecryptFailures.WithLabelValues(macString(bss.BSSID)).Inc()
		d.Logger.Debug("decrypt failed", "error", err, "station", macString(addr2))

		if err == dataplane.ErrUnknownStation {
			return Action{Management: BuildDeauth(bss, addr2, codec.ReasonSTANotAuthenticated)}, true
		}
		return Action{}, false
	}

	return Action{Decrypted: dec}, true
}

func (d *Dispatcher) handleProbeReq(bss *ap.BSS, requester [6]byte, packet gopacket.Packet) (Action, bool) {
	var ssidIE []byte
	if beacon := packet.Layer(layers.LayerTypeDot11MgmtProbeReq); beacon != nil {
		ssidIE = beacon.LayerPayload()
	}

	frame, err := HandleProbeRequest(d.AP, requester, ssidIE, 6)
	if err != nil || frame == nil {
		return Action{}, false
	}
	frame.Addr1 = requester
	return Action{Beacon: frame}, true
}

func (d *Dispatcher) handleAuth(bss *ap.BSS, staMAC [6]byte, now time.Time) (Action, bool) {
	frame := HandleAuthRequest(bss, staMAC, now)
	if frame == nil {
		return Action{}, false
	}
	d.emit(bss, staMAC, "authenticated", "")
	return Action{Management: frame}, true
}

func (d *Dispatcher) handleAssoc(bss *ap.BSS, staMAC [6]byte, reassoc bool, now time.Time) (Action, bool) {
	result, err := HandleAssocRequest(bss, staMAC, reassoc, now)
	if err != nil || result == nil {
		if err != nil {
			d.Logger.Error("building assoc response", "error", err)
		}
		return Action{}, false
	}
	d.emit(bss, staMAC, "associated", "")
	// Both the response and message-1 need transmitting; callers that can
	// only act on one Action per Dispatch call send the response here and
	// Message1 is queued by the caller via the returned struct.
	return Action{Management: result.Response, EAPOL: result.Message1}, true
}

func (d *Dispatcher) drop(reason, bssid string) {
	telemetry.FramesDropped.WithLabelValues(bssid, reason).Inc()
	d.Logger.Debug("dropped frame", "reason", reason)
}

func macString(mac [6]byte) string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 17)
	for i, b := range mac {
		buf[i*3] = hexDigits[b>>4]
		buf[i*3+1] = hexDigits[b&0xF]
		if i != 5 {
			buf[i*3+2] = ':'
		}
	}
	return string(buf)
}
