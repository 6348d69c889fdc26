package ap

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	apcrypto "github.com/wmapap/wmap-ap/internal/crypto"
)

// BackoffWindow is the minimum spacing between two accepted auth/assoc
// requests from the same station (spec §4.3).
const BackoffWindow = 250 * time.Millisecond

// maxAID is the highest association ID this allocator hands out (spec §3):
// AIDs are assigned starting at 1 and wrap back to 1 after maxAID, never
// reaching 0 or exceeding the valid 1..2007 range.
const maxAID = 2007

// UpperNetwork is the contract a BSS's upper-layer collaborator (TAP
// device or synthetic network) must satisfy (spec §6).
type UpperNetwork interface {
	Deliver(frame []byte) error
}

// BSS is one basic service set: its fixed configuration, derived keys,
// and the station table associated with it. All mutable state is guarded
// by mu, the single lock spec §5 recommends covering both the station
// table and the sequence/PN counters.
type BSS struct {
	mu sync.Mutex

	BSSID [6]byte
	SSID  string
	PSK   string
	PMK   [32]byte

	GTK    [16]byte
	gtkAux [8]byte // MIC-derivation companion bytes, bytes 16..24 of the random block GTK was drawn from
	GTKKeyID uint8

	seqControl uint16 // 12-bit sequence-control counter, monotonic modulo 4096
	nextAID    uint16
	groupPN    uint64 // 48-bit group-key packet-number counter

	Stations map[[6]byte]*Station

	Upper UpperNetwork

	SessionID uuid.UUID
}

// NewBSS creates a BSS, deriving its PMK from (psk, ssid) and drawing a
// fresh random GTK, per spec §3's BSS lifecycle.
func NewBSS(bssid [6]byte, ssid, psk string, upper UpperNetwork) (*BSS, error) {
	b := &BSS{
		BSSID:    bssid,
		SSID:     ssid,
		PSK:      psk,
		PMK:      apcrypto.DerivePMK(psk, ssid),
		nextAID:  1,
		GTKKeyID: 1,
		Stations: make(map[[6]byte]*Station),
		Upper:    upper,
		SessionID: uuid.New(),
	}
	if err := b.RegenerateGTK(); err != nil {
		return nil, fmt.Errorf("ap: generating initial GTK: %w", err)
	}
	return b, nil
}

// RegenerateGTK draws a fresh 16-byte GTK (plus its 8-byte MIC-derivation
// companion, per spec §3) from a cryptographically strong RNG and resets
// the group PN counter. Spec §9 leaves automatic rotation as an open
// question this access point resolves by exposing it as an explicit,
// manually-triggered operation rather than scheduling it.
func (b *BSS) RegenerateGTK() error {
	block := make([]byte, 32)
	if _, err := rand.Read(block); err != nil {
		return fmt.Errorf("ap: reading random GTK material: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	copy(b.GTK[:], block[:16])
	copy(b.gtkAux[:], block[16:24])
	b.groupPN = 0
	return nil
}

// NextSequenceControl returns the next 12-bit sequence-control value for
// a transmitted frame, with the 4-bit fragment field zero, incrementing
// the counter modulo 4096 (spec §3 invariant).
func (b *BSS) NextSequenceControl() uint16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seqControl = (b.seqControl + 1) % 4096
	return b.seqControl << 4
}

// AllocateAID assigns the next association ID in 1..maxAID, wrapping back
// to 1 after maxAID and never returning 0 (spec §3).
func (b *BSS) AllocateAID() uint16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	aid := b.nextAID
	b.nextAID = b.nextAID%maxAID + 1
	return aid
}

// NextGroupPN returns the next monotonic 48-bit group-key packet number.
func (b *BSS) NextGroupPN() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.groupPN++
	return b.groupPN
}

// Station looks up a station by MAC, returning nil if absent.
func (b *BSS) Station(mac [6]byte) *Station {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Stations[mac]
}

// EnsureStation returns the existing station for mac or creates one in
// state Unknown (spec §3: "Station created lazily on receipt of an
// association/reassociation request").
func (b *BSS) EnsureStation(mac [6]byte) *Station {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sta, ok := b.Stations[mac]; ok {
		return sta
	}
	sta := NewStation(mac)
	b.Stations[mac] = sta
	return sta
}

// RemoveStation deletes a station, e.g. on MIC failure or explicit
// deauthentication (spec §3 lifecycle).
func (b *BSS) RemoveStation(mac [6]byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.Stations, mac)
}

// WithStation runs fn with the BSS lock held, giving callers a critical
// section to read-modify-write both the station and the BSS counters
// atomically (spec §5).
func (b *BSS) WithStation(mac [6]byte, fn func(sta *Station)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sta, ok := b.Stations[mac]; ok {
		fn(sta)
	}
}

// ForEachStation calls fn for every currently known station, with the
// BSS lock held for the duration of the snapshot copy (not for fn
// itself), so fn may safely call back into the BSS.
func (b *BSS) ForEachStation(fn func(sta *Station)) {
	b.mu.Lock()
	snapshot := make([]*Station, 0, len(b.Stations))
	for _, sta := range b.Stations {
		snapshot = append(snapshot, sta)
	}
	b.mu.Unlock()

	for _, sta := range snapshot {
		fn(sta)
	}
}

// CheckBackoff reports whether a fresh auth/assoc request from mac
// arriving at now should be accepted, updating the relevant timestamp
// when it is (spec §4.3 backoff).
func (b *BSS) CheckBackoff(mac [6]byte, now time.Time, isAuth bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	sta, ok := b.Stations[mac]
	if !ok {
		return true
	}

	var last time.Time
	if isAuth {
		last = sta.LastAuthTime
	} else {
		last = sta.LastAssocTime
	}
	if !last.IsZero() && now.Sub(last) < BackoffWindow {
		return false
	}

	if isAuth {
		sta.LastAuthTime = now
	} else {
		sta.LastAssocTime = now
	}
	return true
}

// IsBSSID reports whether mac matches this BSS's BSSID, used for
// self-loop protection (spec §4.3: "An incoming Dot11 frame whose addr2
// equals any BSSID in this AP is ignored").
func (b *BSS) IsBSSID(mac [6]byte) bool {
	return mac == b.BSSID
}
