// Package ap holds the domain model: the per-BSS configuration and
// station table the rest of the access point operates on. It deliberately
// owns no I/O — codec, crypto and transport all live in sibling packages
// and are handed data out of this one.
package ap

import (
	"time"

	"github.com/google/uuid"
)

// HandshakeState is the per-(BSS,STA) state machine position (spec §4.3).
type HandshakeState int

const (
	StateUnknown HandshakeState = iota
	StateAuthenticated
	StateHandshakeStarted
	StatePTKDerived
)

func (s HandshakeState) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateHandshakeStarted:
		return "handshake_started"
	case StatePTKDerived:
		return "ptk_derived"
	default:
		return "unknown"
	}
}

// PTK is the 64-byte pairwise transient key, split into its five named
// partitions per spec §3.
type PTK [64]byte

func (p *PTK) KCK() []byte         { return p[0:16] }
func (p *PTK) KEK() []byte         { return p[16:32] }
func (p *PTK) TK() []byte          { return p[32:48] }
func (p *PTK) MICToSTA() []byte    { return p[48:56] }
func (p *PTK) MICToAuth() []byte   { return p[56:64] }

// Station is one client's handshake and session state within a BSS.
// All fields are guarded by the owning BSS's mutex; there is no
// per-station lock (spec §5 recommends one lock per BSS covering both
// the station table and its counters).
type Station struct {
	MAC   [6]byte
	State HandshakeState

	Associated  bool
	EAPOLReady  bool
	AID         uint16

	ANonce [32]byte
	SNonce [32]byte
	PTK    PTK

	ReplayCounter uint64 // last EAPOL-Key replay counter seen from this STA

	UnicastPN   uint64            // last PN allocated for pairwise traffic to this STA (0 before the first frame)
	RxHighestPN map[uint8]uint64  // highest PN accepted so far, keyed by key id (0=pairwise,1=group)

	Message1Frame []byte // the last encoded message-1 frame (802.1X header + EAPOL-Key body) built for this STA

	LastAuthTime  time.Time
	LastAssocTime time.Time

	SessionID uuid.UUID
}

// NewStation allocates a fresh Station in state Unknown.
func NewStation(mac [6]byte) *Station {
	return &Station{
		MAC:         mac,
		State:       StateUnknown,
		RxHighestPN: make(map[uint8]uint64),
		SessionID:   uuid.New(),
	}
}

// AcceptsPN reports whether pn is strictly greater than the highest PN
// seen so far for the given key id, and if so records it. Callers must
// hold the owning BSS's lock.
func (s *Station) AcceptsPN(keyID uint8, pn uint64) bool {
	if highest, ok := s.RxHighestPN[keyID]; ok && pn <= highest {
		return false
	}
	s.RxHighestPN[keyID] = pn
	return true
}
