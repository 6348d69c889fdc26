package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// FramesReceived counts 802.11 frames accepted for a BSS after the
	// dispatcher's address filtering.
	FramesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wmapap",
			Name:      "frames_received_total",
			Help:      "Total number of 802.11 frames accepted for a BSS after address filtering",
		},
		[]string{"bssid"},
	)

	// FramesDropped counts frames dropped by the dispatcher or codec,
	// labeled by the reason (bad_fcs, not_ours, radiotap_decode_error, ...).
	FramesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wmapap",
			Name:      "frames_dropped_total",
			Help:      "Total number of frames dropped before or during processing",
		},
		[]string{"bssid", "reason"},
	)

	// AssociationsTotal counts successful four-way handshake completions.
	AssociationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wmapap",
			Name:      "associations_total",
			Help:      "Total number of stations that completed the four-way handshake",
		},
		[]string{"bssid"},
	)

	// DeauthsSent counts deauthentication frames transmitted, labeled by
	// reason code.
	DeauthsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wmapap",
			Name:      "deauths_sent_total",
			Help:      "Total number of deauthentication frames sent",
		},
		[]string{"bssid", "reason"},
	)

	// MICFailures counts message-2 MIC verification failures.
	MICFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wmapap",
			Name:      "mic_failures_total",
			Help:      "Total number of EAPOL-Key MIC verification failures",
		},
		[]string{"bssid"},
	)

	// CCMPDecryptFailures counts CCM tag verification failures on data
	// frame decrypt.
	CCMPDecryptFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wmapap",
			Name:      "ccmp_decrypt_failures_total",
			Help:      "Total number of CCMP decrypt/tag-verification failures",
		},
		[]string{"bssid"},
	)

	// BeaconsSent counts beacon frames transmitted per BSS.
	BeaconsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wmapap",
			Name:      "beacons_sent_total",
			Help:      "Total number of beacon frames transmitted",
		},
		[]string{"bssid"},
	)

	// StationsAssociated is a gauge of currently associated stations.
	StationsAssociated = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "wmapap",
			Name:      "stations_associated",
			Help:      "Current number of associated stations",
		},
		[]string{"bssid"},
	)

	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry.
// Idempotent; safe to call multiple times.
func InitMetrics() {
	once.Do(func() {
		prometheus.DefaultRegisterer.Register(FramesReceived)
		prometheus.DefaultRegisterer.Register(FramesDropped)
		prometheus.DefaultRegisterer.Register(AssociationsTotal)
		prometheus.DefaultRegisterer.Register(DeauthsSent)
		prometheus.DefaultRegisterer.Register(MICFailures)
		prometheus.DefaultRegisterer.Register(CCMPDecryptFailures)
		prometheus.DefaultRegisterer.Register(BeaconsSent)
		prometheus.DefaultRegisterer.Register(StationsAssociated)
	})
}
