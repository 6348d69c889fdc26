package config

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all access point configuration, assembled from command-line
// flags layered over environment variables (flags win on conflict).
type Config struct {
	Interface     string
	SSID          string
	PSK           string
	BSSID         string // empty: derive from the interface's hardware address
	Channel       int
	BeaconIntervalMS int

	UpperMode string // "synthetic" or "tap"
	TAPName   string
	APIP      string // IP the synthetic network's ARP responder answers for

	Framed    bool // read/write framed frames on stdin/stdout instead of pcap
	HTTPAddr  string
	AuditDB   string
	Debug     bool
}

// Load parses flags/environment variables into a Config. Flags take
// precedence over environment variables, matching the sniffer's loader.
func Load() *Config {
	cfg := &Config{}

	cfg.Interface = getEnv("WMAPAP_INTERFACE", "wlan0")
	cfg.SSID = getEnv("WMAPAP_SSID", "wmap-ap")
	cfg.PSK = getEnv("WMAPAP_PSK", "")
	cfg.BSSID = getEnv("WMAPAP_BSSID", "")
	cfg.Channel = int(getEnvFloat("WMAPAP_CHANNEL", 6))
	cfg.BeaconIntervalMS = int(getEnvFloat("WMAPAP_BEACON_MS", 50))
	cfg.UpperMode = getEnv("WMAPAP_UPPER", "synthetic")
	cfg.TAPName = getEnv("WMAPAP_TAP", "wmap-tap0")
	cfg.APIP = getEnv("WMAPAP_IP", "192.168.50.1")
	cfg.Framed = getEnvBool("WMAPAP_FRAMED", false)
	cfg.HTTPAddr = getEnv("WMAPAP_HTTP_ADDR", ":8080")
	cfg.AuditDB = getEnv("WMAPAP_AUDIT_DB", getDefaultAuditDBPath())

	flag.StringVar(&cfg.Interface, "i", cfg.Interface, "Monitor-mode network interface")
	flag.StringVar(&cfg.SSID, "ssid", cfg.SSID, "Network name advertised in beacons")
	flag.StringVar(&cfg.PSK, "psk", cfg.PSK, "WPA2-Personal pre-shared key (8-63 ASCII characters)")
	flag.StringVar(&cfg.BSSID, "bssid", cfg.BSSID, "BSSID to use (empty: derive from interface)")
	flag.IntVar(&cfg.Channel, "channel", cfg.Channel, "Operating channel number")
	flag.IntVar(&cfg.BeaconIntervalMS, "beacon-interval", cfg.BeaconIntervalMS, "Beacon interval in milliseconds")
	flag.StringVar(&cfg.UpperMode, "upper", cfg.UpperMode, "Upper-layer network mode: synthetic or tap")
	flag.StringVar(&cfg.TAPName, "tap", cfg.TAPName, "TAP device name when -upper=tap")
	flag.StringVar(&cfg.APIP, "ip", cfg.APIP, "IP address the synthetic network's ARP responder answers for when -upper=synthetic")
	flag.BoolVar(&cfg.Framed, "framed", cfg.Framed, "Read/write length-framed 802.11 frames on stdin/stdout instead of opening a live capture")
	flag.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "Status/diagnostics HTTP server address")
	flag.StringVar(&cfg.AuditDB, "audit-db", cfg.AuditDB, "Path to SQLite audit log database")
	flag.BoolVar(&cfg.Debug, "debug", false, "Enable verbose debug logging")

	flag.Parse()

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getDefaultAuditDBPath returns the default audit database path under the
// user's home directory, creating the containing directory if needed.
func getDefaultAuditDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Warning: Could not get user home directory, using current dir: %v", err)
		return "wmap-ap.db"
	}

	dir := filepath.Join(home, ".wmap-ap")
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("Warning: Could not create .wmap-ap directory, using current dir: %v", err)
		return "wmap-ap.db"
	}

	return filepath.Join(dir, "wmap-ap.db")
}
