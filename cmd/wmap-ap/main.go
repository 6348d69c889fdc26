// Command wmap-ap runs a user-space WPA2-Personal access point: it owns
// one radio interface, speaks the 802.11 management/EAPOL/CCMP surface
// itself, and bridges decrypted traffic to a TAP device or an in-process
// synthetic network.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/wmapap/wmap-ap/internal/ap"
	"github.com/wmapap/wmap-ap/internal/audit"
	"github.com/wmapap/wmap-ap/internal/config"
	"github.com/wmapap/wmap-ap/internal/dispatch"
	"github.com/wmapap/wmap-ap/internal/radio"
	"github.com/wmapap/wmap-ap/internal/status"
	"github.com/wmapap/wmap-ap/internal/telemetry"
	"github.com/wmapap/wmap-ap/internal/transport"
	"github.com/wmapap/wmap-ap/internal/upper"
)

func main() {
	cfg := config.Load()

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	telemetry.InitMetrics()
	shutdownTracer, err := telemetry.InitTracer()
	if err != nil {
		logger.Warn("tracer initialization failed", "error", err)
	} else {
		defer shutdownTracer(context.Background())
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	bssid, err := resolveBSSID(cfg)
	if err != nil {
		return fmt.Errorf("resolving BSSID: %w", err)
	}

	auditLog, err := audit.Open(cfg.AuditDB)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer auditLog.Close()

	var upperNet ap.UpperNetwork
	var bridgeDevice upper.Device
	switch cfg.UpperMode {
	case "tap":
		tap, err := upper.OpenTAP(cfg.TAPName)
		if err != nil {
			return fmt.Errorf("opening TAP device %s: %w", cfg.TAPName, err)
		}
		defer tap.Close()
		upperNet = tap
		bridgeDevice = tap
	default:
		synth := upper.NewSyntheticNetwork(bssid, net.ParseIP(cfg.APIP))
		upperNet = synth
		bridgeDevice = synth
	}

	a := ap.New()
	bss, err := ap.NewBSS(bssid, cfg.SSID, cfg.PSK, upperNet)
	if err != nil {
		return fmt.Errorf("creating BSS: %w", err)
	}
	a.AddBSS(bss)

	driver := radio.NewDriver(logger)
	if !cfg.Framed {
		if err := driver.EnableMonitorMode(cfg.Interface, cfg.Channel); err != nil {
			return fmt.Errorf("enabling monitor mode on %s: %w", cfg.Interface, err)
		}
		defer driver.DisableMonitorMode(cfg.Interface)
		time.Sleep(500 * time.Millisecond) // let the interface settle
	}

	xport, err := openTransport(cfg)
	if err != nil {
		return fmt.Errorf("opening transport: %w", err)
	}
	defer xport.Close()

	hub := status.NewHub(logger)
	statusSrv := status.NewServer(cfg.HTTPAddr, a, hub, logger)

	dispatcher := dispatch.New(a, logger)
	dispatcher.OnEvent = func(bssidStr, station, event, reason string) {
		if err := auditLog.Record(ctx, bssidStr, station, audit.EventType(event), reason); err != nil {
			logger.Warn("audit record failed", "error", err)
		}
		hub.Broadcast(event, map[string]string{"bssid": bssidStr, "station": station, "reason": reason})
	}

	bridge := upper.NewBridge(bss, bridgeDevice, xport, logger)
	go bridge.Run(ctx, 20*time.Millisecond)

	go runBeaconLoop(ctx, a, uint8(cfg.Channel), time.Duration(cfg.BeaconIntervalMS)*time.Millisecond, xport, logger)

	errCh := make(chan error, 2)
	go func() {
		logger.Info("status server listening", "addr", cfg.HTTPAddr)
		if err := statusSrv.Run(ctx); err != nil {
			errCh <- fmt.Errorf("status server: %w", err)
		}
	}()

	go func() {
		if err := receiveLoop(ctx, dispatcher, a, xport, logger); err != nil {
			errCh <- fmt.Errorf("receive loop: %w", err)
		}
	}()

	logger.Info("access point started", "ssid", cfg.SSID, "bssid", macString(bssid), "interface", cfg.Interface)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("component failed", "error", err)
		cancel()
		return err
	}
	return nil
}

func openTransport(cfg *config.Config) (transport.Transport, error) {
	if cfg.Framed {
		return transport.NewFramedTransport(os.Stdin, os.Stdout), nil
	}
	return transport.NewPcapTransport(cfg.Interface)
}

// receiveLoop pulls frames off the transport, dispatches them, and
// transmits whatever action results (spec §4.6).
func receiveLoop(ctx context.Context, d *dispatch.Dispatcher, a *ap.AP, xport transport.Transport, logger *slog.Logger) error {
	for {
		frame, err := xport.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		action, ok := d.Dispatch(frame, time.Now())
		if !ok {
			continue
		}

		if action.Management != nil {
			transmitManagement(a, xport, action.Management, logger)
		}
		if action.Beacon != nil {
			transmitBeacon(a, xport, action.Beacon, logger)
		}
		if action.EAPOL != nil {
			transmitEAPOL(a, xport, action.EAPOL, logger)
		}
		if action.Decrypted != nil {
			deliverUpward(a, action.Decrypted, logger)
		}
	}
}

func transmitManagement(a *ap.AP, xport transport.Transport, f *dispatch.ManagementFrame, logger *slog.Logger) {
	bss := a.BSS(f.Addr2)
	if bss == nil {
		return
	}
	if err := xport.Send(f.Encode(bss.NextSequenceControl())); err != nil {
		logger.Warn("sending management frame failed", "error", err)
	}
}

func transmitBeacon(a *ap.AP, xport transport.Transport, f *dispatch.BeaconFrame, logger *slog.Logger) {
	bss := a.BSS(f.Addr2)
	if bss == nil {
		return
	}
	if err := xport.Send(f.Encode(bss.NextSequenceControl())); err != nil {
		logger.Warn("sending beacon/probe-response failed", "error", err)
	}
}

func transmitEAPOL(a *ap.AP, xport transport.Transport, f *dispatch.EAPOLFrame, logger *slog.Logger) {
	bss := a.BSS(f.Addr2)
	if bss == nil {
		return
	}
	if err := xport.Send(f.Encode(bss.NextSequenceControl())); err != nil {
		logger.Warn("sending EAPOL frame failed", "error", err)
	}
}

func deliverUpward(a *ap.AP, dec interface {
	EncodeEthernet() ([]byte, error)
}, logger *slog.Logger) {
	eth, err := dec.EncodeEthernet()
	if err != nil {
		logger.Warn("encoding decrypted frame failed", "error", err)
		return
	}
	// every BSS in this AP shares the same upward-delivery contract;
	// the frame is handed to the Upper of every registered BSS (in
	// practice there is only one).
	a.Each(func(bss *ap.BSS) {
		if bss.Upper != nil {
			bss.Upper.Deliver(eth)
		}
	})
}

// runBeaconLoop transmits a beacon for every registered BSS on a fixed
// interval (spec §4.5).
func runBeaconLoop(ctx context.Context, a *ap.AP, channel uint8, interval time.Duration, xport transport.Transport, logger *slog.Logger) {
	if interval <= 0 {
		interval = dispatch.BeaconInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Each(func(bss *ap.BSS) {
				frame := dispatch.BuildBeaconOrProbeResponse(bss, channel, false)
				if err := xport.Send(frame.Encode(bss.NextSequenceControl())); err != nil {
					logger.Warn("sending beacon failed", "error", err)
				}
			})
		}
	}
}

// resolveBSSID returns the configured BSSID, or derives one from the
// operating interface's hardware address when left empty.
func resolveBSSID(cfg *config.Config) ([6]byte, error) {
	var mac [6]byte
	if cfg.BSSID != "" {
		raw, err := hex.DecodeString(strings.ReplaceAll(cfg.BSSID, ":", ""))
		if err != nil || len(raw) != 6 {
			return mac, fmt.Errorf("invalid BSSID %q", cfg.BSSID)
		}
		copy(mac[:], raw)
		return mac, nil
	}

	iface, err := net.InterfaceByName(cfg.Interface)
	if err != nil {
		return mac, fmt.Errorf("looking up interface %s: %w", cfg.Interface, err)
	}
	if len(iface.HardwareAddr) != 6 {
		return mac, fmt.Errorf("interface %s has no usable hardware address", cfg.Interface)
	}
	copy(mac[:], iface.HardwareAddr)
	return mac, nil
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
