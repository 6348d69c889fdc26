// Package status exposes an HTTP status surface over the running access
// point: health, Prometheus metrics, associated stations, and a
// WebSocket feed of lifecycle events.
package status

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/wmapap/wmap-ap/internal/ap"
)

// Server serves the status HTTP surface.
type Server struct {
	Addr   string
	AP     *ap.AP
	Hub    *Hub
	logger *slog.Logger
	srv    *http.Server
}

// NewServer returns a Server bound to addr. A nil logger falls back to
// slog.Default().
func NewServer(addr string, a *ap.AP, hub *Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{Addr: addr, AP: a, Hub: hub, logger: logger}
}

type stationView struct {
	MAC       string `json:"mac"`
	AID       uint16 `json:"aid"`
	State     string `json:"state"`
	Associated bool  `json:"associated"`
}

type bssView struct {
	BSSID    string        `json:"bssid"`
	SSID     string        `json:"ssid"`
	Stations []stationView `json:"stations"`
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/stations", s.handleStations).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.Hub.HandleWebSocket)

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	var views []bssView
	s.AP.Each(func(b *ap.BSS) {
		view := bssView{BSSID: macString(b.BSSID), SSID: b.SSID}
		b.ForEachStation(func(sta *ap.Station) {
			view.Stations = append(view.Stations, stationView{
				MAC:        macString(sta.MAC),
				AID:        sta.AID,
				State:      sta.State.String(),
				Associated: sta.Associated,
			})
		})
		views = append(views, view)
	})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(views)
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

// Run starts the HTTP server and blocks until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	instrumented := otelhttp.NewHandler(s.routes(), "wmap-ap-status")
	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           instrumented,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("status server shutdown", "error", err)
		}
	}()

	s.logger.Info("status server listening", "addr", s.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
