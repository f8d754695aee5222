package simfeed

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"

	"telemachus-dash/internal/telemetry"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultRateMs = 500
	minRateMs     = 10
	writeWait     = 5 * time.Second
)

// Server streams provider frames to websocket clients using the Telemachus
// subscription protocol.
type Server struct {
	provider *Provider
	upgrader websocket.Upgrader
	log      *slog.Logger
	clients  atomic.Int32
}

// NewServer serves p.
func NewServer(p *Provider, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		provider: p,
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		log:      log,
	}
}

// Handler mounts the datalink and the control endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/datalink", s)
	mux.HandleFunc("POST /toggle-chaos", s.handleToggleChaos)
	mux.HandleFunc("POST /phase", s.handlePhase)
	mux.HandleFunc("GET /vessel", s.handleVessel)
	return mux
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int { return int(s.clients.Load()) }

// ToggleChaos flips the provider's chaos mode.
func (s *Server) ToggleChaos() bool { return s.provider.ToggleChaos() }

// subscription is one client control message.
type subscription struct {
	Add    []telemetry.VariableName `json:"+"`
	Remove []telemetry.VariableName `json:"-"`
	Rate   int                      `json:"rate"`
}

func (sub subscription) apply(vars []telemetry.VariableName) []telemetry.VariableName {
	var out []telemetry.VariableName
	for _, v := range vars {
		if !slices.Contains(sub.Remove, v) {
			out = append(out, v)
		}
	}
	for _, v := range sub.Add {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// ServeHTTP upgrades the request and streams frames until the client leaves.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer c.Close()
	s.clients.Add(1)
	defer s.clients.Add(-1)
	log := s.log.With("remote", r.RemoteAddr)
	log.Info("client connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	subs := make(chan subscription)
	go s.readLoop(ctx, cancel, c, subs, log)
	s.writeLoop(ctx, c, subs, log)
	log.Info("client disconnected")
}

func (s *Server) readLoop(ctx context.Context, cancel context.CancelFunc, c *websocket.Conn, subs chan<- subscription, log *slog.Logger) {
	defer cancel()
	for {
		_, msg, err := c.ReadMessage()
		if err != nil {
			return
		}
		var sub subscription
		if err := json.Unmarshal(msg, &sub); err != nil {
			log.Warn("ignoring malformed control message", "err", err)
			continue
		}
		select {
		case subs <- sub:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, c *websocket.Conn, subs <-chan subscription, log *slog.Logger) {
	var vars []telemetry.VariableName
	ticker := time.NewTicker(defaultRateMs * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = c.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(time.Second))
			return
		case sub := <-subs:
			vars = sub.apply(vars)
			if sub.Rate > 0 {
				ticker.Reset(time.Duration(max(sub.Rate, minRateMs)) * time.Millisecond)
			}
			log.Debug("subscription updated", "variables", len(vars), "rate_ms", sub.Rate)
		case <-ticker.C:
			if len(vars) == 0 {
				continue
			}
			payload, err := s.provider.Payload(vars)
			if err != nil {
				log.Error("encode frame", "err", err)
				continue
			}
			_ = c.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Warn("write failed", "err", err)
				return
			}
		}
	}
}

func (s *Server) handleToggleChaos(w http.ResponseWriter, r *http.Request) {
	state := s.provider.ToggleChaos()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"chaos": state})
}

func (s *Server) handlePhase(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if err := s.provider.SetPhase(name); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleVessel(w http.ResponseWriter, r *http.Request) {
	snap := s.provider.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Snapshot
		Clients int `json:"clients"`
	}{snap, s.Clients()})
}
