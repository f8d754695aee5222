package admin

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"telemachus-dash/internal/feed"
	"telemachus-dash/internal/sink"
	"telemachus-dash/internal/telemetry"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Snapshotter provides the dashboard state to render.
type Snapshotter interface {
	Snapshot() sink.Snapshot
}

// Subscriber swaps the variables the feed sends, normally a
// *dashboard.Session.
type Subscriber interface {
	Resubscribe(vars []telemetry.VariableName) error
}

// Server is the local web dashboard.
type Server struct {
	Title string

	// Subscriber enables POST /subscribe when set.
	Subscriber Subscriber

	store    Snapshotter
	muter    sink.Muter
	gatherer prometheus.Gatherer
	tpl      *template.Template
	log      *slog.Logger
	now      func() time.Time
}

//go:embed templates/index.html
var content embed.FS

// NewServer serves store. muter and gatherer may be nil, which disables
// /mute and /metrics.
func NewServer(store Snapshotter, muter sink.Muter, gatherer prometheus.Gatherer, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	return &Server{
		Title:    "KSP Telemetry",
		store:    store,
		muter:    muter,
		gatherer: gatherer,
		tpl:      tpl,
		log:      log,
		now:      time.Now,
	}
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("POST /mute", s.handleMute)
	mux.HandleFunc("POST /subscribe", s.handleSubscribe)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// Start listens on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve handles connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	defer stop()
	s.log.Info("web dashboard listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Title string
		Snap  sink.Snapshot
	}{
		Title: s.Title,
		Snap:  s.store.Snapshot(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.Execute(w, data); err != nil {
		s.log.Error("render index", "err", err)
	}
}

type stateResponse struct {
	sink.Snapshot
	WallClock string `json:"wall_clock"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, stateResponse{Snapshot: s.store.Snapshot(), WallClock: s.now().Format(time.TimeOnly)})
}

func (s *Server) handleMute(w http.ResponseWriter, r *http.Request) {
	if s.muter == nil {
		http.Error(w, "audio not available", http.StatusNotFound)
		return
	}
	muted := s.muter.ToggleMute()
	s.log.Info("mute toggled", "muted", muted)
	writeJSON(w, map[string]any{"muted": muted})
}

type subscribeRequest struct {
	Variables []telemetry.VariableName `json:"variables"`
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	if s.Subscriber == nil {
		http.Error(w, "subscription changes not available", http.StatusNotFound)
		return
	}
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return
	}
	err := s.Subscriber.Resubscribe(req.Variables)
	switch {
	case errors.Is(err, telemetry.ErrNoVariables):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, feed.ErrNotOpen):
		http.Error(w, "feed is not connected", http.StatusConflict)
		return
	case err != nil:
		s.log.Error("resubscribe failed", "err", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, map[string]any{"variables": req.Variables})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	writeJSON(w, map[string]any{
		"status":      "ok",
		"game_status": snap.State.GameStatus,
		"frames":      snap.State.Frames,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
