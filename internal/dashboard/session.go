// Package dashboard wires one dashboard instance: the feed connection, the
// subscription, decoding, reconciliation, the status machine and the sink.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"telemachus-dash/internal/feed"
	"telemachus-dash/internal/sink"
	"telemachus-dash/internal/status"
	"telemachus-dash/internal/telemetry"
	"telemachus-dash/internal/view"
)

// ErrSubscribe marks a Run that failed because the subscription could not be
// sent on the open connection.
var ErrSubscribe = errors.New("subscribe failed")

// Options are the collaborators of a Session. Transport, Registry,
// Reconciler, Machine and Sink are required.
type Options struct {
	URL        string
	Transport  feed.Transport
	Registry   *telemetry.Registry
	Reconciler *view.Reconciler
	Machine    *status.Machine
	// StatusVar is the variable carrying the in-band status code.
	StatusVar telemetry.VariableName
	Resources []view.Resource
	Sink      sink.Sink
	// Taps observe the raw connection alongside the session, e.g. a recorder.
	Taps    []feed.Observer
	Metrics *Metrics
	Log     *slog.Logger
}

// Session owns the view-state of one dashboard. Frames are processed one at
// a time in arrival order; the sink only ever receives copies.
type Session struct {
	id        uuid.UUID
	url       string
	transport feed.Transport
	registry  *telemetry.Registry
	rc        *view.Reconciler
	machine   *status.Machine
	statusVar telemetry.VariableName
	sink      sink.Sink
	taps      []feed.Observer
	metrics   *Metrics
	log       *slog.Logger
	now       func() time.Time

	mu     sync.Mutex
	state  view.State
	conn   feed.Conn
	runErr error
}

// New validates opts and returns an idle session in the Running state.
func New(opts Options) (*Session, error) {
	switch {
	case opts.Transport == nil:
		return nil, errors.New("dashboard: transport is required")
	case opts.Registry == nil:
		return nil, errors.New("dashboard: registry is required")
	case opts.Reconciler == nil:
		return nil, errors.New("dashboard: reconciler is required")
	case opts.Machine == nil:
		return nil, errors.New("dashboard: status machine is required")
	case opts.Sink == nil:
		return nil, errors.New("dashboard: sink is required")
	}
	id := uuid.New()
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	st := view.NewState(opts.Resources)
	st.GameStatus = opts.Machine.Current()
	return &Session{
		id:        id,
		url:       opts.URL,
		transport: opts.Transport,
		registry:  opts.Registry,
		rc:        opts.Reconciler,
		machine:   opts.Machine,
		statusVar: opts.StatusVar,
		sink:      opts.Sink,
		taps:      opts.Taps,
		metrics:   opts.Metrics,
		log:       log.With("session", id.String()),
		now:       time.Now,
		state:     st,
	}, nil
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id.String() }

// Snapshot returns a copy of the current view-state.
func (s *Session) Snapshot() view.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Status returns the current game status.
func (s *Session) Status() status.GameStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Current()
}

// Run opens one feed connection and processes it until the connection
// closes or ctx is cancelled. It does not reconnect. The error is non-nil
// when the connection could not be opened or the subscription could not be
// sent; losing the connection afterwards is reported through the status
// machine, not as an error.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	s.runErr = nil
	s.mu.Unlock()

	s.log.Info("opening feed", "url", s.url)
	observers := append([]feed.Observer{s}, s.taps...)
	conn, err := s.transport.Open(ctx, s.url, observers...)
	if err != nil {
		return fmt.Errorf("open feed: %w", err)
	}
	select {
	case <-conn.Done():
	case <-ctx.Done():
		_ = conn.Close()
		<-conn.Done()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runErr
}

// Resubscribe swaps the subscription set on the open connection.
func (s *Session) Resubscribe(vars []telemetry.VariableName) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil || conn.State() != feed.Open {
		return feed.ErrNotOpen
	}
	msg, err := s.registry.Replace(vars)
	if err != nil {
		return err
	}
	if err := conn.Send(msg); err != nil {
		return fmt.Errorf("resubscribe: %w", err)
	}
	s.log.Info("resubscribed", "variables", len(vars))
	return nil
}

// OnOpen sends the subscription. A failed send closes the connection and
// fails Run.
func (s *Session) OnOpen(c feed.Conn) {
	s.mu.Lock()
	s.conn = c
	s.mu.Unlock()
	s.metrics.open(true)

	req, err := s.registry.Request()
	if err == nil {
		err = c.Send(req)
	}
	if err != nil {
		s.log.Error("subscribe failed", "err", err)
		s.mu.Lock()
		s.runErr = fmt.Errorf("%w: %w", ErrSubscribe, err)
		s.mu.Unlock()
		_ = c.Close()
		return
	}
	s.log.Info("subscribed", "variables", len(s.registry.Variables()), "rate_ms", s.registry.Rate())
}

// OnMessage decodes and applies one frame. Malformed frames are counted and
// dropped.
func (s *Session) OnMessage(raw []byte) {
	f, err := telemetry.Decode(raw)
	if err != nil {
		s.metrics.decodeError()
		s.mu.Lock()
		s.state.DecodeErrors++
		s.mu.Unlock()
		s.log.Warn("dropping malformed frame", "err", err)
		return
	}
	s.metrics.frame()

	s.mu.Lock()
	s.rc.Reconcile(&s.state, f)
	s.state.Frames++
	s.state.LastFrameAt = s.now()
	var tr status.Transition
	if v, ok := f[s.statusVar]; ok {
		tr = s.machine.Code(v)
		s.state.GameStatus = s.machine.Current()
	}
	st := s.state.Clone()
	s.mu.Unlock()

	s.apply(tr)
	s.sink.OnViewStateChanged(st)
}

func (s *Session) OnError(err error) {
	s.log.Error("feed error", "err", err)
	s.lost()
}

func (s *Session) OnClose(code int) {
	s.log.Info("feed closed", "code", code)
	s.metrics.open(false)
	s.lost()
}

func (s *Session) lost() {
	s.mu.Lock()
	tr := s.machine.Lost()
	s.state.GameStatus = s.machine.Current()
	st := s.state.Clone()
	s.mu.Unlock()
	if !tr.Changed {
		return
	}
	s.apply(tr)
	s.sink.OnViewStateChanged(st)
}

// apply hands transition effects to the sink: stops first, then the overlay,
// then the new channel.
func (s *Session) apply(tr status.Transition) {
	if !tr.Changed {
		return
	}
	s.log.Info("status changed", "from", tr.From, "to", tr.To)
	s.metrics.transition(tr.To)
	for _, ch := range tr.Stop {
		s.sink.OnAudioChannel(ch, sink.Stop)
	}
	if tr.Hide {
		s.sink.OnOverlayHidden()
	}
	if tr.Show != nil {
		s.sink.OnOverlay(*tr.Show)
	}
	if tr.Play != "" {
		s.sink.OnAudioChannel(tr.Play, sink.Play)
	}
}
