// Package feed owns the streaming connection to the telemetry provider and
// delivers its lifecycle events to observers.
package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrNotOpen is returned by Send on a connection that is not open.
var ErrNotOpen = errors.New("feed connection is not open")

// Close codes reported to OnClose, following the websocket numbering.
const (
	CloseNormal    = 1000
	CloseGoingAway = 1001
	CloseAbnormal  = 1006
)

// State is the lifecycle of one connection: Connecting, then Open, then
// Closed. Closed is terminal.
type State int32

const (
	Connecting State = iota
	Open
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// TransportError wraps a dial or read failure.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("feed %s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// Observer receives connection events. Events for one connection are
// delivered from a single goroutine in order: OnOpen, any number of
// OnMessage, then optionally OnError, and finally exactly one OnClose.
type Observer interface {
	OnOpen(c Conn)
	OnMessage(raw []byte)
	OnError(err error)
	OnClose(code int)
}

// Conn is one physical connection to the feed.
type Conn interface {
	State() State
	// Send fails with ErrNotOpen unless the connection is Open.
	Send(payload []byte) error
	// Close requests an orderly shutdown. OnClose still fires.
	Close() error
	// Done is closed after OnClose has been delivered.
	Done() <-chan struct{}
}

// Transport opens connections. Open returns immediately with a Connecting
// connection; connection and read errors arrive through the observers.
type Transport interface {
	Open(ctx context.Context, url string, observers ...Observer) (Conn, error)
}

// Observers fans events out to several observers in registration order.
type Observers []Observer

func (o Observers) OnOpen(c Conn) {
	for _, x := range o {
		x.OnOpen(c)
	}
}

func (o Observers) OnMessage(raw []byte) {
	for _, x := range o {
		x.OnMessage(raw)
	}
}

func (o Observers) OnError(err error) {
	for _, x := range o {
		x.OnError(err)
	}
}

func (o Observers) OnClose(code int) {
	for _, x := range o {
		x.OnClose(code)
	}
}

// lifecycle is the state shared by every Conn implementation.
type lifecycle struct {
	state     atomic.Int32
	done      chan struct{}
	closeOnce sync.Once
	obs       Observers
}

func newLifecycle(obs []Observer) *lifecycle {
	return &lifecycle{done: make(chan struct{}), obs: obs}
}

func (l *lifecycle) State() State          { return State(l.state.Load()) }
func (l *lifecycle) Done() <-chan struct{} { return l.done }

func (l *lifecycle) open(c Conn) {
	l.state.Store(int32(Open))
	l.obs.OnOpen(c)
}

// finish moves to Closed and delivers the terminal events once.
func (l *lifecycle) finish(err error, code int) {
	l.closeOnce.Do(func() {
		l.state.Store(int32(Closed))
		if err != nil {
			l.obs.OnError(err)
		}
		l.obs.OnClose(code)
		close(l.done)
	})
}
