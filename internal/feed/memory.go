package feed

import (
	"context"
	"sync"
)

// Memory is an in-process transport whose connections are driven by the
// caller. It backs tests and anything that produces frames locally.
type Memory struct {
	// AutoOpen accepts every connection inside Open.
	AutoOpen bool

	mu    sync.Mutex
	conns []*MemoryConn
}

// Open registers a new connection in the Connecting state.
func (m *Memory) Open(_ context.Context, url string, observers ...Observer) (Conn, error) {
	c := &MemoryConn{lifecycle: newLifecycle(observers), URL: url}
	m.mu.Lock()
	m.conns = append(m.conns, c)
	m.mu.Unlock()
	if m.AutoOpen {
		c.Accept()
	}
	return c, nil
}

// Last returns the most recently opened connection, or nil.
func (m *Memory) Last() *MemoryConn {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.conns) == 0 {
		return nil
	}
	return m.conns[len(m.conns)-1]
}

// MemoryConn is a connection of the Memory transport.
type MemoryConn struct {
	*lifecycle
	URL string

	mu   sync.Mutex
	sent [][]byte
}

// Accept completes the handshake and fires OnOpen.
func (c *MemoryConn) Accept() {
	if c.State() != Connecting {
		return
	}
	c.open(c)
}

// Deliver hands a raw frame to the observers if the connection is open.
func (c *MemoryConn) Deliver(raw []byte) {
	if c.State() != Open {
		return
	}
	c.obs.OnMessage(raw)
}

// Fail ends the connection with a transport error.
func (c *MemoryConn) Fail(err error) {
	c.finish(&TransportError{Op: "read", Err: err}, CloseAbnormal)
}

// Drop ends the connection as if the peer closed it with code.
func (c *MemoryConn) Drop(code int) {
	c.finish(nil, code)
}

// Send records payload.
func (c *MemoryConn) Send(payload []byte) error {
	if c.State() != Open {
		return ErrNotOpen
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, append([]byte(nil), payload...))
	return nil
}

// Sent returns every payload sent so far.
func (c *MemoryConn) Sent() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.sent...)
}

// Close ends the connection normally.
func (c *MemoryConn) Close() error {
	c.finish(nil, CloseNormal)
	return nil
}
