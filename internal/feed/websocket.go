package feed

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket dials the provider's websocket endpoint.
type WebSocket struct {
	Dialer *websocket.Dialer
	Header http.Header
	// WriteTimeout bounds each Send. Zero means 5s.
	WriteTimeout time.Duration
}

// NewWebSocket returns a transport using the gorilla default dialer.
func NewWebSocket() *WebSocket {
	return &WebSocket{Dialer: websocket.DefaultDialer}
}

type wsConn struct {
	*lifecycle
	ws           *WebSocket
	mu           sync.Mutex
	conn         *websocket.Conn
	closing      bool
	writeTimeout time.Duration
	cancel       context.CancelFunc
}

// Open starts dialing in the background.
func (t *WebSocket) Open(ctx context.Context, url string, observers ...Observer) (Conn, error) {
	wt := t.WriteTimeout
	if wt <= 0 {
		wt = 5 * time.Second
	}
	ctx, cancel := context.WithCancel(ctx)
	c := &wsConn{lifecycle: newLifecycle(observers), ws: t, writeTimeout: wt, cancel: cancel}
	go c.run(ctx, url)
	return c, nil
}

func (c *wsConn) run(ctx context.Context, url string) {
	defer c.cancel()
	dialer := c.ws.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, url, c.ws.Header)
	if err != nil {
		c.mu.Lock()
		closing := c.closing
		c.mu.Unlock()
		if closing {
			c.finish(nil, CloseNormal)
			return
		}
		c.finish(&TransportError{Op: "dial", Err: err}, CloseAbnormal)
		return
	}

	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		conn.Close()
		c.finish(nil, CloseNormal)
		return
	}
	c.conn = conn
	c.mu.Unlock()

	// Unblock ReadMessage when the caller's context ends.
	stop := context.AfterFunc(ctx, func() {
		c.Close()
	})
	defer stop()

	c.open(c)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.finishRead(err)
			conn.Close()
			return
		}
		c.obs.OnMessage(data)
	}
}

func (c *wsConn) finishRead(err error) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		if ce.Code == websocket.CloseNormalClosure || ce.Code == websocket.CloseGoingAway {
			c.finish(nil, ce.Code)
			return
		}
		c.finish(&TransportError{Op: "read", Err: err}, ce.Code)
		return
	}
	c.mu.Lock()
	closing := c.closing
	c.mu.Unlock()
	if closing {
		c.finish(nil, CloseNormal)
		return
	}
	c.finish(&TransportError{Op: "read", Err: err}, CloseAbnormal)
}

// Send writes one text message.
func (c *wsConn) Send(payload []byte) error {
	if c.State() != Open {
		return ErrNotOpen
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.closing {
		return ErrNotOpen
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	return nil
}

// Close sends a close frame and tears the connection down.
func (c *wsConn) Close() error {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		return nil
	}
	c.closing = true
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		c.cancel()
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return conn.Close()
}
