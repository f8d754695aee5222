package feed

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var recordJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// Record is one captured raw frame.
type Record struct {
	Timestamp time.Time `json:"ts"`
	Raw       string    `json:"raw"`
}

// Recorder is an Observer appending every raw frame to a JSONL capture.
type Recorder struct {
	mu  sync.Mutex
	enc *jsoniter.Encoder
	now func() time.Time
	log *slog.Logger
}

// NewRecorder writes records to w.
func NewRecorder(w io.Writer, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{enc: recordJSON.NewEncoder(w), now: time.Now, log: log}
}

func (r *Recorder) OnOpen(Conn)   {}
func (r *Recorder) OnError(error) {}
func (r *Recorder) OnClose(int)   {}

func (r *Recorder) OnMessage(raw []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enc.Encode(Record{Timestamp: r.now().UTC(), Raw: string(raw)}); err != nil {
		r.log.Warn("record frame failed", "err", err)
	}
}

// Replay is a transport playing back a Recorder capture. The url is a file
// path, optionally prefixed with file://. A Speed > 0 scales the recorded
// gaps; Speed <= 0 delivers without delay.
type Replay struct {
	Speed float64
	// OpenFile opens the capture; defaults to os.Open.
	OpenFile func(path string) (io.ReadCloser, error)
}

type replayConn struct {
	*lifecycle
	cancel func()
}

// Open starts playback in the background.
func (t *Replay) Open(ctx context.Context, url string, observers ...Observer) (Conn, error) {
	open := t.OpenFile
	if open == nil {
		open = func(p string) (io.ReadCloser, error) { return os.Open(p) }
	}
	ctx, cancel := context.WithCancel(ctx)
	c := &replayConn{lifecycle: newLifecycle(observers), cancel: cancel}
	go c.run(ctx, strings.TrimPrefix(url, "file://"), open, t.Speed)
	return c, nil
}

func (c *replayConn) run(ctx context.Context, path string, open func(string) (io.ReadCloser, error), speed float64) {
	defer c.cancel()
	f, err := open(path)
	if err != nil {
		c.finish(&TransportError{Op: "dial", Err: err}, CloseAbnormal)
		return
	}
	defer f.Close()
	c.open(c)

	dec := recordJSON.NewDecoder(f)
	var prev time.Time
	for {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			if err == io.EOF {
				c.finish(nil, CloseNormal)
				return
			}
			c.finish(&TransportError{Op: "read", Err: err}, CloseAbnormal)
			return
		}
		if !prev.IsZero() && speed > 0 {
			diff := rec.Timestamp.Sub(prev)
			if speed != 1 {
				diff = time.Duration(float64(diff) / speed)
			}
			if diff > 0 {
				select {
				case <-ctx.Done():
					c.finish(nil, CloseGoingAway)
					return
				case <-time.After(diff):
				}
			}
		}
		if ctx.Err() != nil {
			c.finish(nil, CloseGoingAway)
			return
		}
		c.obs.OnMessage([]byte(rec.Raw))
		prev = rec.Timestamp
	}
}

// Send accepts and discards payloads while playing.
func (c *replayConn) Send([]byte) error {
	if c.State() != Open {
		return ErrNotOpen
	}
	return nil
}

// Close stops playback.
func (c *replayConn) Close() error {
	c.cancel()
	return nil
}
