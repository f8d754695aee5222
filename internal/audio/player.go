package audio

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"telemachus-dash/internal/status"
)

// NopPlayer makes no sound.
type NopPlayer struct{}

func (NopPlayer) Start(status.Channel, string) error { return nil }
func (NopPlayer) Stop(status.Channel)                {}

// loopPlayer runs one goroutine per channel calling once until stopped.
type loopPlayer struct {
	once  func(ctx context.Context, asset string) error
	pause time.Duration

	mu    sync.Mutex
	loops map[status.Channel]*loop
}

type loop struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (p *loopPlayer) Start(ch status.Channel, asset string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loops == nil {
		p.loops = make(map[status.Channel]*loop)
	}
	if _, ok := p.loops[ch]; ok {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	l := &loop{cancel: cancel, done: make(chan struct{})}
	p.loops[ch] = l
	go func() {
		defer close(l.done)
		for ctx.Err() == nil {
			start := time.Now()
			err := p.once(ctx, asset)
			wait := p.pause
			// A player that fails straight away must not spin.
			if err != nil && time.Since(start) < time.Second {
				wait = time.Second
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}()
	return nil
}

func (p *loopPlayer) Stop(ch status.Channel) {
	p.mu.Lock()
	l, ok := p.loops[ch]
	delete(p.loops, ch)
	p.mu.Unlock()
	if !ok {
		return
	}
	l.cancel()
	<-l.done
}

// ExecPlayer plays an asset by running an external command (for example
// "paplay" or "afplay --volume 2") with the asset path as last argument,
// restarting it while the channel is active.
type ExecPlayer struct {
	loopPlayer
}

// NewExecPlayer parses command into program and leading arguments.
func NewExecPlayer(command string) (*ExecPlayer, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty player command")
	}
	p := &ExecPlayer{}
	p.once = func(ctx context.Context, asset string) error {
		args := append(fields[1:len(fields):len(fields)], asset)
		return exec.CommandContext(ctx, fields[0], args...).Run()
	}
	return p, nil
}

// BellPlayer rings the terminal bell on w every interval while a channel is
// active. It ignores the asset.
type BellPlayer struct {
	loopPlayer
}

// NewBellPlayer returns a BellPlayer writing to w.
func NewBellPlayer(w io.Writer, interval time.Duration) *BellPlayer {
	var mu sync.Mutex
	p := &BellPlayer{}
	p.pause = interval
	p.once = func(context.Context, string) error {
		mu.Lock()
		defer mu.Unlock()
		_, err := io.WriteString(w, "\a")
		return err
	}
	return p
}
