package audio

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telemachus-dash/internal/logging"
	"telemachus-dash/internal/status"
)

type recordingPlayer struct {
	mu    sync.Mutex
	calls []string
}

func (p *recordingPlayer) Start(ch status.Channel, asset string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "start "+string(ch)+" "+asset)
	return nil
}

func (p *recordingPlayer) Stop(ch status.Channel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "stop "+string(ch))
}

func newRegistry(p Player, muted bool) *Registry {
	return NewRegistry(map[string]string{
		"paused":  "",
		"power":   "C4.wav",
		"offline": "A4.wav",
	}, p, muted, logging.Discard())
}

func TestPlayAndStop(t *testing.T) {
	p := &recordingPlayer{}
	r := newRegistry(p, false)
	r.Play(status.ChannelPower)
	r.Play(status.ChannelPower)
	assert.Equal(t, []status.Channel{status.ChannelPower}, r.Active())
	r.Stop(status.ChannelPower)
	r.Stop(status.ChannelPower)
	assert.Empty(t, r.Active())
	assert.Equal(t, []string{"start power C4.wav", "stop power"}, p.calls)
}

func TestSilentChannelIsNoOp(t *testing.T) {
	p := &recordingPlayer{}
	r := newRegistry(p, false)
	r.Play(status.ChannelPaused)
	r.Play(status.ChannelNoTelemetry)
	assert.Empty(t, r.Active())
	assert.Empty(t, p.calls)
}

func TestMuteAppliesToCurrentAndFuture(t *testing.T) {
	p := &recordingPlayer{}
	r := newRegistry(p, false)
	r.Play(status.ChannelPower)

	assert.True(t, r.ToggleMute())
	r.Play(status.ChannelOffline)
	assert.Equal(t, []status.Channel{status.ChannelOffline, status.ChannelPower}, r.Active())
	assert.Equal(t, []string{"start power C4.wav", "stop power"}, p.calls)

	r.Stop(status.ChannelPower)
	assert.False(t, r.ToggleMute())
	assert.Equal(t, []string{"start power C4.wav", "stop power", "start offline A4.wav"}, p.calls)
}

func TestStopAll(t *testing.T) {
	p := &recordingPlayer{}
	r := newRegistry(p, true)
	r.Play(status.ChannelPower)
	r.Play(status.ChannelOffline)
	r.StopAll()
	assert.Empty(t, r.Active())
	assert.Empty(t, p.calls, "muted registry never reaches the player")
	assert.True(t, r.Muted())
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestBellPlayerRingsUntilStopped(t *testing.T) {
	out := &syncBuffer{}
	p := NewBellPlayer(out, 5*time.Millisecond)
	require.NoError(t, p.Start(status.ChannelPower, ""))
	require.Eventually(t, func() bool { return strings.Count(out.String(), "\a") >= 2 }, time.Second, time.Millisecond)
	p.Stop(status.ChannelPower)
	n := strings.Count(out.String(), "\a")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, strings.Count(out.String(), "\a"))
}

func TestExecPlayerRejectsEmptyCommand(t *testing.T) {
	_, err := NewExecPlayer("  ")
	assert.Error(t, err)
}
