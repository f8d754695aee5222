// Package audio keeps the alert channels: which loops are logically playing,
// which asset each channel uses and the mute preference shared by all of them.
package audio

import (
	"log/slog"
	"slices"
	"sync"

	"telemachus-dash/internal/status"
)

// Player produces sound for a channel until stopped. Stop must rewind so the
// next Start begins from the top of the asset.
type Player interface {
	Start(ch status.Channel, asset string) error
	Stop(ch status.Channel)
}

// Registry tracks active channels. Muting silences the player but keeps the
// channels logically active, so unmuting resumes whatever is still alerting.
type Registry struct {
	mu     sync.Mutex
	assets map[status.Channel]string
	active map[status.Channel]struct{}
	muted  bool
	player Player
	log    *slog.Logger
}

// NewRegistry maps channel names to asset paths. Channels with an empty path
// are silent.
func NewRegistry(assets map[string]string, p Player, muted bool, log *slog.Logger) *Registry {
	if p == nil {
		p = NopPlayer{}
	}
	if log == nil {
		log = slog.Default()
	}
	r := &Registry{
		assets: make(map[status.Channel]string, len(assets)),
		active: make(map[status.Channel]struct{}),
		muted:  muted,
		player: p,
		log:    log,
	}
	for name, path := range assets {
		r.assets[status.Channel(name)] = path
	}
	return r
}

// Play starts looping ch. Silent channels and channels already playing are
// left alone.
func (r *Registry) Play(ch status.Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	asset := r.assets[ch]
	if asset == "" {
		return
	}
	if _, ok := r.active[ch]; ok {
		return
	}
	r.active[ch] = struct{}{}
	if r.muted {
		return
	}
	if err := r.player.Start(ch, asset); err != nil {
		r.log.Warn("audio start failed", "channel", ch, "asset", asset, "err", err)
	}
}

// Stop stops and rewinds ch.
func (r *Registry) Stop(ch status.Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked(ch)
}

// StopAll stops every active channel.
func (r *Registry) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for ch := range r.active {
		r.stopLocked(ch)
	}
}

func (r *Registry) stopLocked(ch status.Channel) {
	if _, ok := r.active[ch]; !ok {
		return
	}
	delete(r.active, ch)
	if !r.muted {
		r.player.Stop(ch)
	}
}

// SetMuted applies the mute preference to every channel, current and future.
func (r *Registry) SetMuted(muted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.muted == muted {
		return
	}
	r.muted = muted
	for ch := range r.active {
		if muted {
			r.player.Stop(ch)
			continue
		}
		if err := r.player.Start(ch, r.assets[ch]); err != nil {
			r.log.Warn("audio resume failed", "channel", ch, "err", err)
		}
	}
}

// ToggleMute flips the preference and returns the new value.
func (r *Registry) ToggleMute() bool {
	r.mu.Lock()
	muted := !r.muted
	r.mu.Unlock()
	r.SetMuted(muted)
	return muted
}

// Muted reports the mute preference.
func (r *Registry) Muted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.muted
}

// Active lists the logically playing channels, sorted.
func (r *Registry) Active() []status.Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]status.Channel, 0, len(r.active))
	for ch := range r.active {
		out = append(out, ch)
	}
	slices.Sort(out)
	return out
}
