package sink

import (
	"slices"
	"sync"

	"telemachus-dash/internal/status"
	"telemachus-dash/internal/view"
)

// Snapshot is everything a reader needs to render the dashboard.
type Snapshot struct {
	State    view.State       `json:"state"`
	Overlay  *status.Overlay  `json:"overlay,omitempty"`
	Channels []status.Channel `json:"channels"`
	Muted    bool             `json:"muted"`
	Stale    bool             `json:"stale"`
}

// Store keeps the latest presentation state for concurrent readers.
type Store struct {
	mu       sync.RWMutex
	state    view.State
	overlay  *status.Overlay
	channels map[status.Channel]struct{}
	muted    func() bool
}

// NewStore starts from initial. muted reports the audio mute preference and
// may be nil.
func NewStore(initial view.State, muted func() bool) *Store {
	return &Store{state: initial.Clone(), channels: make(map[status.Channel]struct{}), muted: muted}
}

func (s *Store) OnViewStateChanged(st view.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
}

func (s *Store) OnOverlay(o status.Overlay) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlay = &o
}

func (s *Store) OnOverlayHidden() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlay = nil
}

func (s *Store) OnAudioChannel(ch status.Channel, action Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if action == Play {
		s.channels[ch] = struct{}{}
		return
	}
	delete(s.channels, ch)
}

// Snapshot returns a copy of the current presentation state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{State: s.state.Clone(), Stale: s.state.Stale(), Channels: []status.Channel{}}
	if s.overlay != nil {
		o := *s.overlay
		snap.Overlay = &o
	}
	for ch := range s.channels {
		snap.Channels = append(snap.Channels, ch)
	}
	slices.Sort(snap.Channels)
	if s.muted != nil {
		snap.Muted = s.muted()
	}
	return snap
}
