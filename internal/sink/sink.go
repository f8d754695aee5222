// Package sink holds the presentation side of the dashboard: everything that
// consumes reconciled view-state, overlay changes and audio channel actions.
package sink

import (
	"telemachus-dash/internal/audio"
	"telemachus-dash/internal/status"
	"telemachus-dash/internal/view"
)

// Action is what to do with an audio channel.
type Action int

const (
	Play Action = iota
	Stop
)

func (a Action) String() string {
	if a == Play {
		return "play"
	}
	return "stop"
}

// Sink consumes presentation events. The State passed to OnViewStateChanged
// is a snapshot owned by the sink.
type Sink interface {
	OnViewStateChanged(view.State)
	OnOverlay(status.Overlay)
	OnOverlayHidden()
	OnAudioChannel(ch status.Channel, action Action)
}

// Multi fans events out to several sinks.
type Multi []Sink

func (m Multi) OnViewStateChanged(st view.State) {
	for _, s := range m {
		s.OnViewStateChanged(st.Clone())
	}
}

func (m Multi) OnOverlay(o status.Overlay) {
	for _, s := range m {
		s.OnOverlay(o)
	}
}

func (m Multi) OnOverlayHidden() {
	for _, s := range m {
		s.OnOverlayHidden()
	}
}

func (m Multi) OnAudioChannel(ch status.Channel, action Action) {
	for _, s := range m {
		s.OnAudioChannel(ch, action)
	}
}

// Audio drives an audio.Registry from channel actions and ignores the rest.
type Audio struct {
	Registry *audio.Registry
}

func (a Audio) OnViewStateChanged(view.State) {}
func (a Audio) OnOverlay(status.Overlay)      {}
func (a Audio) OnOverlayHidden()              {}

func (a Audio) OnAudioChannel(ch status.Channel, action Action) {
	if action == Play {
		a.Registry.Play(ch)
		return
	}
	a.Registry.Stop(ch)
}
