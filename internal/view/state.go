// Package view holds the dashboard's reconciled view-state and the per-field
// rules that merge sparse telemetry frames into it.
package view

import (
	"maps"
	"time"

	"telemachus-dash/internal/status"
)

// UnknownClock is displayed before the first mission time arrives.
const UnknownClock = "--:--:--"

// Gauge is the last known level of one tracked resource. Percent is only
// meaningful when PercentKnown is set.
type Gauge struct {
	Name         string  `json:"name"`
	Label        string  `json:"label"`
	Current      float64 `json:"current"`
	Max          float64 `json:"max"`
	CurrentKnown bool    `json:"current_known"`
	MaxKnown     bool    `json:"max_known"`
	Percent      int     `json:"percent"`
	PercentKnown bool    `json:"percent_known"`
}

// State is the single reconciled record rendered by the dashboard. Each
// field updates independently.
type State struct {
	MissionTimeSeconds float64           `json:"mission_time_seconds"`
	MissionTimeKnown   bool              `json:"mission_time_known"`
	MissionClock       string            `json:"mission_clock"`
	BodyName           string            `json:"body_name"`
	BodyKnown          bool              `json:"body_known"`
	Resources          map[string]Gauge  `json:"resources"`
	ResourceOrder      []string          `json:"resource_order"`
	GameStatus         status.GameStatus `json:"game_status"`
	Frames             uint64            `json:"frames"`
	DecodeErrors       uint64            `json:"decode_errors"`
	LastFrameAt        time.Time         `json:"last_frame_at"`
}

// NewState returns a state with every field unknown and one empty gauge per
// tracked resource.
func NewState(resources []Resource) State {
	st := State{
		MissionClock: UnknownClock,
		Resources:    make(map[string]Gauge, len(resources)),
		GameStatus:   status.Running,
	}
	for _, r := range resources {
		st.Resources[r.ID] = Gauge{Name: r.Name, Label: r.Label}
		st.ResourceOrder = append(st.ResourceOrder, r.ID)
	}
	return st
}

// Clone returns a deep copy safe to hand to readers.
func (s State) Clone() State {
	s.Resources = maps.Clone(s.Resources)
	s.ResourceOrder = append([]string(nil), s.ResourceOrder...)
	return s
}

// Stale reports whether numeric fields are frozen at their last known value.
func (s State) Stale() bool { return s.GameStatus.Stale() }
