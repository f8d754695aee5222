// Package scenario scripts the fake telemetry provider: which status code it
// reports, which body the vessel orbits and how hard it burns, phase by phase.
package scenario

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"telemachus-dash/internal/config"
)

//go:embed schema.cue
var schema []byte

// Scenario defines ordered phases and an overall description. The first
// phase is where playback starts.
type Scenario struct {
	Name        string  `yaml:"name,omitempty"`
	Description string  `yaml:"description,omitempty"`
	Phases      []Phase `yaml:"phases"`
}

// Phase is a stretch of play with a fixed status code and body. Throttle is
// the fraction of full fuel burned per second.
type Phase struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Status      int       `yaml:"status"`
	Body        string    `yaml:"body,omitempty"`
	Throttle    float64   `yaml:"throttle,omitempty"`
	Triggers    []Trigger `yaml:"triggers,omitempty"`
}

// Trigger moves the scenario to another phase once an event reaches Value.
type Trigger struct {
	Event string `yaml:"event"`
	Value int    `yaml:"value"`
	Next  string `yaml:"next"`
}

// Event types understood by the provider.
const (
	// TimeElapsed counts whole seconds spent in the current phase.
	TimeElapsed = "time_elapsed"
	// FuelSpent is the percentage of liquid fuel consumed so far.
	FuelSpent = "fuel_spent"
)

// Event represents a runtime occurrence that may advance the scenario.
type Event struct {
	Type  string
	Value int
}

// Load reads a YAML scenario definition from disk and validates it.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	if err := config.ValidateDefinition(path, b, schema, "#Scenario"); err != nil {
		return nil, err
	}
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Check(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Check verifies phase names are unique and every trigger targets a phase.
func (s *Scenario) Check() error {
	if len(s.Phases) == 0 {
		return fmt.Errorf("scenario %q has no phases", s.Name)
	}
	seen := make(map[string]struct{}, len(s.Phases))
	for _, p := range s.Phases {
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("scenario %q: duplicate phase %q", s.Name, p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	for _, p := range s.Phases {
		for _, tr := range p.Triggers {
			if _, ok := seen[tr.Next]; !ok {
				return fmt.Errorf("scenario %q: phase %q triggers unknown phase %q", s.Name, p.Name, tr.Next)
			}
		}
	}
	return nil
}

// Phase returns the phase called name.
func (s *Scenario) Phase(name string) (Phase, bool) {
	for _, p := range s.Phases {
		if p.Name == name {
			return p, true
		}
	}
	return Phase{}, false
}

// NextPhase returns the name of the next phase given the current phase and event.
// If no trigger matches, ok will be false.
func (s *Scenario) NextPhase(current string, ev Event) (next string, ok bool) {
	for _, p := range s.Phases {
		if p.Name != current {
			continue
		}
		for _, tr := range p.Triggers {
			if tr.Event == ev.Type && ev.Value >= tr.Value {
				return tr.Next, true
			}
		}
	}
	return "", false
}
