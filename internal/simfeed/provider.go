// Package simfeed is a local stand-in for the Telemachus telemetry server:
// it scripts a vessel through a scenario and streams the subscribed values
// over a websocket.
package simfeed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"telemachus-dash/internal/logging"
	"telemachus-dash/internal/scenario"
	"telemachus-dash/internal/telemetry"
)

const (
	chaosGarbleRate = 0.2
	chaosDropRate   = 0.3
)

// Provider owns the simulated game: the vessel, the scenario phase and the
// chaos switch. It is safe for concurrent use.
type Provider struct {
	mu      sync.Mutex
	sc      scenario.Scenario
	phase   scenario.Phase
	inPhase float64
	vessel  *Vessel
	chaos   bool
	rand    *rand.Rand
	tick    time.Duration
	log     *slog.Logger
}

// Snapshot is the provider state exposed for inspection.
type Snapshot struct {
	Scenario string `json:"scenario"`
	Phase    string `json:"phase"`
	Status   int    `json:"status"`
	Vessel   Vessel `json:"vessel"`
	Chaos    bool   `json:"chaos"`
}

// NewProvider starts sc at its first phase. tick is the simulation step used
// by Run.
func NewProvider(sc scenario.Scenario, tick time.Duration, seed int64, log *slog.Logger) (*Provider, error) {
	if err := sc.Check(); err != nil {
		return nil, err
	}
	if tick <= 0 {
		tick = time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	p := &Provider{
		sc:     sc,
		vessel: NewVessel(),
		rand:   rand.New(rand.NewSource(seed)),
		tick:   tick,
		log:    log,
	}
	p.enter(sc.Phases[0])
	return p, nil
}

// Run steps the simulation every tick until ctx is done.
func (p *Provider) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Info("starting provider", "scenario", p.sc.Name, "tick", p.tick)
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.Step(p.tick.Seconds())
		case <-ctx.Done():
			log.Info("stopping provider")
			return
		}
	}
}

// Step advances the game by dt seconds and follows any scenario trigger.
func (p *Provider) Step(dt float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.vessel.Step(dt, p.phase.Status, p.phase.Throttle, p.rand)
	p.inPhase += dt

	events := []scenario.Event{
		{Type: scenario.TimeElapsed, Value: int(p.inPhase)},
		{Type: scenario.FuelSpent, Value: p.vessel.FuelSpent()},
	}
	for _, ev := range events {
		if next, ok := p.sc.NextPhase(p.phase.Name, ev); ok {
			ph, _ := p.sc.Phase(next)
			p.enter(ph)
			return
		}
	}
}

// SetPhase jumps to the named phase.
func (p *Provider) SetPhase(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	ph, ok := p.sc.Phase(name)
	if !ok {
		return fmt.Errorf("scenario %q has no phase %q", p.sc.Name, name)
	}
	p.enter(ph)
	return nil
}

func (p *Provider) enter(ph scenario.Phase) {
	p.phase = ph
	p.inPhase = 0
	if ph.Body != "" {
		p.vessel.Body = ph.Body
	}
	p.log.Info("scenario phase", "phase", ph.Name, "status", ph.Status, "body", p.vessel.Body)
}

// ToggleChaos flips chaos mode on or off and returns the new state. In chaos
// mode frames randomly lose variables or arrive garbled.
func (p *Provider) ToggleChaos() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chaos = !p.chaos
	return p.chaos
}

// Chaos returns whether chaos mode is active.
func (p *Provider) Chaos() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.chaos
}

// Snapshot returns a copy of the provider state.
func (p *Provider) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		Scenario: p.sc.Name,
		Phase:    p.phase.Name,
		Status:   p.phase.Status,
		Vessel:   p.vessel.clone(),
		Chaos:    p.chaos,
	}
}

// Frame returns the current value of every known variable in vars. Unknown
// variables are left out.
func (p *Provider) Frame(vars []telemetry.VariableName) telemetry.Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frameLocked(vars)
}

func (p *Provider) frameLocked(vars []telemetry.VariableName) telemetry.Frame {
	f := make(telemetry.Frame, len(vars))
	for _, v := range vars {
		if val, ok := p.value(v); ok {
			f[v] = val
		}
	}
	return f
}

func (p *Provider) value(v telemetry.VariableName) (any, bool) {
	switch strings.TrimSuffix(string(v), "()") {
	case "v.missionTime":
		return p.vessel.MissionTime, true
	case "v.body":
		return p.vessel.Body, true
	case "p.paused":
		return p.phase.Status, true
	}
	prefix, param, ok := v.Split()
	if !ok {
		return nil, false
	}
	t := p.vessel.Tanks[param]
	if t == nil {
		return nil, false
	}
	switch prefix {
	case "r.resource":
		return t.Amount, true
	case "r.resourceMax":
		return t.Capacity, true
	}
	return nil, false
}

// Payload encodes the frame for vars as sent on the wire, applying chaos.
func (p *Provider) Payload(vars []telemetry.VariableName) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f := p.frameLocked(vars)
	if p.chaos {
		for k := range f {
			if p.rand.Float64() < chaosDropRate {
				delete(f, k)
			}
		}
	}
	b, err := telemetry.Encode(f)
	if err != nil {
		return nil, err
	}
	if p.chaos && p.rand.Float64() < chaosGarbleRate && len(b) > 2 {
		b = b[:len(b)/2]
	}
	return b, nil
}
