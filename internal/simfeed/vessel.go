package simfeed

import (
	"math"
	"math/rand"
)

// Stock status codes the provider reacts to.
const (
	codePaused      = 1
	codePowerOutage = 2
)

// Tank is one vessel resource.
type Tank struct {
	Amount   float64 `json:"amount"`
	Capacity float64 `json:"capacity"`
}

func (t *Tank) add(delta float64) {
	t.Amount = math.Max(0, math.Min(t.Capacity, t.Amount+delta))
}

// Vessel is the simulated craft.
type Vessel struct {
	MissionTime float64          `json:"mission_time"`
	Body        string           `json:"body"`
	Tanks       map[string]*Tank `json:"tanks"`
}

// NewVessel returns a fully fuelled vessel on the launch pad.
func NewVessel() *Vessel {
	return &Vessel{
		Body: "Kerbin",
		Tanks: map[string]*Tank{
			"LiquidFuel":     {Amount: 360, Capacity: 360},
			"Oxidizer":       {Amount: 440, Capacity: 440},
			"ElectricCharge": {Amount: 150, Capacity: 150},
			"MonoPropellant": {Amount: 30, Capacity: 30},
		},
	}
}

// Step advances the vessel by dt seconds under the given status code and
// throttle. Paused games freeze everything.
func (v *Vessel) Step(dt float64, code int, throttle float64, rnd *rand.Rand) {
	if code == codePaused {
		return
	}
	v.MissionTime += dt

	for _, name := range []string{"LiquidFuel", "Oxidizer"} {
		if t := v.Tanks[name]; t != nil {
			t.add(-throttle * t.Capacity * dt)
		}
	}
	if ec := v.Tanks["ElectricCharge"]; ec != nil {
		if code == codePowerOutage {
			ec.add(-0.05 * ec.Capacity * dt)
		} else {
			ec.add((0.01 + (rnd.Float64()-0.5)*0.01) * ec.Capacity * dt)
		}
	}
}

// FuelSpent is the percentage of liquid fuel burned so far.
func (v *Vessel) FuelSpent() int {
	t := v.Tanks["LiquidFuel"]
	if t == nil || t.Capacity <= 0 {
		return 0
	}
	return int(math.Round((1 - t.Amount/t.Capacity) * 100))
}

func (v *Vessel) clone() Vessel {
	out := Vessel{MissionTime: v.MissionTime, Body: v.Body, Tanks: make(map[string]*Tank, len(v.Tanks))}
	for k, t := range v.Tanks {
		c := *t
		out.Tanks[k] = &c
	}
	return out
}
