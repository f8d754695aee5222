package scenario

// BuiltIn returns predefined scenarios covering every alert the dashboard
// knows about.
func BuiltIn() map[string]Scenario {
	return map[string]Scenario{
		"nominal": {
			Name:        "Nominal",
			Description: "A quiet orbit around Kerbin with a slow burn.",
			Phases: []Phase{
				{Name: "orbit", Status: 0, Body: "Kerbin", Throttle: 0.002},
			},
		},
		"pause-cycle": {
			Name:        "Pause cycle",
			Description: "The player pauses the game every few seconds.",
			Phases: []Phase{
				{
					Name:     "flying",
					Status:   0,
					Body:     "Kerbin",
					Throttle: 0.005,
					Triggers: []Trigger{{Event: TimeElapsed, Value: 15, Next: "paused"}},
				},
				{
					Name:     "paused",
					Status:   1,
					Body:     "Kerbin",
					Triggers: []Trigger{{Event: TimeElapsed, Value: 5, Next: "flying"}},
				},
			},
		},
		"blackout": {
			Name:        "Blackout",
			Description: "The vessel loses power, then its data link, and recovers.",
			Phases: []Phase{
				{
					Name:     "ascent",
					Status:   0,
					Body:     "Kerbin",
					Throttle: 0.01,
					Triggers: []Trigger{{Event: TimeElapsed, Value: 20, Next: "outage"}},
				},
				{
					Name:        "outage",
					Description: "Batteries are flat.",
					Status:      2,
					Body:        "Kerbin",
					Triggers:    []Trigger{{Event: TimeElapsed, Value: 10, Next: "offline"}},
				},
				{
					Name:        "offline",
					Description: "No antenna can reach the KSC.",
					Status:      3,
					Body:        "Kerbin",
					Triggers:    []Trigger{{Event: TimeElapsed, Value: 10, Next: "ascent"}},
				},
			},
		},
		"tour": {
			Name:        "Tour",
			Description: "Walks through every status code, including one the dashboard does not know.",
			Phases: []Phase{
				{Name: "running", Status: 0, Body: "Kerbin", Throttle: 0.01, Triggers: []Trigger{{Event: TimeElapsed, Value: 5, Next: "paused"}}},
				{Name: "paused", Status: 1, Body: "Kerbin", Triggers: []Trigger{{Event: TimeElapsed, Value: 5, Next: "power"}}},
				{Name: "power", Status: 2, Body: "Mun", Triggers: []Trigger{{Event: TimeElapsed, Value: 5, Next: "offline"}}},
				{Name: "offline", Status: 3, Body: "Mun", Triggers: []Trigger{{Event: TimeElapsed, Value: 5, Next: "no-telemetry"}}},
				{Name: "no-telemetry", Status: 4, Body: "Minmus", Triggers: []Trigger{{Event: TimeElapsed, Value: 5, Next: "garbled"}}},
				{Name: "garbled", Status: 7, Body: "Minmus", Triggers: []Trigger{{Event: TimeElapsed, Value: 5, Next: "running"}}},
			},
		},
		"mun-transfer": {
			Name:        "Mun transfer",
			Description: "Burns for the Mun and arrives once enough fuel is spent.",
			Phases: []Phase{
				{
					Name:     "transfer-burn",
					Status:   0,
					Body:     "Kerbin",
					Throttle: 0.02,
					Triggers: []Trigger{{Event: FuelSpent, Value: 40, Next: "coast"}},
				},
				{
					Name:     "coast",
					Status:   0,
					Body:     "Mun",
					Triggers: []Trigger{{Event: TimeElapsed, Value: 30, Next: "low-power"}},
				},
				{
					Name:   "low-power",
					Status: 2,
					Body:   "Mun",
				},
			},
		},
	}
}
