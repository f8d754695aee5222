package scenario

import "testing"

func TestScenarioTransition(t *testing.T) {
	s := Scenario{
		Phases: []Phase{{
			Name:     "burn",
			Triggers: []Trigger{{Event: FuelSpent, Value: 10, Next: "coast"}},
		}, {
			Name: "coast",
		}},
	}

	if _, ok := s.NextPhase("burn", Event{Type: FuelSpent, Value: 9}); ok {
		t.Fatalf("expected no transition below the trigger value")
	}
	next, ok := s.NextPhase("burn", Event{Type: FuelSpent, Value: 10})
	if !ok || next != "coast" {
		t.Fatalf("expected transition to coast, got %s", next)
	}
	if _, ok := s.NextPhase("burn", Event{Type: TimeElapsed, Value: 100}); ok {
		t.Fatalf("unexpected transition on unrelated event")
	}
}

func TestLoadScenario(t *testing.T) {
	sc, err := Load("testdata/simple.yaml")
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	if sc.Name != "example" {
		t.Fatalf("unexpected name %s", sc.Name)
	}
	if sc.Description != "basic test scenario" {
		t.Fatalf("unexpected description %s", sc.Description)
	}
	if len(sc.Phases) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(sc.Phases))
	}
	if sc.Phases[1].Status != 1 {
		t.Fatalf("unexpected status %d", sc.Phases[1].Status)
	}
	if sc.Phases[0].Throttle != 0.01 {
		t.Fatalf("unexpected throttle %v", sc.Phases[0].Throttle)
	}
}

func TestLoadRejectsUnknownEvent(t *testing.T) {
	if _, err := Load("testdata/bad_event.yaml"); err == nil {
		t.Fatalf("expected schema error for unknown event")
	}
}

func TestLoadRejectsDanglingTrigger(t *testing.T) {
	if _, err := Load("testdata/dangling.yaml"); err == nil {
		t.Fatalf("expected error for trigger to unknown phase")
	}
}

func TestBuiltInScenarios(t *testing.T) {
	arcs := BuiltIn()
	for _, n := range []string{"nominal", "pause-cycle", "blackout", "tour", "mun-transfer"} {
		arc, ok := arcs[n]
		if !ok {
			t.Fatalf("scenario %s not found", n)
		}
		if arc.Description == "" {
			t.Fatalf("scenario %s missing description", n)
		}
		if err := arc.Check(); err != nil {
			t.Fatalf("scenario %s: %v", n, err)
		}
	}
}

func TestTourCoversEveryCode(t *testing.T) {
	tour := BuiltIn()["tour"]
	seen := map[int]bool{}
	for _, p := range tour.Phases {
		seen[p.Status] = true
	}
	for _, code := range []int{0, 1, 2, 3, 4, 7} {
		if !seen[code] {
			t.Fatalf("tour never reports code %d", code)
		}
	}
}

func TestLoadShippedScenario(t *testing.T) {
	sc, err := Load("../../config/scenarios/eclipse.yaml")
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	next, ok := sc.NextPhase("shadow", Event{Type: TimeElapsed, Value: 15})
	if !ok || next != "relay-lost" {
		t.Fatalf("expected transition to relay-lost, got %q", next)
	}
}
