package view

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"telemachus-dash/internal/telemetry"
)

// maxExact is the largest magnitude below which every integer is exactly
// representable as a float64. Clock and percentage values at or beyond it
// are treated as unparseable.
const maxExact = 1 << 53

// Resource is a tracked resource: Name is the feed identifier, ID the
// display key.
type Resource struct {
	Name  string
	ID    string
	Label string
}

// Rules configures the Reconciler.
type Rules struct {
	MissionTime     telemetry.VariableName
	Body            telemetry.VariableName
	ResourceCurrent string
	ResourceMax     string
	Resources       []Resource
	// Bodies is the closed set of recognised bodies with display names.
	Bodies       map[string]string
	UnknownLabel string
}

type resourceKeys struct {
	id       string
	cur, max telemetry.VariableName
}

// Reconciler merges frames into a State, one field at a time.
type Reconciler struct {
	rules     Rules
	resources []resourceKeys
}

// NewReconciler precomputes the resource variable names.
func NewReconciler(r Rules) *Reconciler {
	rc := &Reconciler{rules: r}
	for _, res := range r.Resources {
		rc.resources = append(rc.resources, resourceKeys{
			id:  res.ID,
			cur: telemetry.Indexed(r.ResourceCurrent, res.Name),
			max: telemetry.Indexed(r.ResourceMax, res.Name),
		})
	}
	return rc
}

// Reconcile applies f to st and reports whether any displayed field changed.
// Fields missing from f or failing to parse keep their previous value.
func (rc *Reconciler) Reconcile(st *State, f telemetry.Frame) bool {
	changed := false
	if rc.missionTime(st, f) {
		changed = true
	}
	if rc.body(st, f) {
		changed = true
	}
	for _, keys := range rc.resources {
		if rc.gauge(st, f, keys) {
			changed = true
		}
	}
	return changed
}

func (rc *Reconciler) missionTime(st *State, f telemetry.Frame) bool {
	raw, ok := f[rc.rules.MissionTime]
	if !ok {
		return false
	}
	secs, ok := parseFloat(raw)
	if !ok || secs < 0 || secs >= maxExact {
		return false
	}
	clock := FormatClock(secs)
	changed := !st.MissionTimeKnown || st.MissionClock != clock
	st.MissionTimeSeconds = secs
	st.MissionTimeKnown = true
	st.MissionClock = clock
	return changed
}

func (rc *Reconciler) body(st *State, f telemetry.Frame) bool {
	raw, ok := f[rc.rules.Body]
	if !ok {
		return false
	}
	name := rc.rules.UnknownLabel
	known := false
	if s, isString := raw.(string); isString {
		if display, found := rc.rules.Bodies[s]; found {
			name, known = display, true
		}
	}
	changed := st.BodyName != name || st.BodyKnown != known
	st.BodyName = name
	st.BodyKnown = known
	return changed
}

// gauge stores the current and max values carried by f. Each value is
// taken on its own: one that does not parse leaves its previous value and
// does not stop the other. The percentage only moves once both values are
// known with max > 0 and the result fits.
func (rc *Reconciler) gauge(st *State, f telemetry.Frame, keys resourceKeys) bool {
	g := st.Resources[keys.id]
	before := g
	if raw, ok := f[keys.cur]; ok {
		if v, ok := parseFloat(raw); ok && v >= 0 {
			g.Current, g.CurrentKnown = v, true
		}
	}
	if raw, ok := f[keys.max]; ok {
		if v, ok := parseFloat(raw); ok {
			g.Max, g.MaxKnown = v, true
		}
	}
	if g.CurrentKnown && g.MaxKnown && g.Max > 0 {
		if pct := g.Current / g.Max * 100; pct < maxExact {
			g.Percent = Percent(g.Current, g.Max)
			g.PercentKnown = true
		}
	}
	if g == before {
		return false
	}
	st.Resources[keys.id] = g
	return true
}

// Percent is round(current / max * 100). max must be positive and the
// ratio below 2^53.
func Percent(current, max float64) int {
	return int(math.Floor(current/max*100 + 0.5))
}

// FormatClock floors seconds and renders HH:MM:SS. Hours take as many digits
// as they need beyond two. seconds must be in [0, 2^53).
func FormatClock(seconds float64) string {
	total := int64(math.Floor(seconds))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func parseFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case float64:
		f = x
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
