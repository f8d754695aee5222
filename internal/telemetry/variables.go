package telemetry

import (
	"fmt"
	"strings"
)

// VariableName identifies one telemetry quantity on the feed, either a plain
// scalar such as "v.missionTime" or a name parameterized by a resource
// identifier such as "r.resource[LiquidFuel]".
type VariableName string

// Indexed builds a parameterized variable name.
func Indexed(prefix, param string) VariableName {
	return VariableName(fmt.Sprintf("%s[%s]", prefix, param))
}

// Split returns the prefix and parameter of an indexed name. ok is false for
// scalar names.
func (v VariableName) Split() (prefix, param string, ok bool) {
	s := string(v)
	open := strings.IndexByte(s, '[')
	if open <= 0 || !strings.HasSuffix(s, "]") {
		return s, "", false
	}
	return s[:open], s[open+1 : len(s)-1], true
}

// ProfileNames are the variable names used by the dashboard profile.
type ProfileNames struct {
	MissionTime     VariableName
	Body            VariableName
	Status          VariableName
	ResourceCurrent string
	ResourceMax     string
}

// DashboardProfile enumerates the dashboard's subscription: mission time,
// orbital body, game status and the current/max pair of every resource.
func DashboardProfile(names ProfileNames, resources []string) []VariableName {
	vars := []VariableName{names.MissionTime, names.Body, names.Status}
	for _, r := range resources {
		vars = append(vars, Indexed(names.ResourceCurrent, r), Indexed(names.ResourceMax, r))
	}
	return dedupe(vars)
}

func dedupe(vars []VariableName) []VariableName {
	seen := make(map[VariableName]struct{}, len(vars))
	out := make([]VariableName, 0, len(vars))
	for _, v := range vars {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
