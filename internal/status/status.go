// Package status classifies the in-band game status code and derives the
// overlay and alert-channel transitions for each state change.
package status

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// GameStatus is the discrete connection/game state shown by the dashboard.
type GameStatus int

const (
	Running GameStatus = iota
	Paused
	PowerOutage
	LinkOffline
	NoTelemetry
	ConnectionLost
	// UnknownStatus is never entered by the machine; it is what ParseGameStatus
	// returns for a name it does not recognise.
	UnknownStatus
)

var statusNames = [...]string{
	Running:        "running",
	Paused:         "paused",
	PowerOutage:    "power_outage",
	LinkOffline:    "link_offline",
	NoTelemetry:    "no_telemetry",
	ConnectionLost: "connection_lost",
	UnknownStatus:  "unknown_status",
}

func (s GameStatus) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("GameStatus(%d)", int(s))
	}
	return statusNames[s]
}

// MarshalText renders the status name, used by JSON snapshots.
func (s GameStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText parses a status name.
func (s *GameStatus) UnmarshalText(b []byte) error {
	st, ok := ParseGameStatus(string(b))
	if !ok {
		return fmt.Errorf("unknown game status %q", b)
	}
	*s = st
	return nil
}

// ParseGameStatus maps a configuration name to a GameStatus.
func ParseGameStatus(name string) (GameStatus, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range statusNames {
		if n == name && GameStatus(i) != UnknownStatus {
			return GameStatus(i), true
		}
	}
	return UnknownStatus, false
}

// Stale reports whether numeric fields shown alongside this state must be
// treated as frozen at their last known value.
func (s GameStatus) Stale() bool {
	switch s {
	case LinkOffline, NoTelemetry, ConnectionLost:
		return true
	}
	return false
}

// ParseCode extracts an integer status code from a raw frame value with the
// feed's integer parsing, whatever the wire type: the integer part is the
// code and any fraction is dropped, so 1.9 and "1.9" are both 1. Strings use
// their leading digits and ignore the rest. Numbers beyond 2^53 in magnitude
// and non-numeric values are not codes.
func ParseCode(v any) (int, bool) {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return int(n), true
		}
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return floatCode(f)
	case float64:
		return floatCode(x)
	case int:
		return x, true
	case int64:
		return int(x), true
	case string:
		return leadingInt(x)
	}
	return 0, false
}

func floatCode(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= 1<<53 {
		return 0, false
	}
	return int(math.Trunc(f)), true
}

func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
