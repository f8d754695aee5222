package status

import "fmt"

// Channel names an alert audio loop.
type Channel string

const (
	ChannelPaused      Channel = "paused"
	ChannelPower       Channel = "power"
	ChannelOffline     Channel = "offline"
	ChannelNoTelemetry Channel = "no_telemetry"
)

// Overlay is the content of the alert surface.
type Overlay struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Blinking bool   `json:"blinking"`
	HelpURL  string `json:"help_url,omitempty"`
}

// Presentation is what a state shows while active. A zero Overlay title
// means no overlay; an empty Channel means no audio.
type Presentation struct {
	Overlay Overlay
	Channel Channel
}

// Table maps status codes to states and states to their presentation.
// Codes without an entry classify as ConnectionLost.
type Table struct {
	codes        map[int]GameStatus
	presentation map[GameStatus]Presentation
}

// DefaultCodes is the stock code assignment of the feed's status variable.
func DefaultCodes() map[int]GameStatus {
	return map[int]GameStatus{
		0: Running,
		1: Paused,
		2: PowerOutage,
		3: LinkOffline,
		4: NoTelemetry,
	}
}

// NewTable builds a table from a code assignment. helpURL is attached to the
// connection-lost overlay.
func NewTable(codes map[int]GameStatus, helpURL string) (*Table, error) {
	t := &Table{codes: make(map[int]GameStatus, len(codes)), presentation: defaultPresentation(helpURL)}
	for code, st := range codes {
		if st < Running || st > ConnectionLost {
			return nil, fmt.Errorf("status code %d maps to invalid state %v", code, st)
		}
		t.codes[code] = st
	}
	return t, nil
}

// TableFromNames builds a table from configuration names.
func TableFromNames(names map[int]string, helpURL string) (*Table, error) {
	codes := make(map[int]GameStatus, len(names))
	for code, name := range names {
		st, ok := ParseGameStatus(name)
		if !ok {
			return nil, fmt.Errorf("status code %d: unknown state %q", code, name)
		}
		codes[code] = st
	}
	return NewTable(codes, helpURL)
}

func defaultPresentation(helpURL string) map[GameStatus]Presentation {
	return map[GameStatus]Presentation{
		Running: {},
		Paused: {
			Overlay: Overlay{Title: "SIMULATION PAUSED", Subtitle: "Game is currently paused", Blinking: true},
			Channel: ChannelPaused,
		},
		PowerOutage: {
			Overlay: Overlay{Title: "POWER OUTAGE", Subtitle: "MAJOR POWER OUTAGE: carry out a vessel analysis immediately.", Blinking: true},
			Channel: ChannelPower,
		},
		LinkOffline: {
			Overlay: Overlay{Title: "SYSTEM OFFLINE", Subtitle: "No data link with the distant object.", Blinking: true},
			Channel: ChannelOffline,
		},
		NoTelemetry: {
			Overlay: Overlay{Title: "NO TELEMETRY", Subtitle: "No telemetry system instances detected.", Blinking: true},
			Channel: ChannelNoTelemetry,
		},
		ConnectionLost: {
			Overlay: Overlay{Title: "NO CONNECTION", Subtitle: "No connection detected. Check that the game is running with the telemetry server enabled.", HelpURL: helpURL},
		},
	}
}

// Classify maps a parsed code to a state. ok=false (value was not an
// integer) and unassigned codes both yield ConnectionLost.
func (t *Table) Classify(code int, ok bool) GameStatus {
	if !ok {
		return ConnectionLost
	}
	if st, found := t.codes[code]; found {
		return st
	}
	return ConnectionLost
}

// Presentation returns what st shows while active.
func (t *Table) Presentation(st GameStatus) Presentation {
	return t.presentation[st]
}

// Channels lists every channel any state may play.
func (t *Table) Channels() []Channel {
	var out []Channel
	for st := Running; st <= ConnectionLost; st++ {
		if ch := t.presentation[st].Channel; ch != "" {
			out = append(out, ch)
		}
	}
	return out
}
