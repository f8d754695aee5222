package status

// Transition is the outcome of feeding one classified state to the Machine.
// It carries the side effects in the order a sink must apply them.
type Transition struct {
	From, To GameStatus
	// Changed is false when the state was re-entered; no effects follow.
	Changed bool
	// Stop lists channels to stop and rewind before anything else.
	Stop []Channel
	// Hide is set when the overlay must disappear.
	Hide bool
	// Show is the overlay to display, replacing any previous text.
	Show *Overlay
	// Play is the channel to start looping, if any.
	Play Channel
}

// Machine tracks the current GameStatus. It is not safe for concurrent use;
// the owning session serialises access.
type Machine struct {
	table   *Table
	current GameStatus
}

// NewMachine starts in Running with no overlay.
func NewMachine(t *Table) *Machine {
	return &Machine{table: t, current: Running}
}

// Current returns the active state.
func (m *Machine) Current() GameStatus { return m.current }

// Table returns the classification table.
func (m *Machine) Table() *Table { return m.table }

// Code classifies an in-band status value and transitions.
func (m *Machine) Code(v any) Transition {
	code, ok := ParseCode(v)
	return m.Transition(m.table.Classify(code, ok))
}

// Lost transitions to ConnectionLost on a transport error or close.
func (m *Machine) Lost() Transition {
	return m.Transition(ConnectionLost)
}

// Transition moves to next and returns the effects.
func (m *Machine) Transition(next GameStatus) Transition {
	tr := Transition{From: m.current, To: next}
	if next == m.current {
		return tr
	}
	tr.Changed = true
	m.current = next

	if next == Running {
		// Every channel, not only the previous one: a sink may still be
		// looping anything.
		tr.Stop = m.table.Channels()
		tr.Hide = true
		return tr
	}
	if prev := m.table.Presentation(tr.From).Channel; prev != "" {
		tr.Stop = []Channel{prev}
	}
	p := m.table.Presentation(next)
	if p.Overlay.Title != "" {
		ov := p.Overlay
		tr.Show = &ov
	} else {
		tr.Hide = true
	}
	tr.Play = p.Channel
	return tr
}
