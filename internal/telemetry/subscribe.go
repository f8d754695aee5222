package telemetry

import (
	"errors"
	"slices"
	"sync"
)

var (
	// ErrInvalidRate is returned for a non-positive sample rate.
	ErrInvalidRate = errors.New("sample rate must be a positive number of milliseconds")
	// ErrNoVariables is returned for an empty subscription.
	ErrNoVariables = errors.New("subscription has no variables")
)

// BuildSubscribeRequest encodes the wire payload declaring interest in vars
// at the given sample interval: {"+": [...], "rate": ms}. Duplicates are
// dropped, first occurrence wins.
func BuildSubscribeRequest(vars []VariableName, rateMs int) ([]byte, error) {
	if rateMs <= 0 {
		return nil, ErrInvalidRate
	}
	vars = dedupe(vars)
	if len(vars) == 0 {
		return nil, ErrNoVariables
	}
	return codec.Marshal(map[string]any{"+": vars, "rate": rateMs})
}

// Registry holds the current subscription set for one session.
type Registry struct {
	mu     sync.Mutex
	vars   []VariableName
	rateMs int
}

// NewRegistry validates and stores the initial subscription.
func NewRegistry(rateMs int, vars []VariableName) (*Registry, error) {
	if rateMs <= 0 {
		return nil, ErrInvalidRate
	}
	vars = dedupe(vars)
	if len(vars) == 0 {
		return nil, ErrNoVariables
	}
	return &Registry{vars: vars, rateMs: rateMs}, nil
}

// Variables returns a copy of the subscribed names in declaration order.
func (r *Registry) Variables() []VariableName {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.vars)
}

// Rate returns the sample interval in milliseconds.
func (r *Registry) Rate() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rateMs
}

// Request returns the subscribe payload for the current set.
func (r *Registry) Request() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return BuildSubscribeRequest(r.vars, r.rateMs)
}

// Replace swaps the subscription set and returns a single message that
// unsubscribes the dropped names ("-") and subscribes the new ones ("+"), so
// the provider applies both at once. The registry is left unchanged on error.
func (r *Registry) Replace(vars []VariableName) ([]byte, error) {
	vars = dedupe(vars)
	if len(vars) == 0 {
		return nil, ErrNoVariables
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var added, removed []VariableName
	for _, v := range vars {
		if !slices.Contains(r.vars, v) {
			added = append(added, v)
		}
	}
	for _, v := range r.vars {
		if !slices.Contains(vars, v) {
			removed = append(removed, v)
		}
	}
	msg := map[string]any{"rate": r.rateMs}
	if len(added) > 0 {
		msg["+"] = added
	}
	if len(removed) > 0 {
		msg["-"] = removed
	}
	payload, err := codec.Marshal(msg)
	if err != nil {
		return nil, err
	}
	r.vars = vars
	return payload, nil
}
