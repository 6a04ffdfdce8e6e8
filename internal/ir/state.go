package ir

import "github.com/google/uuid"

// StateVersion is the schema version written into persisted states.
const StateVersion = 1

// Decision records the value the player chose at a step.
type Decision struct {
	Step  uuid.UUID `yaml:"step"`
	Value string    `yaml:"value"`
}

// History is the ordered list of player decisions.
//
// INVARIANT: at most one Decision per step identity. Set overwrites in
// place, so insertion order is kept for display while lookups behave as
// set membership.
type History []Decision

// Set records value for step, overwriting any earlier decision for it.
func (h *History) Set(step uuid.UUID, value string) {
	for i := range *h {
		if (*h)[i].Step == step {
			(*h)[i].Value = value
			return
		}
	}
	*h = append(*h, Decision{Step: step, Value: value})
}

// Get returns the recorded value for step.
func (h History) Get(step uuid.UUID) (string, bool) {
	for _, d := range h {
		if d.Step == step {
			return d.Value, true
		}
	}
	return "", false
}

// Contains reports whether the exact (step, value) pair is recorded.
func (h History) Contains(step uuid.UUID, value string) bool {
	v, ok := h.Get(step)
	return ok && v == value
}

// Clone returns an independent copy of h.
func (h History) Clone() History {
	if h == nil {
		return nil
	}
	out := make(History, len(h))
	copy(out, h)
	return out
}

// ExecutionState is the serializable cursor plus decision history of
// one playthrough.
type ExecutionState struct {
	// Current is the step the player is positioned at.
	Current uuid.UUID `yaml:"current"`

	// History lists the player's decisions in insertion order.
	History History `yaml:"history"`
}

// Clone returns an independent copy of s.
func (s ExecutionState) Clone() ExecutionState {
	return ExecutionState{Current: s.Current, History: s.History.Clone()}
}

// SaveFile is the on-disk envelope of an ExecutionState.
type SaveFile struct {
	Version      int       `yaml:"version"`
	ScenarioHash string    `yaml:"scenario_hash,omitempty"`
	Current      uuid.UUID `yaml:"current"`
	History      History   `yaml:"history"`
}
