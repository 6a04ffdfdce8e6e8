package harness

import (
	"github.com/roach88/novel/internal/inspector"
	"github.com/roach88/novel/internal/ir"
)

// TraceEvent records one action of a playthrough and the frame it produced.
type TraceEvent struct {
	Action   string    `json:"action"` // "open", "advance", "choose <key>", "save <slot>", "load <slot>"
	Seq      int64     `json:"seq"`
	Current  ir.Step   `json:"current"`
	Commands []ir.Step `json:"commands"`
	Blocked  bool      `json:"blocked"`
	Error    string    `json:"error,omitempty"`
}

// Result is the outcome of a playthrough.
type Result struct {
	// Pass is true when no action failed unexpectedly and every
	// assertion held.
	Pass bool `json:"pass"`

	// Trace lists one event per action, starting with the opening frame.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion and action failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the playthrough state after the last action.
	Final ir.ExecutionState `json:"-"`

	// Screen is the inspector after the last action.
	Screen *inspector.Inspector `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Screen: inspector.New(),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Last returns the most recent trace event.
func (r *Result) Last() (TraceEvent, bool) {
	if len(r.Trace) == 0 {
		return TraceEvent{}, false
	}
	return r.Trace[len(r.Trace)-1], true
}

// CommandCount returns the number of stage directions across the trace.
func (r *Result) CommandCount() int {
	n := 0
	for _, event := range r.Trace {
		n += len(event.Commands)
	}
	return n
}
