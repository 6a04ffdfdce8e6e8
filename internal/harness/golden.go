package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/novel/internal/ir"
)

// TraceSnapshot captures the complete trace for a playthrough.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	Name  string
	Trace []TraceEvent
	Final ir.ExecutionState
}

// toCanonicalMap converts a TraceSnapshot to plain values for canonical JSON.
// ir.MarshalCanonical only handles plain trees.
func (s *TraceSnapshot) toCanonicalMap() (map[string]any, error) {
	trace := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		commands := make([]any, len(event.Commands))
		for j, cmd := range event.Commands {
			plain, err := plainCommand(cmd)
			if err != nil {
				return nil, err
			}
			commands[j] = plain
		}
		eventMap := map[string]any{
			"action":   event.Action,
			"seq":      event.Seq,
			"current":  event.Current.ID.String(),
			"commands": commands,
			"blocked":  event.Blocked,
		}
		if event.Error != "" {
			eventMap["error"] = event.Error
		}
		trace[i] = eventMap
	}

	history := make([]any, len(s.Final.History))
	for i, d := range s.Final.History {
		history[i] = map[string]any{"step": d.Step.String(), "value": d.Value}
	}

	return map[string]any{
		"name":  s.Name,
		"trace": trace,
		"final": map[string]any{
			"current": s.Final.Current.String(),
			"history": history,
		},
	}, nil
}

// plainCommand renders a stage direction the way scenario documents
// write it: the step id plus its {kind: payload} mapping.
func plainCommand(step ir.Step) (map[string]any, error) {
	plain, err := ir.ToPlain(ir.ContentNode{Steps: step.Content})
	if err != nil {
		return nil, err
	}
	out, _ := plain.(map[string]any)
	if out == nil {
		out = make(map[string]any)
	}
	out["id"] = step.ID.String()
	return out, nil
}

// MarshalTrace returns the canonical JSON of a playthrough result.
func MarshalTrace(name string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{Name: name, Trace: result.Trace, Final: result.Final}
	canonicalMap, err := snapshot.toCanonicalMap()
	if err != nil {
		return nil, err
	}
	return ir.MarshalCanonical(canonicalMap)
}

// RunWithGolden executes a playthrough and compares its trace against a
// golden file stored in testdata/golden/{playthrough.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the playthrough cannot run. Assertion failures are
// reported through t.
func RunWithGolden(t *testing.T, p *Playthrough) error {
	t.Helper()

	result, err := Run(p)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}
	return AssertGolden(t, p.Name, result)
}

// AssertGolden compares an existing result's trace against a golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalTrace(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, traceJSON)

	return nil
}
