package harness

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/novel/internal/ir"
	"github.com/roach88/novel/internal/scenario"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s -> %s", i+1, event.Action, describeStep(event.Current))
			if event.Error != "" {
				fmt.Fprintf(&buf, " (error: %s)", event.Error)
			}
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

func describeStep(s ir.Step) string {
	if s.Name != "" {
		return fmt.Sprintf("%s %s", s.Name, ir.Kind(s.Content))
	}
	return fmt.Sprintf("%s %s", s.ID, ir.Kind(s.Content))
}

// resolveStep finds a step by id or by name.
func resolveStep(g *scenario.Graph, ref string) (uuid.UUID, bool) {
	if id, err := uuid.Parse(ref); err == nil {
		return id, g.Contains(id)
	}
	for _, s := range g.Steps() {
		if s.Name == ref {
			return s.ID, true
		}
	}
	return uuid.Nil, false
}

// assertCurrentStep checks where the cursor rests after the last action.
func assertCurrentStep(result *Result, g *scenario.Graph, a Assertion) error {
	id, ok := resolveStep(g, a.Step)
	if !ok {
		return fmt.Errorf("current_step: step %q not in scenario", a.Step)
	}
	if result.Final.Current == id {
		return nil
	}
	actual := result.Final.Current.String()
	if s, ok := g.Lookup(result.Final.Current); ok {
		actual = describeStep(s)
	}
	return &AssertionError{
		Type:     AssertCurrentStep,
		Expected: fmt.Sprintf("cursor at %s", a.Step),
		Actual:   fmt.Sprintf("cursor at %s", actual),
		Trace:    result.Trace,
	}
}

// assertHistoryContains checks that the final history records the decision.
func assertHistoryContains(result *Result, g *scenario.Graph, a Assertion) error {
	id, ok := resolveStep(g, a.Step)
	if !ok {
		return fmt.Errorf("history_contains: step %q not in scenario", a.Step)
	}
	if result.Final.History.Contains(id, a.Value) {
		return nil
	}
	actual := "no decision"
	if v, ok := result.Final.History.Get(id); ok {
		actual = fmt.Sprintf("value %q", v)
	}
	return &AssertionError{
		Type:     AssertHistoryContains,
		Expected: fmt.Sprintf("%s = %q", a.Step, a.Value),
		Actual:   actual,
		Trace:    result.Trace,
	}
}

// assertSpriteVisible checks the final screen for a named sprite, and its
// source when one is given.
func assertSpriteVisible(result *Result, a Assertion) error {
	state, visible := result.Screen.Sprites[a.Sprite]
	want := a.expected()

	if visible != want {
		return &AssertionError{
			Type:     AssertSpriteVisible,
			Expected: fmt.Sprintf("sprite %q visible=%t", a.Sprite, want),
			Actual:   fmt.Sprintf("visible=%t", visible),
			Trace:    result.Trace,
		}
	}
	if visible && a.Source != "" && (state.Source == nil || *state.Source != a.Source) {
		return &AssertionError{
			Type:     AssertSpriteVisible,
			Expected: fmt.Sprintf("sprite %q source %q", a.Sprite, a.Source),
			Actual:   fmt.Sprintf("source %s", describeString(state.Source)),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertBackground checks the final background. An empty Source expects
// no background.
func assertBackground(result *Result, a Assertion) error {
	bg := result.Screen.Background
	if a.Source == "" && bg == nil {
		return nil
	}
	if bg != nil && *bg == a.Source {
		return nil
	}
	expected := fmt.Sprintf("background %q", a.Source)
	if a.Source == "" {
		expected = "no background"
	}
	return &AssertionError{
		Type:     AssertBackground,
		Expected: expected,
		Actual:   fmt.Sprintf("background %s", describeString(bg)),
		Trace:    result.Trace,
	}
}

// assertBlocked checks whether the last frame was blocked.
func assertBlocked(result *Result, a Assertion) error {
	last, ok := result.Last()
	want := a.expected()
	if ok && last.Blocked == want {
		return nil
	}
	return &AssertionError{
		Type:     AssertBlocked,
		Expected: fmt.Sprintf("last frame blocked=%t", want),
		Actual:   fmt.Sprintf("blocked=%t", last.Blocked),
		Trace:    result.Trace,
	}
}

// assertCommandsCount checks the total number of stage directions rendered.
func assertCommandsCount(result *Result, a Assertion) error {
	count := result.CommandCount()
	if count == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertCommandsCount,
		Expected: fmt.Sprintf("%d commands", a.Count),
		Actual:   fmt.Sprintf("%d commands", count),
		Trace:    result.Trace,
	}
}

func describeString(s *string) string {
	if s == nil {
		return "<none>"
	}
	return fmt.Sprintf("%q", *s)
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The graph resolves step references by id or name.
func EvaluateAssertions(result *Result, assertions []Assertion, g *scenario.Graph) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertCurrentStep:
			err = assertCurrentStep(result, g, assertion)
		case AssertHistoryContains:
			err = assertHistoryContains(result, g, assertion)
		case AssertSpriteVisible:
			err = assertSpriteVisible(result, assertion)
		case AssertBackground:
			err = assertBackground(result, assertion)
		case AssertBlocked:
			err = assertBlocked(result, assertion)
		case AssertCommandsCount:
			err = assertCommandsCount(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
