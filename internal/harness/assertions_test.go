package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/novel/internal/inspector"
	"github.com/roach88/novel/internal/ir"
	"github.com/roach88/novel/internal/scenario"
)

func cafeGraph(t *testing.T) *scenario.Graph {
	t.Helper()
	g, err := scenario.Load("testdata/scenarios/cafe.yaml")
	require.NoError(t, err)
	return g
}

func screenResult() *Result {
	result := NewResult()
	result.Final = ir.ExecutionState{Current: cafeOrder}
	result.Final.History.Set(cafeOrder, "tea")
	result.Screen = inspector.New()
	result.Screen.Keep(
		ir.Background{Command: ir.BackgroundCommand{Kind: ir.BackgroundChange, Source: ir.StringPtr("bg/cafe.png")}},
		ir.Sprite{Command: ir.SpriteCommand{Kind: ir.SpriteSet, Name: "barista", Source: ir.StringPtr("b.png")}},
	)
	result.Trace = []TraceEvent{
		{Action: "open", Seq: 1, Commands: make([]ir.Step, 2)},
		{Action: "advance", Seq: 2, Blocked: true},
	}
	return result
}

func boolPtr(b bool) *bool { return &b }

func TestEvaluateAssertions(t *testing.T) {
	g := cafeGraph(t)

	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{"current by name", Assertion{Type: AssertCurrentStep, Step: "order"}, ""},
		{"current by id", Assertion{Type: AssertCurrentStep, Step: cafeOrder.String()}, ""},
		{"current mismatch", Assertion{Type: AssertCurrentStep, Step: "greeting"}, "cursor at order phrase"},
		{"current unknown step", Assertion{Type: AssertCurrentStep, Step: "lobby"}, `step "lobby" not in scenario`},
		{"history", Assertion{Type: AssertHistoryContains, Step: "order", Value: "tea"}, ""},
		{"history other value", Assertion{Type: AssertHistoryContains, Step: "order", Value: "coffee"}, `value "tea"`},
		{"history no decision", Assertion{Type: AssertHistoryContains, Step: "greeting", Value: "x"}, "no decision"},
		{"sprite visible", Assertion{Type: AssertSpriteVisible, Sprite: "barista"}, ""},
		{"sprite source", Assertion{Type: AssertSpriteVisible, Sprite: "barista", Source: "b.png"}, ""},
		{"sprite wrong source", Assertion{Type: AssertSpriteVisible, Sprite: "barista", Source: "c.png"}, `source "b.png"`},
		{"sprite hidden", Assertion{Type: AssertSpriteVisible, Sprite: "alice", Expect: boolPtr(false)}, ""},
		{"sprite missing", Assertion{Type: AssertSpriteVisible, Sprite: "alice"}, "visible=false"},
		{"background", Assertion{Type: AssertBackground, Source: "bg/cafe.png"}, ""},
		{"background mismatch", Assertion{Type: AssertBackground}, "no background"},
		{"blocked", Assertion{Type: AssertBlocked}, ""},
		{"not blocked", Assertion{Type: AssertBlocked, Expect: boolPtr(false)}, "blocked=true"},
		{"commands", Assertion{Type: AssertCommandsCount, Count: 2}, ""},
		{"commands mismatch", Assertion{Type: AssertCommandsCount, Count: 3}, "2 commands"},
		{"unknown", Assertion{Type: "final_state"}, "unknown assertion type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(screenResult(), []Assertion{tt.assertion}, g)
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.wantErr)
		})
	}
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertBlocked,
		Expected: "last frame blocked=true",
		Actual:   "blocked=false",
		Trace: []TraceEvent{
			{Action: "open", Current: ir.Step{Name: "greeting", Content: ir.Text{Body: "hi"}}},
			{Action: "choose tea", Current: ir.Step{Name: "greeting", Content: ir.Text{Body: "hi"}}, Error: "choice on a text step"},
		},
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: blocked")
	assert.Contains(t, msg, "[1] open -> greeting text")
	assert.Contains(t, msg, "(error: choice on a text step)")
}
