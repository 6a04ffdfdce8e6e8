package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_CafeTea(t *testing.T) {
	err := RunWithGolden(t, loadPlaythrough(t, "cafe_tea"))
	require.NoError(t, err)
}

func TestMarshalTrace_Deterministic(t *testing.T) {
	p := loadPlaythrough(t, "cafe_save_load")

	first, err := Run(p)
	require.NoError(t, err)
	second, err := Run(p)
	require.NoError(t, err)

	a, err := MarshalTrace(p.Name, first)
	require.NoError(t, err)
	b, err := MarshalTrace(p.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestMarshalTrace_EmptyCommandsAreArrays(t *testing.T) {
	result := NewResult()
	result.Trace = append(result.Trace, TraceEvent{Action: "open", Seq: 1})

	data, err := MarshalTrace("empty", result)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"commands":[]`)
	assert.Contains(t, string(data), `"history":[]`)
}
