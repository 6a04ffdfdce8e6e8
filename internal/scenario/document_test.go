package scenario

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/novel/internal/ir"
)

func TestLoad(t *testing.T) {
	g, err := Load(filepath.Join("testdata", "cafe.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "The Cafe", g.Title)
	assert.Equal(t, "en", g.Language)
	assert.Equal(t, 7, g.Len())
	assert.Empty(t, g.Validate())

	jump, ok := g.At(3).Content.(ir.Jump)
	require.True(t, ok)
	assert.Equal(t, uuid.MustParse("0190b6a0-0000-7000-8000-000000000006"), jump.Target)
	assert.Equal(t, ir.Check{Step: g.At(2).ID, Value: "tea"}, jump.Condition)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	g, err := Load(filepath.Join("testdata", "cafe.yaml"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, g.Save(path))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, g.Steps(), back.Steps())
	assert.Equal(t, g.Title, back.Title)

	h1, err := g.Hash()
	require.NoError(t, err)
	h2, err := back.Hash()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "empty document"},
		{"bad version", "version: 2\nsteps: []", "unsupported version"},
		{"unknown top-level field", "version: 1\nauthor: me\nsteps: []", "author"},
		{"duplicate ids", "version: 1\nsteps:\n  - {id: 00000000-0000-0000-0000-000000000001, none: {}}\n  - {id: 00000000-0000-0000-0000-000000000001, none: {}}", "duplicate step id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDecode_EmptyStepsYieldsSentinel(t *testing.T) {
	g, err := Decode([]byte("version: 1\nsteps: []\n"))
	require.NoError(t, err)
	assert.True(t, g.IsEmpty())
}

func TestValidate(t *testing.T) {
	missing := uuid.MustParse("00000000-0000-0000-0000-0000000000ff")
	g := MustNew([]ir.Step{
		{ID: s1, Content: ir.Phrase{}},
		{ID: s2, Content: ir.Jump{
			Condition: ir.GTE{Items: []ir.Condition{ir.Check{Step: missing, Value: "x"}}, Threshold: -1},
			Target:    missing,
		}},
		{ID: s3, Content: ir.ImageSelect{Options: []ir.ImageOption{{Key: "a"}, {Key: "a"}}}},
	})

	codes := make(map[string]bool)
	for _, e := range g.Validate() {
		codes[e.Code] = true
	}

	assert.True(t, codes[ErrNoOptions])
	assert.True(t, codes[ErrDanglingTarget])
	assert.True(t, codes[ErrDanglingCheck])
	assert.True(t, codes[ErrThresholdNegative])
	assert.True(t, codes[ErrDuplicateOption])
}

func TestValidationError_Format(t *testing.T) {
	e := ValidationError{Field: "steps[0]", Message: "bad", Code: ErrNoOptions}
	assert.Equal(t, "[E112] steps[0]: bad", e.Error())

	e.Line = 4
	assert.Equal(t, "[E112] line 4: steps[0]: bad", e.Error())
}
