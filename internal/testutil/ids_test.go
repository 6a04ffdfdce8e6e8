package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestID_Readable(t *testing.T) {
	assert.Equal(t, "00000000-0000-0000-0000-000000000001", ID(1).String())
	assert.Equal(t, "00000000-0000-0000-0000-0000000000ff", ID(255).String())
	assert.NotEqual(t, uuid.Nil, ID(1))
}

func TestSeqGenerator_Sequential(t *testing.T) {
	gen := NewSeqGenerator()
	assert.Equal(t, ID(1), gen.Generate())
	assert.Equal(t, ID(2), gen.Generate())
	assert.Equal(t, ID(3), gen.Generate())
}

func TestFixtures_Valid(t *testing.T) {
	for name, g := range map[string]interface{ Len() int }{
		"go_stay": GoStay(),
		"staged":  Staged(),
	} {
		assert.Greater(t, g.Len(), 1, name)
	}
	g, a, b := SelfLoop()
	assert.True(t, g.Contains(a))
	assert.True(t, g.Contains(b))
	assert.Empty(t, GoStay().Validate())
	assert.Empty(t, Staged().Validate())
}
