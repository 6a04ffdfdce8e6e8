package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/novel/internal/ir"
	"github.com/roach88/novel/internal/scenario"
	"github.com/roach88/novel/internal/testutil"
)

func TestInitCreatesProject(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "story")

	out, err := execute(NewInitCommand(testOptions("text")), "", "--title", "The Lighthouse", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Created "+dir)

	g, err := scenario.Load(filepath.Join(dir, "scenario.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "The Lighthouse", g.Title)
	assert.Equal(t, 8, g.Len())
	assert.Empty(t, g.Validate())

	info, err := os.Stat(filepath.Join(dir, "locales"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestInitProjectPassesItsOwnTests(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "story")
	_, err := execute(NewInitCommand(testOptions("text")), "", dir)
	require.NoError(t, err)

	out, err := execute(NewValidateCommand(testOptions("text")), "", filepath.Join(dir, "scenario.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Scenario valid (8 steps)")

	out, err = execute(NewTestCommand(testOptions("text")), "", filepath.Join(dir, "playthroughs"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ start")
}

func TestInitRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scenario.yaml"), []byte("keep"), 0644))

	out, err := execute(NewInitCommand(testOptions("text")), "", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "use --force to overwrite")

	data, err := os.ReadFile(filepath.Join(dir, "scenario.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))

	_, err = execute(NewInitCommand(testOptions("text")), "", "--force", dir)
	require.NoError(t, err)
}

func TestStarterScenarioShape(t *testing.T) {
	gen := scenario.NewFixedGenerator(testutil.ID(1), testutil.ID(2), testutil.ID(3), testutil.ID(4),
		testutil.ID(5), testutil.ID(6), testutil.ID(7), testutil.ID(8))

	g, err := starterScenario(gen)
	require.NoError(t, err)
	require.Equal(t, 8, g.Len())

	// Reserved ids go to the last two steps.
	assert.Equal(t, testutil.ID(1), g.At(6).ID)
	assert.Equal(t, "leave", g.At(6).Name)
	assert.Equal(t, testutil.ID(2), g.At(7).ID)
	assert.Equal(t, "end", g.At(7).Name)

	jump, ok := g.At(3).Content.(ir.Jump)
	require.True(t, ok)
	assert.Equal(t, testutil.ID(1), jump.Target)
	assert.Equal(t, ir.Check{Step: g.At(2).ID, Value: "leave"}, jump.Condition)
}
