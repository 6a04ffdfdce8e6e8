package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/novel/internal/engine"
	"github.com/roach88/novel/internal/inspector"
	"github.com/roach88/novel/internal/scenario"
	"github.com/roach88/novel/internal/store"
)

var cafeOrderID = uuid.MustParse("0190b6a0-0000-7000-8000-000000000003")

// snapshotCafe plays the cafe scenario with inputs and returns the slot
// it would save.
func snapshotCafe(t *testing.T, name string, inputs ...engine.Input) store.Slot {
	t.Helper()
	g, err := scenario.Load(cafeYAML)
	require.NoError(t, err)

	session := engine.NewSession(g)
	_, err = session.Tick()
	require.NoError(t, err)
	for _, in := range inputs {
		require.True(t, session.Enqueue(in))
		_, err = session.Tick()
		require.NoError(t, err)
	}
	slot, err := session.Snapshot(name)
	require.NoError(t, err)
	return slot
}

func writeSlot(t *testing.T, dbPath string, slot store.Slot) {
	t.Helper()
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.WriteSlot(context.Background(), slot))
}

func TestReplayConsistentSlot(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "saves.db")
	writeSlot(t, dbPath, snapshotCafe(t, "autosave", engine.Advance(), engine.Choose(cafeOrderID, "tea")))

	out, err := execute(NewReplayCommand(testOptions("text")), "", "--db", dbPath, cafeYAML)
	require.NoError(t, err)
	assert.Contains(t, out, "Slot: autosave")
	assert.Contains(t, out, "Cursor: 0190b6a0-0000-7000-8000-000000000007 (text)")
	assert.Contains(t, out, "Decisions: 1")
	assert.Contains(t, out, "Replayed: 2 command(s)")
	assert.Contains(t, out, "background change bg/cafe.png")
	assert.Contains(t, out, "sprite set barista sprites/barista.png @0.25")
	assert.Contains(t, out, "✓ Replay matches saved screen")
	assert.NotContains(t, out, "Warning")
}

func TestReplayJSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "saves.db")
	writeSlot(t, dbPath, snapshotCafe(t, "s1", engine.Advance()))

	out, err := execute(NewReplayCommand(testOptions("json")), "", "--db", dbPath, "--slot", "s1", cafeYAML)
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Slot            string           `json:"slot"`
			ScenarioMatches bool             `json:"scenario_matches"`
			Current         map[string]any   `json:"current"`
			Decisions       int              `json:"decisions"`
			Commands        []map[string]any `json:"commands"`
			Screen          []map[string]any `json:"screen"`
			Consistent      bool             `json:"consistent"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "s1", resp.Data.Slot)
	assert.True(t, resp.Data.ScenarioMatches)
	assert.Equal(t, "order", resp.Data.Current["name"])
	assert.Equal(t, 0, resp.Data.Decisions)
	assert.Len(t, resp.Data.Commands, 1)
	assert.Len(t, resp.Data.Screen, 1)
	assert.True(t, resp.Data.Consistent)
}

func TestReplayMissingSlot(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "saves.db")

	_, err := execute(NewReplayCommand(testOptions("text")), "", "--db", dbPath, "--slot", "nope", cafeYAML)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `slot "nope" not found`)
}

func TestReplaySaveDoesNotFit(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "saves.db")
	slot := snapshotCafe(t, "autosave")
	slot.State = []byte("version: 1\ncurrent: 0190b6a0-0000-7000-8000-0000000000ff\nhistory: []\n")
	writeSlot(t, dbPath, slot)

	out, err := execute(NewReplayCommand(testOptions("text")), "", "--db", dbPath, cafeYAML)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, `✗ slot "autosave" does not fit this scenario`)
}

func TestReplayScreenMismatch(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "saves.db")
	slot := snapshotCafe(t, "autosave", engine.Advance())
	empty, err := yaml.Marshal(inspector.New())
	require.NoError(t, err)
	slot.Inspector = empty
	writeSlot(t, dbPath, slot)

	out, err := execute(NewReplayCommand(testOptions("text")), "", "--db", dbPath, cafeYAML)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Replayed screen differs from saved screen")
}

func TestReplayScenarioChanged(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "saves.db")
	slot := snapshotCafe(t, "autosave", engine.Advance())
	slot.ScenarioHash = "stale"
	writeSlot(t, dbPath, slot)

	out, err := execute(NewReplayCommand(testOptions("text")), "", "--db", dbPath, cafeYAML)
	require.NoError(t, err)
	assert.Contains(t, out, "Warning: scenario changed since this save")
}
