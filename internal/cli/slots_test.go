package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/novel/internal/engine"
)

func TestSlotsEmpty(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "saves.db")

	out, err := execute(NewSlotsCommand(testOptions("text")), "", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No save slots.")
}

func TestSlotsList(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "saves.db")
	writeSlot(t, dbPath, snapshotCafe(t, "alpha"))
	writeSlot(t, dbPath, snapshotCafe(t, "beta", engine.Advance()))

	out, err := execute(NewSlotsCommand(testOptions("text")), "", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Save slots: 2")
	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "beta")
}

func TestSlotsListJSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "saves.db")
	slot := snapshotCafe(t, "alpha", engine.Advance())
	writeSlot(t, dbPath, slot)

	out, err := execute(NewSlotsCommand(testOptions("json")), "", "--db", dbPath)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   SlotsResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Total)
	require.Len(t, resp.Data.Slots, 1)
	assert.Equal(t, SlotEntry{
		Name:         "alpha",
		Seq:          slot.Seq,
		ScenarioHash: slot.ScenarioHash,
		StateHash:    slot.StateHash,
	}, resp.Data.Slots[0])
}

func TestSlotsHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "saves.db")
	writeSlot(t, dbPath, snapshotCafe(t, "s1"))
	writeSlot(t, dbPath, snapshotCafe(t, "s1", engine.Advance()))
	writeSlot(t, dbPath, snapshotCafe(t, "s1", engine.Advance())) // same state, recorded once

	out, err := execute(NewSlotsCommand(testOptions("text")), "", "history", "s1", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "History of s1: 2 state(s)")
	assert.Contains(t, out, "[0]")
	assert.Contains(t, out, "[1]")
	assert.NotContains(t, out, "[2]")
}

func TestSlotsHistoryMissing(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "saves.db")

	_, err := execute(NewSlotsCommand(testOptions("text")), "", "history", "nope", "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `slot "nope" not found`)
}

func TestSlotsDelete(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "saves.db")
	writeSlot(t, dbPath, snapshotCafe(t, "s1"))

	out, err := execute(NewSlotsCommand(testOptions("text")), "", "delete", "s1", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Deleted slot s1")

	out, err = execute(NewSlotsCommand(testOptions("text")), "", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No save slots.")

	out, err = execute(NewSlotsCommand(testOptions("text")), "", "delete", "s1", "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E008]")
}

func TestSlotsWithoutStore(t *testing.T) {
	_, err := execute(NewSlotsCommand(testOptions("text")), "")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no slot store")
}
