package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/novel/internal/inspector"
	"github.com/roach88/novel/internal/ir"
	"github.com/roach88/novel/internal/store"
	"github.com/roach88/novel/internal/testutil"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "saves.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSnapshot(t *testing.T) {
	g := testutil.Staged()
	s := newTestSession(g)
	s.Enqueue(Advance())
	_, err := s.Tick()
	require.NoError(t, err)

	slot, err := s.Snapshot("auto")
	require.NoError(t, err)

	assert.Equal(t, "auto", slot.Name)
	assert.Equal(t, int64(2), slot.Seq, "one frame, then the snapshot")

	scenarioHash, err := g.Hash()
	require.NoError(t, err)
	assert.Equal(t, scenarioHash, slot.ScenarioHash)

	stateHash, err := ir.StateHash(s.State())
	require.NoError(t, err)
	assert.Equal(t, stateHash, slot.StateHash)

	var thumb inspector.Inspector
	require.NoError(t, yaml.Unmarshal(slot.Inspector, &thumb))
	assert.True(t, s.Inspector().Equal(&thumb))
}

func TestSaveSlot_ResumeSlot(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	g := testutil.Staged()

	s := newTestSession(g)
	s.Enqueue(Advance())
	s.Enqueue(Choose(testutil.ID(21), "right"))
	_, err := s.Tick()
	require.NoError(t, err)
	require.NoError(t, s.SaveSlot(ctx, st, "auto"))

	resumed, ok, err := ResumeSlot(ctx, st, "auto", g)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, s.State(), resumed.State())

	frame, err := resumed.Tick()
	require.NoError(t, err)
	assert.Greater(t, frame.Seq, s.Seq(), "seq continues after the save")
	assert.True(t, s.Inspector().Equal(resumed.Inspector()))
}

func TestResumeSlot_MissingStartsFresh(t *testing.T) {
	st := openTestStore(t)
	g := testutil.GoStay()

	s, ok, err := ResumeSlot(context.Background(), st, "nope", g)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, Initialize(g), s.State())
}

func TestResumeSlot_StaleSaveStartsFresh(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	g := testutil.GoStay()

	require.NoError(t, st.WriteSlot(ctx, store.Slot{
		Name:      "auto",
		State:     []byte("version: 1\ncurrent: " + testutil.ID(999).String() + "\nhistory: []\n"),
		StateHash: "x",
		Seq:       10,
	}))

	s, ok, err := ResumeSlot(ctx, st, "auto", g)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, testutil.PhraseID, s.State().Current)
	assert.Equal(t, int64(10), s.Seq(), "clock still resumes from the slot")
}

func TestSaveSlot_HistoryKeepsDistinctStates(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	s := newTestSession(testutil.GoStay())
	_, err := s.Tick()
	require.NoError(t, err)
	require.NoError(t, s.SaveSlot(ctx, st, "auto"))
	require.NoError(t, s.SaveSlot(ctx, st, "auto")) // same state

	s.Enqueue(Choose(testutil.PhraseID, "go"))
	_, err = s.Tick()
	require.NoError(t, err)
	require.NoError(t, s.SaveSlot(ctx, st, "auto"))

	history, err := st.SlotHistory(ctx, "auto")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
