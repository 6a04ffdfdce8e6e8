package engine

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/novel/internal/ir"
	"github.com/roach88/novel/internal/scenario"
	"github.com/roach88/novel/internal/testutil"
)

func newTestSession(g *scenario.Graph) *Session {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSession(g,
		WithCursor(NewCursor(WithLogger(logger))),
		WithSessionLogger(logger),
	)
}

func TestSession_OpeningFrameSettles(t *testing.T) {
	s := newTestSession(testutil.Staged())

	frame, err := s.Tick()
	require.NoError(t, err)
	assert.Equal(t, int64(1), frame.Seq)
	assert.False(t, frame.Blocked)
	assert.Equal(t, testutil.ID(20), frame.Current.ID)
	assert.Equal(t, []uuid.UUID{testutil.ID(30), testutil.ID(31)}, ids(frame.Commands))

	view := s.Inspector()
	require.NotNil(t, view.Background)
	assert.Equal(t, "room.png", *view.Background)
	assert.Contains(t, view.Sprites, "alice")

	// Nothing queued: an empty frame at the same step
	frame, err = s.Tick()
	require.NoError(t, err)
	assert.Equal(t, int64(2), frame.Seq)
	assert.Empty(t, frame.Commands)
	assert.Equal(t, testutil.ID(20), frame.Current.ID)
}

func TestSession_PlaysThrough(t *testing.T) {
	s := newTestSession(testutil.Staged())
	_, err := s.Tick()
	require.NoError(t, err)

	s.Enqueue(Advance())
	frame, err := s.Tick()
	require.NoError(t, err)
	assert.Equal(t, testutil.ID(21), frame.Current.ID)
	assert.Equal(t, []uuid.UUID{testutil.ID(32), testutil.ID(33)}, ids(frame.Commands))

	// Several inputs in one tick apply in order
	s.Enqueue(Choose(testutil.ID(21), "right"))
	s.Enqueue(Advance())
	frame, err = s.Tick()
	require.NoError(t, err)
	assert.Equal(t, testutil.ID(26), frame.Current.ID)
	assert.Equal(t, []uuid.UUID{testutil.ID(23), testutil.ID(37), testutil.ID(25)}, ids(frame.Commands))

	view := s.Inspector()
	assert.NotContains(t, view.Sprites, "bob")
	require.NotNil(t, view.Scene)
	assert.Equal(t, ir.SceneSet, view.Scene.Kind)

	assert.True(t, s.State().History.Contains(testutil.ID(21), "right"))

	s.Enqueue(Advance())
	frame, err = s.Tick()
	require.NoError(t, err)
	assert.True(t, frame.Blocked)
	assert.Equal(t, testutil.ID(26), frame.Current.ID, "blocked keeps the cursor")
}

func TestSession_TextConfirmationIsNotRecorded(t *testing.T) {
	s := newTestSession(testutil.Staged())
	s.Enqueue(Advance())
	_, err := s.Tick()
	require.NoError(t, err)

	assert.Empty(t, s.State().History)
}

func TestSession_RejectsInvalidInputs(t *testing.T) {
	g := testutil.GoStay()

	tests := []struct {
		name  string
		input Input
	}{
		{"advance on phrase", Advance()},
		{"choice for stale step", Choose(testutil.T1ID, "go")},
		{"unknown key", Choose(testutil.PhraseID, "maybe")},
		{"unknown kind", Input{Kind: InputKind(42)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(g)
			s.Enqueue(tt.input)

			frame, err := s.Tick()
			require.Error(t, err)
			assert.True(t, IsInputError(err))
			assert.Equal(t, testutil.PhraseID, frame.Current.ID)
			assert.Empty(t, s.State().History)
		})
	}
}

func TestSession_ChoiceOnTextRejected(t *testing.T) {
	s := newTestSession(testutil.Staged())
	_, err := s.Tick()
	require.NoError(t, err)

	s.Enqueue(Choose(testutil.ID(20), "x"))
	_, err = s.Tick()
	assert.True(t, IsInputError(err))
}

func TestSession_RejectedInputLeavesRestQueued(t *testing.T) {
	s := newTestSession(testutil.GoStay())
	s.Enqueue(Choose(testutil.PhraseID, "maybe"))
	s.Enqueue(Choose(testutil.PhraseID, "stay"))

	_, err := s.Tick()
	require.Error(t, err)
	assert.Equal(t, 1, s.Pending())

	frame, err := s.Tick()
	require.NoError(t, err)
	assert.Equal(t, testutil.T2ID, frame.Current.ID)
}

func TestSession_QuotaErrorIsReported(t *testing.T) {
	g, start, _ := chain()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := ResumeSession(g, ir.ExecutionState{Current: start},
		WithCursor(NewCursor(WithMaxHops(1), WithLogger(logger))))

	_, err := s.Tick()
	require.NoError(t, err)

	s.Enqueue(Advance())
	frame, err := s.Tick()
	require.Error(t, err)
	assert.True(t, IsQuotaError(err))
	assert.Equal(t, start, frame.Current.ID)
}

func TestSession_ResumeReplaysFromStart(t *testing.T) {
	g := testutil.Staged()

	live := newTestSession(g)
	_, err := live.Tick()
	require.NoError(t, err)
	live.Enqueue(Advance())
	live.Enqueue(Choose(testutil.ID(21), "right"))
	_, err = live.Tick()
	require.NoError(t, err)
	require.Equal(t, testutil.ID(24), live.State().Current)

	resumed := ResumeSession(g, live.State())
	frame, err := resumed.Tick()
	require.NoError(t, err)
	assert.Equal(t, testutil.ID(24), frame.Current.ID)
	assert.Equal(t, []uuid.UUID{
		testutil.ID(30), testutil.ID(31), testutil.ID(32), testutil.ID(33),
		testutil.ID(23), testutil.ID(37),
	}, ids(frame.Commands))
	assert.True(t, live.Inspector().Equal(resumed.Inspector()))
}

func TestSession_Rewind(t *testing.T) {
	s := newTestSession(testutil.Staged())
	s.Enqueue(Advance())
	s.Enqueue(Choose(testutil.ID(21), "left"))
	_, err := s.Tick()
	require.NoError(t, err)
	require.Equal(t, testutil.ID(22), s.State().Current)

	s.Rewind()
	frame, err := s.Tick()
	require.NoError(t, err)
	assert.Equal(t, testutil.ID(20), frame.Current.ID)
	assert.Equal(t, []uuid.UUID{testutil.ID(30), testutil.ID(31)}, ids(frame.Commands))
	assert.True(t, s.State().History.Contains(testutil.ID(21), "left"), "rewind keeps decisions")
	assert.NotContains(t, s.Inspector().Sprites, "bob", "inspector restarts from empty")
}

func TestSession_Run(t *testing.T) {
	s := newTestSession(testutil.Staged())

	var visited []uuid.UUID
	render := func(f Frame) error {
		visited = append(visited, f.Current.ID)
		switch f.Current.ID {
		case testutil.ID(21):
			s.Enqueue(Choose(testutil.ID(21), "left"))
		case testutil.ID(26):
			s.Close()
		default:
			s.Enqueue(Advance())
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, s.Run(ctx, render))
	assert.Equal(t, []uuid.UUID{
		testutil.ID(20), testutil.ID(21), testutil.ID(22), testutil.ID(26),
	}, visited)
	assert.False(t, s.Enqueue(Advance()), "queue closed")
}

func TestSession_RunDrainsPastRejectedInput(t *testing.T) {
	s := newTestSession(testutil.Staged())

	var visited []uuid.UUID
	render := func(f Frame) error {
		visited = append(visited, f.Current.ID)
		switch {
		case len(visited) == 1:
			// Both land before Run waits, so they share one wake-up.
			s.Enqueue(Choose(testutil.ID(20), "bogus"))
			s.Enqueue(Advance())
		case f.Current.ID == testutil.ID(21):
			s.Close()
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, s.Run(ctx, render))
	assert.Equal(t, []uuid.UUID{
		testutil.ID(20), testutil.ID(20), testutil.ID(21),
	}, visited)
}

func TestSession_RunStopsOnCancel(t *testing.T) {
	s := newTestSession(testutil.GoStay())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, func(Frame) error { return nil })
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestSession_RunStopsOnRenderError(t *testing.T) {
	s := newTestSession(testutil.GoStay())
	boom := assert.AnError

	err := s.Run(context.Background(), func(Frame) error { return boom })
	assert.ErrorIs(t, err, boom)
}
