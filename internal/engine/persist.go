package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/roach88/novel/internal/ir"
	"github.com/roach88/novel/internal/scenario"
	"github.com/roach88/novel/internal/store"
)

// Snapshot captures the session as a save slot named name. The slot is
// stamped with the next clock value.
func (s *Session) Snapshot(name string) (store.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := Save(s.graph, s.state)
	if err != nil {
		return store.Slot{}, fmt.Errorf("snapshot %q: %w", name, err)
	}
	stateHash, err := ir.StateHash(s.state)
	if err != nil {
		return store.Slot{}, fmt.Errorf("snapshot %q: %w", name, err)
	}
	scenarioHash, err := s.graph.Hash()
	if err != nil {
		return store.Slot{}, fmt.Errorf("snapshot %q: %w", name, err)
	}
	thumb, err := yaml.Marshal(s.inspector)
	if err != nil {
		return store.Slot{}, fmt.Errorf("snapshot %q: inspector: %w", name, err)
	}

	return store.Slot{
		Name:         name,
		ScenarioHash: scenarioHash,
		State:        data,
		StateHash:    stateHash,
		Inspector:    thumb,
		Seq:          s.clock.Next(),
	}, nil
}

// SaveSlot writes the session into the named slot.
func (s *Session) SaveSlot(ctx context.Context, st store.SlotStore, name string) error {
	slot, err := s.Snapshot(name)
	if err != nil {
		return err
	}
	if err := st.WriteSlot(ctx, slot); err != nil {
		return fmt.Errorf("save slot: %w", err)
	}
	return nil
}

// ResumeSlot opens a session on g from the named slot.
//
// A missing slot or a save that no longer fits g starts a new
// playthrough instead; the bool reports whether the save was used.
// Only store failures are returned as errors.
func ResumeSlot(ctx context.Context, st store.SlotStore, name string, g *scenario.Graph, opts ...SessionOption) (*Session, bool, error) {
	slot, err := st.ReadSlot(ctx, name)
	if errors.Is(err, store.ErrSlotNotFound) {
		return NewSession(g, opts...), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("resume slot: %w", err)
	}

	// Keep seq increasing across sessions; callers may still override.
	opts = append([]SessionOption{WithClock(NewClockAt(slot.Seq))}, opts...)

	state, ok := Load(g, slot.State)
	if !ok {
		slog.Warn("save does not fit scenario, starting over", "slot", name)
		return NewSession(g, opts...), false, nil
	}
	return ResumeSession(g, *state, opts...), true, nil
}
