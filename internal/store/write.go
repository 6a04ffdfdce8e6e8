package store

import (
	"context"
	"fmt"
)

// WriteSlot upserts the slot and appends its state to slot_history.
// Uses ON CONFLICT(slot, state_hash) DO NOTHING so writing the same state
// twice records it once. Both writes share one transaction.
func (s *Store) WriteSlot(ctx context.Context, slot Slot) error {
	if slot.Name == "" {
		return fmt.Errorf("write slot: name is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write slot: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO slots (name, scenario_hash, state, state_hash, inspector, seq)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			scenario_hash = excluded.scenario_hash,
			state         = excluded.state,
			state_hash    = excluded.state_hash,
			inspector     = excluded.inspector,
			seq           = excluded.seq
	`,
		slot.Name,
		slot.ScenarioHash,
		string(slot.State),
		slot.StateHash,
		string(slot.Inspector),
		slot.Seq,
	)
	if err != nil {
		return fmt.Errorf("write slot %q: %w", slot.Name, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO slot_history (slot, scenario_hash, state, state_hash, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(slot, state_hash) DO NOTHING
	`,
		slot.Name,
		slot.ScenarioHash,
		string(slot.State),
		slot.StateHash,
		slot.Seq,
	)
	if err != nil {
		return fmt.Errorf("write slot history %q: %w", slot.Name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write slot %q: commit: %w", slot.Name, err)
	}
	return nil
}

// DeleteSlot removes the slot; its history cascades.
func (s *Store) DeleteSlot(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM slots WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete slot %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete slot %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("delete slot %q: %w", name, ErrSlotNotFound)
	}
	return nil
}
