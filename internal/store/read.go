package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ReadSlot returns the latest save in the named slot.
// Returns an error wrapping ErrSlotNotFound if the slot does not exist.
func (s *Store) ReadSlot(ctx context.Context, name string) (Slot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT name, scenario_hash, state, state_hash, inspector, seq
		FROM slots
		WHERE name = ?
	`, name)

	slot, err := scanSlot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Slot{}, fmt.Errorf("read slot %q: %w", name, ErrSlotNotFound)
	}
	if err != nil {
		return Slot{}, fmt.Errorf("read slot %q: %w", name, err)
	}
	return slot, nil
}

// ListSlots returns all slots ordered by seq, then name.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ListSlots(ctx context.Context) ([]Slot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, scenario_hash, state, state_hash, inspector, seq
		FROM slots
		ORDER BY seq ASC, name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query slots: %w", err)
	}
	defer rows.Close()

	slots := []Slot{}
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}
	return slots, nil
}

// SlotHistory returns every distinct state written to the slot, oldest
// first. History entries carry no inspector snapshot.
func (s *Store) SlotHistory(ctx context.Context, name string) ([]Slot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT slot, scenario_hash, state, state_hash, seq
		FROM slot_history
		WHERE slot = ?
		ORDER BY seq ASC, id ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("query slot history: %w", err)
	}
	defer rows.Close()

	history := []Slot{}
	for rows.Next() {
		var slot Slot
		var state string
		if err := rows.Scan(&slot.Name, &slot.ScenarioHash, &state, &slot.StateHash, &slot.Seq); err != nil {
			return nil, fmt.Errorf("scan slot history: %w", err)
		}
		slot.State = []byte(state)
		history = append(history, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slot history: %w", err)
	}
	return history, nil
}

// GetLastSeq returns the highest seq ever written, or 0 for an empty store.
// Sessions resume their clock from it so new saves sort after old ones.
func (s *Store) GetLastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM slot_history`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	return seq.Int64, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSlot(row rowScanner) (Slot, error) {
	var slot Slot
	var state, inspector string
	if err := row.Scan(&slot.Name, &slot.ScenarioHash, &state, &slot.StateHash, &inspector, &slot.Seq); err != nil {
		return Slot{}, err
	}
	slot.State = []byte(state)
	if inspector != "" {
		slot.Inspector = []byte(inspector)
	}
	return slot, nil
}
