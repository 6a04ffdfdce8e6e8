package store

import (
	"context"
	"errors"
)

// ErrSlotNotFound is returned when a named slot does not exist.
var ErrSlotNotFound = errors.New("slot not found")

// Slot is one saved playthrough.
type Slot struct {
	Name         string `json:"name"`
	ScenarioHash string `json:"scenario_hash"`
	State        []byte `json:"-"` // YAML save file
	StateHash    string `json:"state_hash"`
	Inspector    []byte `json:"-"` // YAML inspector snapshot, may be empty
	Seq          int64  `json:"seq"`
}

// SlotStore is the save-slot contract shared by the SQLite and Redis backends.
type SlotStore interface {
	// WriteSlot replaces the slot's latest save and appends the state to
	// its history unless that exact state is already recorded.
	WriteSlot(ctx context.Context, slot Slot) error

	// ReadSlot returns the latest save. Returns ErrSlotNotFound if absent.
	ReadSlot(ctx context.Context, name string) (Slot, error)

	// ListSlots returns every slot ordered by seq, then name.
	ListSlots(ctx context.Context) ([]Slot, error)

	// DeleteSlot removes a slot and its history. Returns ErrSlotNotFound if absent.
	DeleteSlot(ctx context.Context, name string) error

	// SlotHistory returns the distinct states written to a slot, oldest first.
	SlotHistory(ctx context.Context, name string) ([]Slot, error)

	// Close releases the backend.
	Close() error
}

var _ SlotStore = (*Store)(nil)
