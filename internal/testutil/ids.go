package testutil

import (
	"encoding/binary"
	"sync"

	"github.com/google/uuid"
)

// ID returns a deterministic step identity whose last bytes encode n.
//
//	ID(1) == 00000000-0000-0000-0000-000000000001
//
// Readable in failure output, and never uuid.Nil for n > 0.
func ID(n uint64) uuid.UUID {
	var id uuid.UUID
	binary.BigEndian.PutUint64(id[8:], n)
	return id
}

// SeqGenerator hands out ID(1), ID(2), ... in order.
//
// Thread-safety: SeqGenerator is safe for concurrent use via internal mutex.
type SeqGenerator struct {
	mu   sync.Mutex
	next uint64
}

// NewSeqGenerator creates a generator whose first id is ID(1).
func NewSeqGenerator() *SeqGenerator {
	return &SeqGenerator{next: 1}
}

// Generate returns the next sequential id.
func (g *SeqGenerator) Generate() uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := ID(g.next)
	g.next++
	return id
}
