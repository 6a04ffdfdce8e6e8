package scenario

import (
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/novel/internal/ir"
)

// IDGenerator mints step identities for authoring tools.
type IDGenerator interface {
	Generate() uuid.UUID
}

// UUIDv7Generator generates time-sortable UUIDv7 step identities, so steps
// scaffolded in sequence sort in creation order.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// FixedGenerator returns predetermined identities for testing.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []uuid.UUID
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...uuid.UUID) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
//
// Panics if all ids have been consumed, which catches a test that creates
// more steps than it declared.
func (g *FixedGenerator) Generate() uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

// Builder appends steps with generated identities. Authoring tools use it
// to scaffold scenarios without hand-writing UUIDs.
type Builder struct {
	gen   IDGenerator
	steps []ir.Step
}

// NewBuilder creates a builder drawing identities from gen.
func NewBuilder(gen IDGenerator) *Builder {
	return &Builder{gen: gen}
}

// Add appends a step and returns its identity.
func (b *Builder) Add(name string, content ir.Steps) uuid.UUID {
	id := b.gen.Generate()
	b.steps = append(b.steps, ir.Step{ID: id, Name: name, Content: content})
	return id
}

// Graph builds the graph from the steps added so far.
func (b *Builder) Graph() (*Graph, error) {
	return New(b.steps)
}

// Reserve mints an identity without adding a step, for forward jump
// targets. Pair it with Place.
func (b *Builder) Reserve() uuid.UUID {
	return b.gen.Generate()
}

// Place appends a step under an identity obtained from Reserve.
func (b *Builder) Place(id uuid.UUID, name string, content ir.Steps) {
	b.steps = append(b.steps, ir.Step{ID: id, Name: name, Content: content})
}
