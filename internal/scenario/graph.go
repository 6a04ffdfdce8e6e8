package scenario

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/roach88/novel/internal/ir"
)

// Graph is an ordered, identity-addressed collection of steps.
type Graph struct {
	Title    string
	Language string

	steps []ir.Step
	index map[uuid.UUID]int
}

// New builds a graph from steps in authored order.
// An empty input yields a graph holding only the sentinel step.
// Returns an error if two steps share an identity.
func New(steps []ir.Step) (*Graph, error) {
	g := &Graph{steps: slices.Clone(steps)}
	if len(g.steps) == 0 {
		g.steps = []ir.Step{ir.Sentinel()}
	}
	if err := g.reindex(); err != nil {
		return nil, err
	}
	return g, nil
}

// MustNew is like New but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustNew(steps []ir.Step) *Graph {
	g, err := New(steps)
	if err != nil {
		panic(err)
	}
	return g
}

func (g *Graph) reindex() error {
	index := make(map[uuid.UUID]int, len(g.steps))
	for i, s := range g.steps {
		if prev, ok := index[s.ID]; ok {
			return fmt.Errorf("duplicate step id %s at positions %d and %d", s.ID, prev, i)
		}
		index[s.ID] = i
	}
	g.index = index
	return nil
}

// Len returns the number of steps. Always at least 1.
func (g *Graph) Len() int {
	return len(g.steps)
}

// At returns the step at position i.
func (g *Graph) At(i int) ir.Step {
	return g.steps[i]
}

// First returns the first step in authored order.
func (g *Graph) First() ir.Step {
	return g.steps[0]
}

// IndexOf returns the position of the step with the given identity.
func (g *Graph) IndexOf(id uuid.UUID) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// Lookup returns the step with the given identity.
func (g *Graph) Lookup(id uuid.UUID) (ir.Step, bool) {
	i, ok := g.index[id]
	if !ok {
		return ir.Step{}, false
	}
	return g.steps[i], true
}

// Contains reports whether a step with the given identity exists.
func (g *Graph) Contains(id uuid.UUID) bool {
	_, ok := g.index[id]
	return ok
}

// Steps returns a copy of the steps in authored order.
func (g *Graph) Steps() []ir.Step {
	return slices.Clone(g.steps)
}

// IsEmpty reports whether the graph holds only the sentinel.
func (g *Graph) IsEmpty() bool {
	return len(g.steps) == 1 && g.steps[0].IsSentinel()
}

// Hash returns the content hash of the steps.
func (g *Graph) Hash() (string, error) {
	return ir.ScenarioHash(g.steps)
}

// Insert places step at position at, shifting later steps back.
// Inserting into an empty graph replaces the sentinel.
func (g *Graph) Insert(at int, step ir.Step) error {
	if step.ID == uuid.Nil {
		return fmt.Errorf("insert: nil id is reserved for the sentinel")
	}
	if step.Content == nil {
		return fmt.Errorf("insert %s: step has no content", step.ID)
	}
	if g.Contains(step.ID) {
		return fmt.Errorf("insert %s: duplicate step id", step.ID)
	}
	if g.IsEmpty() {
		g.steps = g.steps[:0]
		at = 0
	}
	if at < 0 || at > len(g.steps) {
		return fmt.Errorf("insert %s: position %d out of range [0, %d]", step.ID, at, len(g.steps))
	}
	g.steps = slices.Insert(g.steps, at, step)
	return g.reindex()
}

// Append adds step at the end.
func (g *Graph) Append(step ir.Step) error {
	return g.Insert(len(g.steps), step)
}

// Remove deletes the step with the given identity. Removing the last
// remaining step leaves the sentinel in its place.
func (g *Graph) Remove(id uuid.UUID) error {
	i, ok := g.index[id]
	if !ok {
		return fmt.Errorf("remove %s: step not found", id)
	}
	g.steps = slices.Delete(g.steps, i, i+1)
	if len(g.steps) == 0 {
		g.steps = []ir.Step{ir.Sentinel()}
	}
	return g.reindex()
}

// SetContent replaces the content of the step with the given identity.
// Identity and order are untouched.
func (g *Graph) SetContent(id uuid.UUID, content ir.Steps) error {
	i, ok := g.index[id]
	if !ok {
		return fmt.Errorf("set content %s: step not found", id)
	}
	if content == nil {
		return fmt.Errorf("set content %s: nil content", id)
	}
	g.steps[i].Content = content
	return nil
}
