package engine

import "github.com/google/uuid"

// jumpGuard records which jump steps fired during one walk.
//
// A jump that fires a second time within the same walk would repeat the
// exact traversal it caused the first time (the history does not change
// mid-walk), so it is treated as not taken.
//
// Example:
//
//	[Text A] [Jump if true -> A] [Text B]
//
// Advancing from A reaches the jump, which fires and lands on A. That is
// an interactive step, so the walk stops there. A graph such as
//
//	[Jump if true -> self] [Text B]
//
// fires the jump once, meets it again, falls through and lands on B.
//
// Not safe for concurrent use; each walk owns its guard.
type jumpGuard struct {
	fired map[uuid.UUID]bool
}

func newJumpGuard() *jumpGuard {
	return &jumpGuard{fired: make(map[uuid.UUID]bool)}
}

// WouldCycle reports whether the jump already fired in this walk.
func (g *jumpGuard) WouldCycle(jump uuid.UUID) bool {
	return g.fired[jump]
}

// Record marks the jump as fired.
func (g *jumpGuard) Record(jump uuid.UUID) {
	g.fired[jump] = true
}

// Size returns the number of distinct jumps fired.
func (g *jumpGuard) Size() int {
	return len(g.fired)
}
