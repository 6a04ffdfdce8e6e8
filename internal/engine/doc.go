// Package engine implements the execution cursor for branching scenarios.
//
// The cursor is the central state machine: it advances through a
// scenario.Graph, resolves jump conditions against the decision history,
// records player choices, and reports the stage-direction commands passed
// on the way so a renderer can apply them.
//
// STATE:
//
// All playthrough state lives in an ir.ExecutionState value owned by the
// caller and passed into every call. The Cursor itself only carries
// configuration (the hop quota), so one Cursor can serve any number of
// sessions. Session wraps graph, state, inspector snapshot and an input
// queue for hosts that prefer a tick loop.
//
// TERMINATION:
//
// Back-jumping graphs can loop. Every walk is bounded twice:
//   - A jump step that already fired within the current walk is treated
//     as not taken, so traversal falls through to the next position
//   - A hop quota caps the number of jumps taken per walk (DefaultMaxHops)
//
// Exceeding the quota returns Blocked with a RuntimeError and leaves the
// cursor where it was.
//
// DETERMINISM:
//
// Walks are pure functions of (graph, history, start). Replaying from the
// start of the graph along a recorded history reproduces the commands a
// live session emitted, which is what lets a save store only cursor and
// history.
package engine
