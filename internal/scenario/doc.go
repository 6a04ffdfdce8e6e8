// Package scenario holds the authored step graph.
//
// A Graph is an ordered list of steps plus an identity index built once on
// construction, so jump targets resolve in constant time regardless of
// direction. The graph is never empty: removing the last step re-inserts
// the sentinel step (uuid.Nil, None).
//
// The runtime treats a Graph as read-only. Editor operations (Insert,
// Append, Remove) and SetContent, used by localization, keep the index and
// the non-empty invariant intact.
package scenario
