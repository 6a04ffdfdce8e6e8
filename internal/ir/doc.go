// Package ir provides the canonical data model for novel scenarios.
//
// This package contains the authored step types, the branch condition
// tree, and the persisted execution state. All other internal packages
// import ir; ir imports nothing internal. This keeps the data model the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Step identity is a uuid.UUID; uuid.Nil is reserved for the sentinel step
//   - Steps and Condition are sealed interfaces (tagged unions)
//   - All YAML keys use snake_case
//   - Every tagged union encodes as a single-key mapping {variant: payload}
//   - History holds at most one Decision per step identity
package ir
