// Package harness runs scripted playthroughs of scenarios.
//
// A playthrough feeds player actions to a live engine session and checks
// the resulting trace and final state. Playthroughs double as regression
// tests: traces serialize to canonical JSON for golden file comparison.
//
// # Playthrough Format
//
//	name: cafe_tea
//	description: "Ordering tea skips the coffee line"
//	scenario: ../scenarios/cafe.yaml
//	language: fr          # optional, loads locales/ next to the scenario
//	actions:
//	  - advance: true
//	  - choose: tea
//	  - save: slot1
//	  - load: slot1
//	  - advance: true
//	    expect_error: true
//	assertions:
//	  - type: current_step
//	    step: order
//	  - type: history_contains
//	    step: order
//	    value: tea
//	  - type: sprite_visible
//	    sprite: barista
//	  - type: background
//	    source: bg/cafe.png
//	  - type: blocked
//	  - type: commands_count
//	    count: 2
//
// Steps are referenced by id or by name. Files ending in .play.yaml are
// picked up by Discover.
//
// # Deterministic Runs
//
// Every playthrough gets a fresh in-memory SQLite store for save and load
// actions and a logical clock starting at zero, so traces are identical
// across runs.
package harness
