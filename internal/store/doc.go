// Package store provides SQLite-backed storage for save slots.
//
// A slot holds the latest serialized ExecutionState of one playthrough,
// the content hash of the scenario it was saved against, and an inspector
// snapshot for thumbnails. Every distinct state written to a slot is also
// kept in slot_history, deduplicated by state hash, so a player can step
// back to an earlier save.
//
// # Ordering
//
//   - All ordering uses seq INTEGER from a logical clock, never timestamps
//   - Queries include a tie-breaker: ORDER BY seq, name COLLATE BINARY
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: slot_history rows cascade with their slot
//
// The redisstore subpackage implements the same SlotStore contract on Redis.
package store
