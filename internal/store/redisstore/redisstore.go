// Package redisstore implements store.SlotStore on Redis, for deployments
// where several players share a save backend.
//
// Key layout, under a configurable prefix (default "novel:"):
//
//	<prefix>slots                      ZSET  member=name score=seq
//	<prefix>slot:<name>                HASH  scenario_hash state state_hash inspector seq
//	<prefix>slot:<name>:history        ZSET  member=state_hash score=seq (NX)
//	<prefix>slot:<name>:states         HASH  state_hash -> state
//	<prefix>slot:<name>:scenarios      HASH  state_hash -> scenario_hash
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/roach88/novel/internal/store"
)

// DefaultPrefix namespaces every key the store writes.
const DefaultPrefix = "novel:"

// Store keeps save slots in Redis.
type Store struct {
	client *redis.Client
	prefix string
}

var _ store.SlotStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// Open connects to the Redis server at url (redis://host:port/db) and
// pings it.
func Open(ctx context.Context, url string, opts ...Option) (*Store, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url is required")
	}

	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(redisOpts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return New(client, opts...), nil
}

// New wraps an existing client.
func New(client *redis.Client, opts ...Option) *Store {
	s := &Store{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) indexKey() string             { return s.prefix + "slots" }
func (s *Store) slotKey(name string) string    { return s.prefix + "slot:" + name }
func (s *Store) historyKey(name string) string { return s.slotKey(name) + ":history" }
func (s *Store) statesKey(name string) string  { return s.slotKey(name) + ":states" }
func (s *Store) scenariosKey(name string) string {
	return s.slotKey(name) + ":scenarios"
}

// WriteSlot replaces the latest save and records the state in history
// unless the same state hash is already there. All writes go out in one
// MULTI/EXEC.
func (s *Store) WriteSlot(ctx context.Context, slot store.Slot) error {
	if slot.Name == "" {
		return fmt.Errorf("write slot: name is required")
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.slotKey(slot.Name),
			"scenario_hash", slot.ScenarioHash,
			"state", string(slot.State),
			"state_hash", slot.StateHash,
			"inspector", string(slot.Inspector),
			"seq", slot.Seq,
		)
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(slot.Seq), Member: slot.Name})
		pipe.ZAddNX(ctx, s.historyKey(slot.Name), redis.Z{Score: float64(slot.Seq), Member: slot.StateHash})
		pipe.HSetNX(ctx, s.statesKey(slot.Name), slot.StateHash, string(slot.State))
		pipe.HSetNX(ctx, s.scenariosKey(slot.Name), slot.StateHash, slot.ScenarioHash)
		return nil
	})
	if err != nil {
		return fmt.Errorf("write slot %q: %w", slot.Name, err)
	}
	return nil
}

// ReadSlot returns the latest save, or an error wrapping store.ErrSlotNotFound.
func (s *Store) ReadSlot(ctx context.Context, name string) (store.Slot, error) {
	fields, err := s.client.HGetAll(ctx, s.slotKey(name)).Result()
	if err != nil {
		return store.Slot{}, fmt.Errorf("read slot %q: %w", name, err)
	}
	if len(fields) == 0 {
		return store.Slot{}, fmt.Errorf("read slot %q: %w", name, store.ErrSlotNotFound)
	}
	return slotFromFields(name, fields)
}

// ListSlots returns every slot ordered by seq, then name. Redis orders
// equal scores lexicographically, which matches the SQLite tie-breaker.
func (s *Store) ListSlots(ctx context.Context) ([]store.Slot, error) {
	names, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}

	slots := make([]store.Slot, 0, len(names))
	for _, name := range names {
		slot, err := s.ReadSlot(ctx, name)
		if errors.Is(err, store.ErrSlotNotFound) {
			continue // index entry outlived its hash
		}
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// DeleteSlot removes a slot and its history.
func (s *Store) DeleteSlot(ctx context.Context, name string) error {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.slotKey(name))
		pipe.Del(ctx, s.historyKey(name), s.statesKey(name), s.scenariosKey(name))
		pipe.ZRem(ctx, s.indexKey(), name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete slot %q: %w", name, err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("delete slot %q: %w", name, store.ErrSlotNotFound)
	}
	return nil
}

// SlotHistory returns the distinct states of a slot, oldest first.
func (s *Store) SlotHistory(ctx context.Context, name string) ([]store.Slot, error) {
	entries, err := s.client.ZRangeWithScores(ctx, s.historyKey(name), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("slot history %q: %w", name, err)
	}
	if len(entries) == 0 {
		return []store.Slot{}, nil
	}

	hashes := make([]string, len(entries))
	for i, e := range entries {
		hashes[i], _ = e.Member.(string)
	}
	states, err := s.client.HMGet(ctx, s.statesKey(name), hashes...).Result()
	if err != nil {
		return nil, fmt.Errorf("slot history %q: %w", name, err)
	}

	scenarios, err := s.client.HMGet(ctx, s.scenariosKey(name), hashes...).Result()
	if err != nil {
		return nil, fmt.Errorf("slot history %q: %w", name, err)
	}

	history := make([]store.Slot, 0, len(entries))
	for i, e := range entries {
		state, _ := states[i].(string)
		scenarioHash, _ := scenarios[i].(string)
		history = append(history, store.Slot{
			Name:         name,
			ScenarioHash: scenarioHash,
			State:        []byte(state),
			StateHash:    hashes[i],
			Seq:          int64(e.Score),
		})
	}
	return history, nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func slotFromFields(name string, fields map[string]string) (store.Slot, error) {
	seq, err := strconv.ParseInt(fields["seq"], 10, 64)
	if err != nil {
		return store.Slot{}, fmt.Errorf("read slot %q: bad seq %q: %w", name, fields["seq"], err)
	}
	slot := store.Slot{
		Name:         name,
		ScenarioHash: fields["scenario_hash"],
		State:        []byte(fields["state"]),
		StateHash:    fields["state_hash"],
		Seq:          seq,
	}
	if inspector := fields["inspector"]; inspector != "" {
		slot.Inspector = []byte(inspector)
	}
	return slot, nil
}
