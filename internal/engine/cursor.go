package engine

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/roach88/novel/internal/ir"
	"github.com/roach88/novel/internal/scenario"
)

// Signal reports the outcome of a cursor move.
type Signal int

const (
	// Moved means the cursor now rests on a new interactive step.
	Moved Signal = iota + 1
	// Blocked means there is no further material; the cursor did not move
	// and callers must not re-render.
	Blocked
)

// String returns the signal name used in traces.
func (s Signal) String() string {
	switch s {
	case Moved:
		return "moved"
	case Blocked:
		return "blocked"
	}
	return "unknown"
}

// Cursor walks scenario graphs. It holds configuration only; the
// playthrough state is the ir.ExecutionState passed to each call.
//
// Thread-safety: a Cursor is immutable after construction and safe for
// concurrent use. The graph and state passed in must not be mutated
// concurrently with a call.
type Cursor struct {
	maxHops int
	logger  *slog.Logger
}

// CursorOption configures a Cursor.
type CursorOption func(*Cursor)

// WithMaxHops sets the jump quota per walk.
//
// Default: 1024 (DefaultMaxHops). Values below 1 are ignored.
func WithMaxHops(n int) CursorOption {
	return func(c *Cursor) {
		if n > 0 {
			c.maxHops = n
		}
	}
}

// WithLogger sets the logger for skipped jumps and healed cursors.
func WithLogger(l *slog.Logger) CursorOption {
	return func(c *Cursor) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCursor creates a cursor with the given options.
func NewCursor(opts ...CursorOption) *Cursor {
	c := &Cursor{maxHops: DefaultMaxHops, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxHops returns the configured jump quota.
func (c *Cursor) MaxHops() int {
	return c.maxHops
}

// Initialize positions a new playthrough at the first step with an empty
// history. No stage directions run; use Settle or Advance to reach the
// first interactive step and collect the commands on the way.
func Initialize(g *scenario.Graph) ir.ExecutionState {
	return ir.ExecutionState{Current: g.First().ID}
}

// CurrentStep returns the step at the cursor.
func CurrentStep(g *scenario.Graph, s *ir.ExecutionState) (ir.Step, bool) {
	return g.Lookup(s.Current)
}

// RecordChoice records value for step, overwriting any earlier choice.
func RecordChoice(s *ir.ExecutionState, step uuid.UUID, value string) {
	s.History.Set(step, value)
}

// Rewind returns a state positioned at the first step with a copy of the
// history. A following Advance plus replay regenerates the on-screen
// state from history alone.
func Rewind(g *scenario.Graph, s ir.ExecutionState) ir.ExecutionState {
	return ir.ExecutionState{Current: g.First().ID, History: s.History.Clone()}
}

// walkResult is the outcome of one walk.
type walkResult struct {
	landing  int       // index of the interactive step reached, -1 at end of graph
	commands []ir.Step // stage directions passed, in order
}

// walk moves from start (inclusive) in authored order, following jumps
// whose condition holds, until it reaches an interactive step or the end.
func (c *Cursor) walk(g *scenario.Graph, h ir.History, start int) (walkResult, error) {
	quota := NewQuotaEnforcer(c.maxHops)
	guard := newJumpGuard()
	var commands []ir.Step

	i := start
	for i < g.Len() {
		step := g.At(i)

		switch content := step.Content.(type) {
		case ir.Jump:
			if guard.WouldCycle(step.ID) {
				c.logger.Debug("jump already fired in this walk, falling through",
					"step", step.ID)
				i++
				continue
			}
			if !Resolve(content.Condition, h) {
				i++
				continue
			}
			target, ok := g.IndexOf(content.Target)
			if !ok {
				c.logger.Warn("jump target not found, falling through",
					"step", step.ID,
					"target", content.Target)
				i++
				continue
			}
			if err := quota.Check(); err != nil {
				return walkResult{}, err
			}
			guard.Record(step.ID)
			i = target

		default:
			if ir.IsInteractive(content) {
				return walkResult{landing: i, commands: commands}, nil
			}
			if ir.IsStageDirection(content) {
				commands = append(commands, step)
			}
			i++
		}
	}

	return walkResult{landing: -1, commands: commands}, nil
}

// startIndex returns where a walk from the cursor begins. The walk starts
// after an interactive step and at any other step, so a cursor left on a
// stage direction by Initialize or Rewind picks it up. A cursor whose step
// no longer exists heals to the start of the graph.
func (c *Cursor) startIndex(g *scenario.Graph, s *ir.ExecutionState) int {
	idx, ok := g.IndexOf(s.Current)
	if !ok {
		c.logger.Warn("cursor step not found, restarting from first step",
			"step", s.Current)
		return 0
	}
	if ir.IsInteractive(g.At(idx).Content) {
		return idx + 1
	}
	return idx
}

// Advance moves the cursor to the next interactive step.
//
// Returns Blocked, and leaves the cursor unchanged, when the walk reaches
// the end of the graph. When the hop quota is exceeded it returns Blocked
// together with a RuntimeError (see IsQuotaError).
func (c *Cursor) Advance(g *scenario.Graph, s *ir.ExecutionState) (Signal, error) {
	sig, _, err := c.AdvanceReplay(g, s)
	return sig, err
}

// AdvanceReplay is Advance that also returns the stage directions passed.
// Live sessions use it so the commands they render are exactly the ones
// the walk crossed.
func (c *Cursor) AdvanceReplay(g *scenario.Graph, s *ir.ExecutionState) (Signal, []ir.Step, error) {
	return c.moveFrom(g, s, c.startIndex(g, s))
}

// Settle moves a cursor that rests on a non-interactive step to the first
// interactive step at or after it. A cursor already on an interactive step
// stays put and Settle returns Moved with no commands.
func (c *Cursor) Settle(g *scenario.Graph, s *ir.ExecutionState) (Signal, []ir.Step, error) {
	idx, ok := g.IndexOf(s.Current)
	if ok && ir.IsInteractive(g.At(idx).Content) {
		return Moved, nil, nil
	}
	return c.moveFrom(g, s, c.startIndex(g, s))
}

func (c *Cursor) moveFrom(g *scenario.Graph, s *ir.ExecutionState, start int) (Signal, []ir.Step, error) {
	res, err := c.walk(g, s.History, start)
	if err != nil {
		if se, ok := err.(*StepsExceededError); ok {
			return Blocked, nil, NewQuotaError(s.Current, se)
		}
		return Blocked, nil, err
	}
	if res.landing < 0 {
		return Blocked, nil, nil
	}
	s.Current = g.At(res.landing).ID
	return Moved, res.commands, nil
}

// segment is one leg of a reconstructed path: the stage directions passed
// and the interactive step reached (-1 at end of graph).
type segment struct {
	stop     int
	commands []ir.Step
}

// path reconstructs the route from the start of the graph to the cursor
// along the recorded history. It stops at the cursor, at the end of the
// graph, or when an interactive step comes round again (the same history
// would loop forever).
func (c *Cursor) path(g *scenario.Graph, s *ir.ExecutionState) ([]segment, error) {
	if idx, ok := g.IndexOf(s.Current); !ok || !ir.IsInteractive(g.At(idx).Content) {
		// Not settled yet: nothing has been crossed.
		return []segment{{stop: -1}}, nil
	}

	var segments []segment
	visited := make(map[int]bool)

	start := 0
	for {
		res, err := c.walk(g, s.History, start)
		if err != nil {
			if se, ok := err.(*StepsExceededError); ok {
				return nil, NewQuotaError(s.Current, se)
			}
			return nil, err
		}
		segments = append(segments, segment{stop: res.landing, commands: res.commands})

		if res.landing < 0 || g.At(res.landing).ID == s.Current {
			return segments, nil
		}
		if visited[res.landing] {
			c.logger.Debug("replay path revisits step, stopping",
				"step", g.At(res.landing).ID,
				"cursor", s.Current)
			return segments, nil
		}
		visited[res.landing] = true
		start = res.landing + 1
	}
}

// ReplayCommands returns the stage directions crossed between the previous
// interactive step on the recorded path and the cursor. History is not
// modified.
func (c *Cursor) ReplayCommands(g *scenario.Graph, s *ir.ExecutionState) ([]ir.Step, error) {
	segments, err := c.path(g, s)
	if err != nil {
		return nil, err
	}
	return segments[len(segments)-1].commands, nil
}

// ReplayFromStart returns every stage direction on the recorded path from
// the first step to the cursor, in order. Used after loading a save.
// History is not modified.
func (c *Cursor) ReplayFromStart(g *scenario.Graph, s *ir.ExecutionState) ([]ir.Step, error) {
	segments, err := c.path(g, s)
	if err != nil {
		return nil, err
	}
	var out []ir.Step
	for _, seg := range segments {
		out = append(out, seg.commands...)
	}
	return out, nil
}

// Save serializes the state with the graph's content hash.
func Save(g *scenario.Graph, s ir.ExecutionState) ([]byte, error) {
	hash, err := g.Hash()
	if err != nil {
		return nil, fmt.Errorf("save state: %w", err)
	}
	file := ir.SaveFile{
		Version:      ir.StateVersion,
		ScenarioHash: hash,
		Current:      s.Current,
		History:      s.History,
	}
	data, err := yaml.Marshal(file)
	if err != nil {
		return nil, fmt.Errorf("save state: %w", err)
	}
	return data, nil
}

// Load deserializes a saved state and checks that its cursor and every
// history step still exist in g.
//
// Returns (nil, false) on any failure so the caller can fall back to
// Initialize. Failures are logged at debug level, never raised.
func Load(g *scenario.Graph, data []byte) (*ir.ExecutionState, bool) {
	var file ir.SaveFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		slog.Debug("load state: decode failed", "error", err)
		return nil, false
	}
	if file.Version != ir.StateVersion {
		slog.Debug("load state: unsupported version", "version", file.Version)
		return nil, false
	}
	if !g.Contains(file.Current) {
		slog.Debug("load state: cursor step not in scenario", "step", file.Current)
		return nil, false
	}
	seen := make(map[uuid.UUID]bool, len(file.History))
	for _, d := range file.History {
		if !g.Contains(d.Step) {
			slog.Debug("load state: history step not in scenario", "step", d.Step)
			return nil, false
		}
		if seen[d.Step] {
			slog.Debug("load state: duplicate history entry", "step", d.Step)
			return nil, false
		}
		seen[d.Step] = true
	}

	if file.ScenarioHash != "" {
		if hash, err := g.Hash(); err == nil && hash != file.ScenarioHash {
			slog.Debug("load state: scenario changed since save",
				"saved", file.ScenarioHash,
				"current", hash)
		}
	}

	state := &ir.ExecutionState{Current: file.Current}
	if len(file.History) > 0 {
		state.History = file.History
	}
	return state, true
}
