package engine

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/novel/internal/inspector"
	"github.com/roach88/novel/internal/ir"
	"github.com/roach88/novel/internal/scenario"
)

// Frame is what the renderer draws after a tick.
type Frame struct {
	// Seq is the logical clock value of this frame.
	Seq int64

	// Commands are the stage directions crossed since the previous frame,
	// in order. Already folded into the session inspector.
	Commands []ir.Step

	// Current is the step at the cursor after the tick.
	Current ir.Step

	// Blocked is set when the last move found no further material.
	// The cursor did not move and the renderer should keep its screen.
	Blocked bool
}

// Session owns one playthrough: the graph, its state, the input queue and
// the inspector that mirrors what is on screen.
//
// Thread-safety: Enqueue may be called from any goroutine. Tick and Run
// serialize on an internal mutex; accessors return copies.
type Session struct {
	mu        sync.Mutex
	graph     *scenario.Graph
	state     ir.ExecutionState
	cursor    *Cursor
	queue     *inputQueue
	clock     *Clock
	inspector *inspector.Inspector
	logger    *slog.Logger

	// fresh is set until the first tick has emitted the opening frame.
	fresh bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithCursor sets the cursor used to walk the graph.
func WithCursor(c *Cursor) SessionOption {
	return func(s *Session) {
		if c != nil {
			s.cursor = c
		}
	}
}

// WithClock sets the logical clock that stamps frames and saves.
func WithClock(c *Clock) SessionOption {
	return func(s *Session) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithSessionLogger sets the logger for rejected inputs.
func WithSessionLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSession starts a new playthrough of g.
func NewSession(g *scenario.Graph, opts ...SessionOption) *Session {
	return ResumeSession(g, Initialize(g), opts...)
}

// ResumeSession continues a playthrough from a loaded state. The first
// tick replays the recorded path so the inspector matches the screen the
// player left.
func ResumeSession(g *scenario.Graph, state ir.ExecutionState, opts ...SessionOption) *Session {
	s := &Session{
		graph:     g,
		state:     state.Clone(),
		cursor:    NewCursor(),
		queue:     newInputQueue(),
		clock:     NewClock(),
		inspector: inspector.New(),
		logger:    slog.Default(),
		fresh:     true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enqueue adds a player input. Returns false after Close.
func (s *Session) Enqueue(in Input) bool {
	return s.queue.Enqueue(in)
}

// Pending returns the number of queued inputs.
func (s *Session) Pending() int {
	return s.queue.Len()
}

// Close stops accepting inputs. Run returns once the queue drains.
func (s *Session) Close() {
	s.queue.Close()
}

// Tick applies every queued input in FIFO order and returns the frame to
// render. The first tick of a session also emits the opening commands.
//
// On a rejected input (see IsInputError) or an exceeded hop quota, Tick
// stops draining and returns the frame so far together with the error;
// later inputs stay queued.
func (s *Session) Tick() (Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var commands []ir.Step
	blocked := false

	if s.fresh {
		s.fresh = false
		sig, cmds, err := s.open()
		s.inspector.KeepSteps(cmds)
		commands = append(commands, cmds...)
		blocked = sig == Blocked
		if err != nil {
			return s.frame(commands, blocked), err
		}
	}

	for {
		in, ok := s.queue.TryDequeue()
		if !ok {
			break
		}
		sig, cmds, err := s.apply(in)
		s.inspector.KeepSteps(cmds)
		commands = append(commands, cmds...)
		if err != nil {
			return s.frame(commands, blocked), err
		}
		blocked = sig == Blocked
	}

	return s.frame(commands, blocked), nil
}

// open produces the opening commands. A state already resting on an
// interactive step was loaded from a save, so its whole path is replayed.
func (s *Session) open() (Signal, []ir.Step, error) {
	if step, ok := CurrentStep(s.graph, &s.state); ok && ir.IsInteractive(step.Content) {
		cmds, err := s.cursor.ReplayFromStart(s.graph, &s.state)
		if err != nil {
			return Blocked, nil, err
		}
		return Moved, cmds, nil
	}
	return s.cursor.Settle(s.graph, &s.state)
}

// apply handles one input against the current step.
func (s *Session) apply(in Input) (Signal, []ir.Step, error) {
	step, ok := CurrentStep(s.graph, &s.state)

	switch in.Kind {
	case InputAdvance:
		if ok && ir.OptionKeys(step.Content) != nil {
			return Blocked, nil, NewInputError(step.ID, "advance on a %s step, choose an option", ir.Kind(step.Content))
		}
		return s.cursor.AdvanceReplay(s.graph, &s.state)

	case InputChoose:
		if in.Step != s.state.Current {
			return Blocked, nil, NewInputError(in.Step, "choice for step %s, cursor is at %s", in.Step, s.state.Current)
		}
		if !ok {
			return Blocked, nil, NewInputError(in.Step, "step not in scenario")
		}
		keys := ir.OptionKeys(step.Content)
		if keys == nil {
			return Blocked, nil, NewInputError(step.ID, "choice on a %s step", ir.Kind(step.Content))
		}
		if !slices.Contains(keys, in.Key) {
			return Blocked, nil, NewInputError(step.ID, "unknown option key %q", in.Key)
		}
		RecordChoice(&s.state, step.ID, in.Key)
		return s.cursor.AdvanceReplay(s.graph, &s.state)
	}

	return Blocked, nil, NewInputError(in.Step, "unknown input kind %d", in.Kind)
}

func (s *Session) frame(commands []ir.Step, blocked bool) Frame {
	current, _ := CurrentStep(s.graph, &s.state)
	return Frame{
		Seq:      s.clock.Next(),
		Commands: commands,
		Current:  current,
		Blocked:  blocked,
	}
}

// Run emits the opening frame, then ticks whenever input arrives and
// hands each frame to render. Rejected inputs and quota errors are logged
// and the loop continues; an error from render stops it.
//
// Returns ctx.Err() on cancellation (closing the queue) and nil once the
// queue is closed and drained.
func (s *Session) Run(ctx context.Context, render func(Frame) error) error {
	if err := s.tickAndRender(render); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			s.queue.Close()
			return ctx.Err()

		case <-s.queue.Wait():
			// The signal channel closes with the queue, so this case
			// fires repeatedly once closed; stop when nothing is left.
			if s.queue.Len() == 0 {
				if s.queue.Closed() {
					return nil
				}
				continue
			}
			// Wake-ups coalesce, and a rejected input stops a tick early,
			// so keep ticking until the queue is empty.
			for s.queue.Len() > 0 && ctx.Err() == nil {
				if err := s.tickAndRender(render); err != nil {
					return err
				}
			}
		}
	}
}

func (s *Session) tickAndRender(render func(Frame) error) error {
	frame, err := s.Tick()
	if err != nil {
		if IsInputError(err) {
			s.logger.Warn("input rejected", "error", err)
		} else {
			s.logger.Error("tick failed", "error", err)
		}
	}
	return render(frame)
}

// Rewind moves the playthrough back to the first step, keeping every
// decision. The next tick replays from the start like a fresh session.
func (s *Session) Rewind() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Rewind(s.graph, s.state)
	s.inspector = inspector.New()
	s.fresh = true
}

// State returns a copy of the playthrough state.
func (s *Session) State() ir.ExecutionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Inspector returns a copy of the on-screen snapshot.
func (s *Session) Inspector() *inspector.Inspector {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inspector.Clone()
}

// Current returns the step at the cursor.
func (s *Session) Current() (ir.Step, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CurrentStep(s.graph, &s.state)
}

// Graph returns the scenario the session plays.
func (s *Session) Graph() *scenario.Graph {
	return s.graph
}

// Seq returns the last frame or save sequence number.
func (s *Session) Seq() int64 {
	return s.clock.Current()
}
