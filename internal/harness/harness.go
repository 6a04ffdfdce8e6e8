package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/text/language"

	"github.com/roach88/novel/internal/compiler"
	"github.com/roach88/novel/internal/engine"
	"github.com/roach88/novel/internal/locale"
	"github.com/roach88/novel/internal/scenario"
	"github.com/roach88/novel/internal/store"
)

// Harness drives one playthrough against a live session.
type Harness struct {
	graph   *scenario.Graph
	store   *store.Store
	session *engine.Session
	logger  *slog.Logger
}

// Run executes a playthrough and returns the result.
//
// Each playthrough runs in a fresh in-memory database for isolation, so
// save and load actions never touch real slots. Logical clocks start at
// zero, which keeps traces identical across runs.
//
// Execution flow:
// 1. Load the scenario (YAML or CUE) and apply the locale, if any
// 2. Emit the opening frame
// 3. Apply each action as one tick
// 4. Evaluate assertions against the trace and final state
//
// Rejected inputs are recorded in the trace. They fail the result unless
// the action sets expect_error. Errors that prevent the run from starting
// are returned.
func Run(p *Playthrough) (*Result, error) {
	ctx := context.Background()

	g, err := compiler.Load(p.Scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario: %w", err)
	}
	if p.Language != "" {
		if err := localize(ctx, g, p); err != nil {
			return nil, err
		}
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		graph:  g,
		store:  st,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	h.session = h.newSession()

	result := NewResult()
	h.tick("open", result)

	for i, action := range p.Actions {
		if err := h.apply(ctx, action, result); err != nil {
			return nil, fmt.Errorf("actions[%d] (%s): %w", i, action, err)
		}
		last, _ := result.Last()
		switch {
		case last.Error != "" && !action.ExpectError:
			result.AddError(fmt.Sprintf("actions[%d] (%s): unexpected error: %s", i, action, last.Error))
		case last.Error == "" && action.ExpectError:
			result.AddError(fmt.Sprintf("actions[%d] (%s): expected an error", i, action))
		}
	}

	result.Final = h.session.State()
	result.Screen = h.session.Inspector()

	for _, msg := range EvaluateAssertions(result, p.Assertions, g) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) newSession(opts ...engine.SessionOption) *engine.Session {
	return engine.NewSession(h.graph, h.sessionOptions(opts...)...)
}

func (h *Harness) sessionOptions(opts ...engine.SessionOption) []engine.SessionOption {
	return append([]engine.SessionOption{
		engine.WithCursor(engine.NewCursor(engine.WithLogger(h.logger))),
		engine.WithSessionLogger(h.logger),
	}, opts...)
}

// apply performs one action. Only store failures are returned; session
// rejections land in the trace.
func (h *Harness) apply(ctx context.Context, action Action, result *Result) error {
	switch {
	case action.Advance:
		h.session.Enqueue(engine.Advance())
		h.tick(action.String(), result)

	case action.Choose != "":
		current, _ := h.session.Current()
		h.session.Enqueue(engine.Choose(current.ID, action.Choose))
		h.tick(action.String(), result)

	case action.Save != "":
		if err := h.session.SaveSlot(ctx, h.store, action.Save); err != nil {
			return err
		}
		current, _ := h.session.Current()
		result.Trace = append(result.Trace, TraceEvent{
			Action:   action.String(),
			Seq:      h.session.Seq(),
			Current:  current,
			Commands: nil,
		})
		h.logger.Info("slot saved", "slot", action.Save, "step", current.ID)

	case action.Load != "":
		session, resumed, err := engine.ResumeSlot(ctx, h.store, action.Load, h.graph, h.sessionOptions()...)
		if err != nil {
			return err
		}
		h.session.Close()
		h.session = session
		h.tick(action.String(), result)
		if !resumed {
			last := &result.Trace[len(result.Trace)-1]
			last.Error = fmt.Sprintf("slot %q not found", action.Load)
		}
	}
	return nil
}

// tick runs one session tick and appends its frame to the trace.
func (h *Harness) tick(action string, result *Result) {
	frame, err := h.session.Tick()
	event := TraceEvent{
		Action:   action,
		Seq:      frame.Seq,
		Current:  frame.Current,
		Commands: frame.Commands,
		Blocked:  frame.Blocked,
	}
	if err != nil {
		event.Error = err.Error()
		h.logger.Info("action rejected", "action", action, "error", err)
	}
	result.Trace = append(result.Trace, event)
}

// localize adapts g to the playthrough language.
func localize(ctx context.Context, g *scenario.Graph, p *Playthrough) error {
	tag, err := language.Parse(p.Language)
	if err != nil {
		return fmt.Errorf("language %q: %w", p.Language, err)
	}
	sets, err := locale.LoadDir(ctx, p.Locales)
	if err != nil {
		return fmt.Errorf("failed to load locales: %w", err)
	}

	base := language.Und
	if g.Language != "" {
		if base, err = language.Parse(g.Language); err != nil {
			return fmt.Errorf("scenario language %q: %w", g.Language, err)
		}
	}

	overlay := locale.NewOverlay(base, g, sets...)
	overlay.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if _, err := overlay.Adapt(tag, g); err != nil {
		if errors.Is(err, locale.ErrUnknownLanguage) {
			return fmt.Errorf("no localization for %s in %s: %w", tag, p.Locales, err)
		}
		return err
	}
	return nil
}
