package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/novel/internal/engine"
	"github.com/roach88/novel/internal/ir"
	"github.com/roach88/novel/internal/store"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	Database string
	Slot     string
	Language string
	Locales  string
	MaxHops  int
	Fresh    bool // ignore the saved slot
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}
	cfg := rootOpts.Config

	cmd := &cobra.Command{
		Use:   "play <scenario>",
		Short: "Play a scenario in the terminal",
		Long: `Play a scenario interactively, reading player input from stdin.

The session resumes from the save slot when it fits the scenario and
starts over otherwise. On exit the playthrough is saved to the slot.

Input:
  <enter>         advance past a line of dialogue
  <n> or <key>    pick option n (1-based) or the option with that key
  :save           save to the slot now
  :quit           save and exit (end of input does the same)

Example:
  novel play --db ./saves.db --slot chapter1 ./story.yaml
  novel play --lang fr ./story.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", cfg.Database, "path to SQLite save database")
	cmd.Flags().StringVar(&opts.Slot, "slot", cfg.Slot, "save slot name")
	cmd.Flags().StringVar(&opts.Language, "lang", cfg.Language, "play a localization (BCP 47 tag)")
	cmd.Flags().StringVar(&opts.Locales, "locales", cfg.LocalesDir, "localization directory (default: locales/ next to the scenario)")
	cmd.Flags().IntVar(&opts.MaxHops, "max-hops", cfg.MaxHops, "jump quota per cursor walk")
	cmd.Flags().BoolVar(&opts.Fresh, "new", false, "start a new playthrough, ignoring the slot")

	return cmd
}

func runPlay(opts *PlayOptions, path string, cmd *cobra.Command) error {
	g, err := LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	slog.Info("scenario loaded", "path", path, "steps", g.Len())

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	if opts.Language != "" {
		if _, err := applyLocale(ctx, g, opts.Language, localesDir(opts.Locales, path)); err != nil {
			return WrapExitError(ExitCommandError, "failed to apply localization", err)
		}
	}

	st, err := openSlots(ctx, opts.RootOptions, opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open slot store", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing slot store", "error", closeErr)
		}
	}()

	sessionOpts := []engine.SessionOption{
		engine.WithCursor(engine.NewCursor(engine.WithMaxHops(opts.MaxHops))),
	}
	var session *engine.Session
	resumed := false
	if opts.Fresh {
		session = engine.NewSession(g, sessionOpts...)
	} else {
		session, resumed, err = engine.ResumeSlot(ctx, st, opts.Slot, g, sessionOpts...)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read save slot", err)
		}
	}
	slog.Info("session ready", "slot", opts.Slot, "resumed", resumed)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
			// Parent context cancelled (e.g., from test)
		}
	}()

	w := cmd.OutOrStdout()
	if opts.Format != "json" && g.Title != "" {
		fmt.Fprintf(w, "== %s ==\n", g.Title)
	}

	p := &player{
		session: session,
		store:   st,
		slot:    opts.Slot,
		out:     w,
		json:    opts.Format == "json",
		frames:  make(chan engine.Frame, 1),
	}
	go p.readInput(ctx, cmd.InOrStdin())

	runErr := session.Run(ctx, p.render)

	// Save on the way out, even after Ctrl-C.
	if err := session.SaveSlot(context.Background(), st, opts.Slot); err != nil {
		return WrapExitError(ExitFailure, "failed to save playthrough", err)
	}
	if !p.json {
		fmt.Fprintf(w, "Saved to slot %q.\n", opts.Slot)
	}

	if runErr != nil && runErr != context.Canceled && runErr != context.DeadlineExceeded {
		return WrapExitError(ExitFailure, "session error", runErr)
	}
	return nil
}

// player connects stdin to a running session. Each input is computed
// against the frame it answers, so choices always name the step on screen.
type player struct {
	session *engine.Session
	store   store.SlotStore
	slot    string
	out     io.Writer
	json    bool

	// frames hands every rendered frame to the input loop.
	frames chan engine.Frame
}

// frameView is the JSON form of a rendered frame.
type frameView struct {
	Seq      int64     `json:"seq"`
	Commands []ir.Step `json:"commands"`
	Current  ir.Step   `json:"current"`
	Blocked  bool      `json:"blocked"`
}

func (p *player) render(f engine.Frame) error {
	if p.json {
		commands := f.Commands
		if commands == nil {
			commands = []ir.Step{}
		}
		if err := json.NewEncoder(p.out).Encode(frameView{
			Seq: f.Seq, Commands: commands, Current: f.Current, Blocked: f.Blocked,
		}); err != nil {
			return err
		}
	} else {
		renderFrameText(p.out, f)
	}
	p.frames <- f
	return nil
}

// readInput turns stdin lines into session inputs until :quit, end of
// input or cancellation, then closes the session.
func (p *player) readInput(ctx context.Context, in io.Reader) {
	defer p.session.Close()

	var frame engine.Frame
	select {
	case frame = <-p.frames:
	case <-ctx.Done():
		return
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case ":quit", ":q":
			return
		case ":save":
			if err := p.session.SaveSlot(ctx, p.store, p.slot); err != nil {
				slog.Error("save failed", "slot", p.slot, "error", err)
			} else if !p.json {
				fmt.Fprintf(p.out, "Saved to slot %q.\n", p.slot)
			}
			continue
		}

		input, err := parseInput(line, frame.Current)
		if err != nil {
			if !p.json {
				fmt.Fprintf(p.out, "? %v\n", err)
			}
			continue
		}
		if !p.session.Enqueue(input) {
			return
		}

		select {
		case frame = <-p.frames:
		case <-ctx.Done():
			return
		}
	}
}

// parseInput maps a line to an input for the step on screen.
func parseInput(line string, current ir.Step) (engine.Input, error) {
	keys := ir.OptionKeys(current.Content)
	if keys == nil {
		if line != "" {
			return engine.Input{}, fmt.Errorf("press enter to continue")
		}
		return engine.Advance(), nil
	}

	if line == "" {
		return engine.Input{}, fmt.Errorf("choose one of %s", strings.Join(keys, ", "))
	}
	if n, err := strconv.Atoi(line); err == nil {
		if n < 1 || n > len(keys) {
			return engine.Input{}, fmt.Errorf("option %d out of range 1-%d", n, len(keys))
		}
		return engine.Choose(current.ID, keys[n-1]), nil
	}
	if slices.Contains(keys, line) {
		return engine.Choose(current.ID, line), nil
	}
	return engine.Input{}, fmt.Errorf("unknown option %q", line)
}

// renderFrameText prints a frame for a terminal.
func renderFrameText(w io.Writer, f engine.Frame) {
	for _, cmd := range f.Commands {
		fmt.Fprintf(w, "  [%s]\n", describeCommand(cmd.Content))
	}
	if f.Blocked {
		fmt.Fprintln(w, "-- the end --")
		return
	}

	switch c := f.Current.Content.(type) {
	case ir.Text:
		if c.Author != "" {
			fmt.Fprintf(w, "%s: %s\n", c.Author, c.Body)
		} else {
			fmt.Fprintln(w, c.Body)
		}
	case ir.Phrase:
		for i, o := range c.Options {
			fmt.Fprintf(w, "  %d) %s\n", i+1, o.Label)
		}
	case ir.ImageSelect:
		fmt.Fprintf(w, "  (over %s)\n", c.Background)
		for i, o := range c.Options {
			label := o.Label
			if label == "" {
				label = o.Key
			}
			fmt.Fprintf(w, "  %d) %s [%s]\n", i+1, label, o.Image)
		}
	}
}

// describeCommand renders a stage direction on one line.
func describeCommand(s ir.Steps) string {
	switch c := s.(type) {
	case ir.Sprite:
		out := fmt.Sprintf("sprite %s %s", c.Command.Kind, c.Command.Name)
		if c.Command.Source != nil {
			out += " " + *c.Command.Source
		}
		if p := c.Command.Position; p != nil {
			out += fmt.Sprintf(" @%g", float64(*p))
		}
		return out
	case ir.SpriteNarrator:
		if c.Portrait == nil {
			return "narrator cleared"
		}
		return "narrator " + *c.Portrait
	case ir.Background:
		if c.Command.Source != nil {
			return fmt.Sprintf("background %s %s", c.Command.Kind, *c.Command.Source)
		}
		return fmt.Sprintf("background %s", c.Command.Kind)
	case ir.Scene:
		switch {
		case c.Command.Source != nil:
			return fmt.Sprintf("scene %s %s", c.Command.Kind, *c.Command.Source)
		case c.Command.Animation != nil:
			return fmt.Sprintf("scene %s %s", c.Command.Kind, c.Command.Animation.Name)
		}
		return fmt.Sprintf("scene %s", c.Command.Kind)
	}
	return ir.Kind(s)
}
