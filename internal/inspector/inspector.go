// Package inspector folds stage-direction commands into a snapshot of what
// the screen currently shows.
//
// An Inspector is derived state: it is rebuilt from replayed commands
// whenever a session needs the full visual state, for example after
// resuming a save that stores only cursor and history. Extract is the
// inverse of Keep, producing the smallest command list that rebuilds the
// same snapshot from empty.
package inspector

import (
	"fmt"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/novel/internal/ir"
)

// SpriteState is the on-screen state of one named sprite.
type SpriteState struct {
	Source   *string      `yaml:"source,omitempty"`
	Position *ir.Position `yaml:"position,omitempty"`
}

// Inspector is a last-write-wins snapshot of the visual layers.
type Inspector struct {
	Sprites    map[string]SpriteState
	Narrator   *string
	Background *string
	Scene      *ir.SceneCommand // nil after remove or before any scene command
}

// New returns an empty snapshot.
func New() *Inspector {
	return &Inspector{Sprites: make(map[string]SpriteState)}
}

// Keep folds stage-direction content into the snapshot in order.
// Content that is not a stage direction is ignored.
func (in *Inspector) Keep(contents ...ir.Steps) {
	if in.Sprites == nil {
		in.Sprites = make(map[string]SpriteState)
	}
	for _, c := range contents {
		switch v := c.(type) {
		case ir.Sprite:
			in.keepSprite(v.Command)
		case ir.SpriteNarrator:
			in.Narrator = cloneString(v.Portrait)
		case ir.Background:
			switch v.Command.Kind {
			case ir.BackgroundChange:
				in.Background = cloneString(v.Command.Source)
			case ir.BackgroundNone:
				in.Background = nil
			}
		case ir.Scene:
			if v.Command.Kind == ir.SceneRemove {
				in.Scene = nil
				continue
			}
			cmd := cloneScene(v.Command)
			in.Scene = &cmd
		}
	}
}

// KeepSteps is Keep over the content of steps.
func (in *Inspector) KeepSteps(steps []ir.Step) {
	for _, s := range steps {
		in.Keep(s.Content)
	}
}

func (in *Inspector) keepSprite(cmd ir.SpriteCommand) {
	switch {
	case cmd.Kind.Shows():
		in.Sprites[cmd.Name] = SpriteState{
			Source:   cloneString(cmd.Source),
			Position: clonePosition(cmd.Position),
		}
	case cmd.Kind.Hides():
		delete(in.Sprites, cmd.Name)
	case cmd.Kind == ir.SpriteMove:
		// Moving an absent sprite is a no-op.
		state, ok := in.Sprites[cmd.Name]
		if !ok || cmd.Position == nil {
			return
		}
		state.Position = clonePosition(cmd.Position)
		in.Sprites[cmd.Name] = state
	}
}

// Extract returns the minimal ordered command list that rebuilds this
// snapshot from empty: narrator, background, sprites by name, scene.
func (in *Inspector) Extract() []ir.Steps {
	var out []ir.Steps

	if in.Narrator != nil {
		out = append(out, ir.SpriteNarrator{Portrait: cloneString(in.Narrator)})
	}
	if in.Background != nil {
		out = append(out, ir.Background{Command: ir.BackgroundCommand{
			Kind:   ir.BackgroundChange,
			Source: cloneString(in.Background),
		}})
	}
	for _, name := range slices.Sorted(maps.Keys(in.Sprites)) {
		state := in.Sprites[name]
		out = append(out, ir.Sprite{Command: ir.SpriteCommand{
			Kind:     ir.SpriteSet,
			Name:     name,
			Source:   cloneString(state.Source),
			Position: clonePosition(state.Position),
		}})
	}
	if in.Scene != nil {
		out = append(out, ir.Scene{Command: cloneScene(*in.Scene)})
	}

	return out
}

// Clone returns an independent copy.
func (in *Inspector) Clone() *Inspector {
	out := New()
	for name, state := range in.Sprites {
		out.Sprites[name] = SpriteState{
			Source:   cloneString(state.Source),
			Position: clonePosition(state.Position),
		}
	}
	out.Narrator = cloneString(in.Narrator)
	out.Background = cloneString(in.Background)
	if in.Scene != nil {
		cmd := cloneScene(*in.Scene)
		out.Scene = &cmd
	}
	return out
}

// Equal reports whether two snapshots show the same thing.
// A nil and an empty sprite map are equal.
func (in *Inspector) Equal(other *Inspector) bool {
	if len(in.Sprites) != len(other.Sprites) {
		return false
	}
	for name, a := range in.Sprites {
		b, ok := other.Sprites[name]
		if !ok || !equalPtr(a.Source, b.Source) || !equalPtr(a.Position, b.Position) {
			return false
		}
	}
	if !equalPtr(in.Narrator, other.Narrator) || !equalPtr(in.Background, other.Background) {
		return false
	}
	if (in.Scene == nil) != (other.Scene == nil) {
		return false
	}
	if in.Scene != nil {
		a, b := in.Scene, other.Scene
		if a.Kind != b.Kind || !equalPtr(a.Source, b.Source) || !equalPtr(a.Animation, b.Animation) {
			return false
		}
	}
	return true
}

type wire struct {
	Sprites    map[string]SpriteState `yaml:"sprites,omitempty"`
	Narrator   *string                `yaml:"narrator,omitempty"`
	Background *string                `yaml:"background,omitempty"`
	Scene      *ir.SceneCommandNode   `yaml:"scene,omitempty"`
}

// MarshalYAML encodes the snapshot for save-slot thumbnails.
func (in Inspector) MarshalYAML() (any, error) {
	w := wire{Sprites: in.Sprites, Narrator: in.Narrator, Background: in.Background}
	if in.Scene != nil {
		w.Scene = &ir.SceneCommandNode{Command: *in.Scene}
	}
	return w, nil
}

// UnmarshalYAML decodes a snapshot written by MarshalYAML.
func (in *Inspector) UnmarshalYAML(n *yaml.Node) error {
	var w wire
	if err := n.Decode(&w); err != nil {
		return fmt.Errorf("decode inspector: %w", err)
	}
	*in = Inspector{Sprites: w.Sprites, Narrator: w.Narrator, Background: w.Background}
	if in.Sprites == nil {
		in.Sprites = make(map[string]SpriteState)
	}
	if w.Scene != nil {
		cmd := w.Scene.Command
		in.Scene = &cmd
	}
	return nil
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func clonePosition(p *ir.Position) *ir.Position {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneScene(cmd ir.SceneCommand) ir.SceneCommand {
	out := ir.SceneCommand{Kind: cmd.Kind, Source: cloneString(cmd.Source)}
	if cmd.Animation != nil {
		anim := *cmd.Animation
		out.Animation = &anim
	}
	return out
}
