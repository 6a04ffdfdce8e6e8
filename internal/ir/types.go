package ir

import "github.com/google/uuid"

// Step is one authored node in a scenario.
type Step struct {
	ID      uuid.UUID // Unique within a scenario; uuid.Nil marks the sentinel
	Name    string    // Author-facing label, may be empty
	Content Steps
}

// Sentinel returns the placeholder step kept in an otherwise empty graph.
func Sentinel() Step {
	return Step{ID: uuid.Nil, Content: None{}}
}

// IsSentinel reports whether s is the placeholder step.
func (s Step) IsSentinel() bool {
	return s.ID == uuid.Nil
}

// Steps is a sealed interface over the content a step can carry.
// Only the variants declared in this file implement it.
type Steps interface {
	steps() // Sealed
}

// Text is a line of dialogue. Passing it requires confirmation.
type Text struct {
	Author string `yaml:"author,omitempty"`
	Body   string `yaml:"body"`
}

func (Text) steps() {}

// Jump redirects the cursor to Target when Condition resolves true.
// A nil Condition makes the jump unconditional.
type Jump struct {
	Condition Condition
	Target    uuid.UUID
}

func (Jump) steps() {}

// Option is one selectable entry of a Phrase.
type Option struct {
	Key   string `yaml:"key"`
	Label string `yaml:"label"`
}

// Phrase asks the player to pick one option key.
type Phrase struct {
	Options []Option `yaml:"options"`
}

func (Phrase) steps() {}

// ImageOption is a positioned image the player can pick.
type ImageOption struct {
	Key   string  `yaml:"key"`
	Label string  `yaml:"label,omitempty"`
	Image string  `yaml:"image"`
	X     float64 `yaml:"x,omitempty"`
	Y     float64 `yaml:"y,omitempty"`
}

// ImageSelect is a Phrase whose options are images over a background.
type ImageSelect struct {
	Background string        `yaml:"background"`
	Options    []ImageOption `yaml:"options"`
}

func (ImageSelect) steps() {}

// SpriteNarrator sets or clears the narrator portrait.
type SpriteNarrator struct {
	Portrait *string `yaml:"portrait,omitempty"`
}

func (SpriteNarrator) steps() {}

// Sprite applies a sprite command.
type Sprite struct {
	Command SpriteCommand
}

func (Sprite) steps() {}

// Background applies a background command.
type Background struct {
	Command BackgroundCommand
}

func (Background) steps() {}

// Scene applies a scene command.
type Scene struct {
	Command SceneCommand
}

func (Scene) steps() {}

// None is an inert placeholder.
type None struct{}

func (None) steps() {}

// IsInteractive reports whether the cursor may rest on a step with this content.
func IsInteractive(s Steps) bool {
	switch s.(type) {
	case Text, Phrase, ImageSelect:
		return true
	default:
		return false
	}
}

// IsStageDirection reports whether the content is a command for the renderer.
func IsStageDirection(s Steps) bool {
	switch s.(type) {
	case SpriteNarrator, Sprite, Background, Scene:
		return true
	default:
		return false
	}
}

// OptionKeys returns the selectable keys of a Phrase or ImageSelect, in order.
// Returns nil for any other content.
func OptionKeys(s Steps) []string {
	var keys []string
	switch c := s.(type) {
	case Phrase:
		for _, o := range c.Options {
			keys = append(keys, o.Key)
		}
	case ImageSelect:
		for _, o := range c.Options {
			keys = append(keys, o.Key)
		}
	}
	return keys
}

// Kind returns the YAML variant key of the content ("text", "jump", ...).
func Kind(s Steps) string {
	switch s.(type) {
	case Text:
		return KindText
	case Jump:
		return KindJump
	case Phrase:
		return KindPhrase
	case ImageSelect:
		return KindImageSelect
	case SpriteNarrator:
		return KindNarrator
	case Sprite:
		return KindSprite
	case Background:
		return KindBackground
	case Scene:
		return KindScene
	case None:
		return KindNone
	default:
		return ""
	}
}

// Variant keys used in the YAML encoding of Steps.
const (
	KindText        = "text"
	KindJump        = "jump"
	KindPhrase      = "phrase"
	KindImageSelect = "image_select"
	KindNarrator    = "narrator"
	KindSprite      = "sprite"
	KindBackground  = "background"
	KindScene       = "scene"
	KindNone        = "none"
)

// ValidStepKinds lists every variant key accepted in a step mapping.
var ValidStepKinds = map[string]bool{
	KindText:        true,
	KindJump:        true,
	KindPhrase:      true,
	KindImageSelect: true,
	KindNarrator:    true,
	KindSprite:      true,
	KindBackground:  true,
	KindScene:       true,
	KindNone:        true,
}
