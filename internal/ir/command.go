package ir

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// SpriteKind names a sprite command.
type SpriteKind string

const (
	SpriteSet           SpriteKind = "set"
	SpriteRemove        SpriteKind = "remove"
	SpriteFadeIn        SpriteKind = "fade_in"
	SpriteFadeOut       SpriteKind = "fade_out"
	SpriteSlideInLeft   SpriteKind = "slide_in_left"
	SpriteSlideOutLeft  SpriteKind = "slide_out_left"
	SpriteSlideInRight  SpriteKind = "slide_in_right"
	SpriteSlideOutRight SpriteKind = "slide_out_right"
	SpriteMove          SpriteKind = "move"
)

// ValidSpriteKinds defines allowed sprite command kinds.
var ValidSpriteKinds = map[SpriteKind]bool{
	SpriteSet:           true,
	SpriteRemove:        true,
	SpriteFadeIn:        true,
	SpriteFadeOut:       true,
	SpriteSlideInLeft:   true,
	SpriteSlideOutLeft:  true,
	SpriteSlideInRight:  true,
	SpriteSlideOutRight: true,
	SpriteMove:          true,
}

// Shows reports whether the command puts the sprite on screen.
func (k SpriteKind) Shows() bool {
	switch k {
	case SpriteSet, SpriteFadeIn, SpriteSlideInLeft, SpriteSlideInRight:
		return true
	}
	return false
}

// Hides reports whether the command takes the sprite off screen.
func (k SpriteKind) Hides() bool {
	switch k {
	case SpriteRemove, SpriteFadeOut, SpriteSlideOutLeft, SpriteSlideOutRight:
		return true
	}
	return false
}

// SpriteCommand targets one named sprite.
type SpriteCommand struct {
	Kind     SpriteKind
	Name     string
	Source   *string
	Position *Position
}

type spriteArgs struct {
	Name     string    `yaml:"name"`
	Source   *string   `yaml:"source,omitempty"`
	Position *Position `yaml:"position,omitempty"`
}

// Position is a normalized horizontal screen position in [-1, 1].
// The two infinities mean off-screen left and off-screen right.
type Position float64

var (
	OffscreenLeft  = Position(math.Inf(-1))
	OffscreenRight = Position(math.Inf(1))
)

const (
	offscreenLeftName  = "offscreen_left"
	offscreenRightName = "offscreen_right"
)

// Ptr returns a pointer to p.
func (p Position) Ptr() *Position {
	return &p
}

// Valid reports whether p is inside [-1, 1] or one of the off-screen sentinels.
func (p Position) Valid() bool {
	f := float64(p)
	if math.IsInf(f, 0) {
		return true
	}
	return !math.IsNaN(f) && f >= -1 && f <= 1
}

// MarshalYAML encodes the sentinels by name and everything else as a number.
func (p Position) MarshalYAML() (any, error) {
	switch {
	case math.IsInf(float64(p), -1):
		return offscreenLeftName, nil
	case math.IsInf(float64(p), 1):
		return offscreenRightName, nil
	case !p.Valid():
		return nil, fmt.Errorf("position %v out of range [-1, 1]", float64(p))
	}
	return float64(p), nil
}

// UnmarshalYAML accepts a number in [-1, 1] or a sentinel name.
func (p *Position) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: position must be a scalar", n.Line)
	}
	switch n.Value {
	case offscreenLeftName:
		*p = OffscreenLeft
		return nil
	case offscreenRightName:
		*p = OffscreenRight
		return nil
	}
	var f float64
	if err := n.Decode(&f); err != nil {
		return fmt.Errorf("line %d: position: %w", n.Line, err)
	}
	if !Position(f).Valid() || math.IsInf(f, 0) {
		return fmt.Errorf("line %d: position %v out of range [-1, 1]", n.Line, f)
	}
	*p = Position(f)
	return nil
}

// BackgroundKind names a background command.
type BackgroundKind string

const (
	BackgroundChange BackgroundKind = "change"
	BackgroundShake  BackgroundKind = "shake"
	BackgroundNone   BackgroundKind = "none"
)

// BackgroundCommand changes, shakes or clears the background.
// Source is only meaningful for BackgroundChange.
type BackgroundCommand struct {
	Kind   BackgroundKind
	Source *string
}

type backgroundArgs struct {
	Source *string `yaml:"source,omitempty"`
}

// SceneKind names a scene command.
type SceneKind string

const (
	SceneSet    SceneKind = "set"
	SceneRemove SceneKind = "remove"
	ScenePlay   SceneKind = "play"
	ScenePause  SceneKind = "pause"
	SceneResume SceneKind = "resume"
	SceneStop   SceneKind = "stop"
)

// ValidSceneKinds defines allowed scene command kinds.
var ValidSceneKinds = map[SceneKind]bool{
	SceneSet:    true,
	SceneRemove: true,
	ScenePlay:   true,
	ScenePause:  true,
	SceneResume: true,
	SceneStop:   true,
}

// Animation describes a sprite-sheet animation played by ScenePlay.
type Animation struct {
	Name       string `yaml:"name"`
	Loop       bool   `yaml:"loop,omitempty"`
	TileWidth  int    `yaml:"tile_width"`
	TileHeight int    `yaml:"tile_height"`
	Columns    int    `yaml:"columns"`
	Rows       int    `yaml:"rows"`
}

// SceneCommand drives the full-screen scene layer.
type SceneCommand struct {
	Kind      SceneKind
	Source    *string    // SceneSet only
	Animation *Animation // ScenePlay only
}

type sceneArgs struct {
	Source *string `yaml:"source,omitempty"`
}

// StringPtr returns a pointer to s. Handy for optional asset paths.
func StringPtr(s string) *string {
	return &s
}
