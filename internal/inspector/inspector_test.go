package inspector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/novel/internal/ir"
)

func sprite(kind ir.SpriteKind, name string, source string, pos *ir.Position) ir.Sprite {
	cmd := ir.SpriteCommand{Kind: kind, Name: name, Position: pos}
	if source != "" {
		cmd.Source = ir.StringPtr(source)
	}
	return ir.Sprite{Command: cmd}
}

func TestKeep_SpritePolicy(t *testing.T) {
	in := New()
	in.Keep(
		sprite(ir.SpriteSet, "alice", "alice.png", ir.Position(0).Ptr()),
		sprite(ir.SpriteSlideInRight, "bob", "bob.png", ir.OffscreenRight.Ptr()),
		sprite(ir.SpriteMove, "bob", "", ir.Position(0.5).Ptr()),
		sprite(ir.SpriteMove, "carol", "", ir.Position(-0.5).Ptr()),
		sprite(ir.SpriteFadeOut, "alice", "", nil),
	)

	require.Len(t, in.Sprites, 1)
	bob := in.Sprites["bob"]
	assert.Equal(t, "bob.png", *bob.Source)
	assert.Equal(t, ir.Position(0.5), *bob.Position)
	_, ok := in.Sprites["carol"]
	assert.False(t, ok, "move on an absent sprite is a no-op")
}

func TestKeep_OverwritesOnShow(t *testing.T) {
	in := New()
	in.Keep(
		sprite(ir.SpriteSet, "alice", "happy.png", ir.Position(0).Ptr()),
		sprite(ir.SpriteFadeIn, "alice", "sad.png", ir.Position(1).Ptr()),
	)
	assert.Equal(t, "sad.png", *in.Sprites["alice"].Source)
	assert.Equal(t, ir.Position(1), *in.Sprites["alice"].Position)
}

func TestKeep_LayersLastWriteWins(t *testing.T) {
	in := New()
	in.Keep(
		ir.SpriteNarrator{Portrait: ir.StringPtr("a.png")},
		ir.SpriteNarrator{Portrait: ir.StringPtr("b.png")},
		ir.Background{Command: ir.BackgroundCommand{Kind: ir.BackgroundChange, Source: ir.StringPtr("room.png")}},
		ir.Background{Command: ir.BackgroundCommand{Kind: ir.BackgroundShake}},
		ir.Scene{Command: ir.SceneCommand{Kind: ir.SceneSet, Source: ir.StringPtr("cg.png")}},
		ir.Text{Body: "ignored"},
	)

	assert.Equal(t, "b.png", *in.Narrator)
	assert.Equal(t, "room.png", *in.Background, "shake keeps the background")
	require.NotNil(t, in.Scene)
	assert.Equal(t, ir.SceneSet, in.Scene.Kind)

	in.Keep(
		ir.SpriteNarrator{},
		ir.Background{Command: ir.BackgroundCommand{Kind: ir.BackgroundNone}},
		ir.Scene{Command: ir.SceneCommand{Kind: ir.SceneRemove}},
	)
	assert.Nil(t, in.Narrator)
	assert.Nil(t, in.Background)
	assert.Nil(t, in.Scene)
}

func TestKeepExtractKeep_Idempotent(t *testing.T) {
	tests := []struct {
		name  string
		steps []ir.Steps
	}{
		{"empty", nil},
		{"full", []ir.Steps{
			ir.SpriteNarrator{Portrait: ir.StringPtr("n.png")},
			ir.Background{Command: ir.BackgroundCommand{Kind: ir.BackgroundChange, Source: ir.StringPtr("bg.png")}},
			sprite(ir.SpriteSet, "zed", "z.png", ir.OffscreenLeft.Ptr()),
			sprite(ir.SpriteSlideInLeft, "amy", "a.png", nil),
			sprite(ir.SpriteMove, "amy", "", ir.Position(-1).Ptr()),
			ir.Scene{Command: ir.SceneCommand{Kind: ir.ScenePlay, Animation: &ir.Animation{Name: "rain", Loop: true, TileWidth: 32, TileHeight: 32, Columns: 8, Rows: 1}}},
		}},
		{"cleared", []ir.Steps{
			sprite(ir.SpriteSet, "a", "a.png", nil),
			sprite(ir.SpriteRemove, "a", "", nil),
			ir.Scene{Command: ir.SceneCommand{Kind: ir.SceneSet, Source: ir.StringPtr("x.png")}},
			ir.Scene{Command: ir.SceneCommand{Kind: ir.SceneRemove}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := New()
			first.Keep(tt.steps...)

			second := New()
			second.Keep(first.Extract()...)

			assert.True(t, first.Equal(second))
			assert.Equal(t, first.Extract(), second.Extract())
		})
	}
}

func TestExtract_Order(t *testing.T) {
	in := New()
	in.Keep(
		ir.Scene{Command: ir.SceneCommand{Kind: ir.ScenePause}},
		sprite(ir.SpriteSet, "b", "b.png", nil),
		sprite(ir.SpriteSet, "a", "a.png", nil),
		ir.Background{Command: ir.BackgroundCommand{Kind: ir.BackgroundChange, Source: ir.StringPtr("bg.png")}},
		ir.SpriteNarrator{Portrait: ir.StringPtr("n.png")},
	)

	var kinds []string
	for _, c := range in.Extract() {
		kind := ir.Kind(c)
		if s, ok := c.(ir.Sprite); ok {
			kind += ":" + s.Command.Name
		}
		kinds = append(kinds, kind)
	}
	assert.Equal(t, []string{"narrator", "background", "sprite:a", "sprite:b", "scene"}, kinds)
}

func TestClone_Independent(t *testing.T) {
	in := New()
	in.Keep(sprite(ir.SpriteSet, "a", "a.png", ir.Position(0).Ptr()))

	clone := in.Clone()
	clone.Keep(sprite(ir.SpriteRemove, "a", "", nil))

	assert.Len(t, in.Sprites, 1)
	assert.Empty(t, clone.Sprites)
	assert.False(t, in.Equal(clone))
}

func TestYAMLRoundTrip(t *testing.T) {
	in := New()
	in.Keep(
		ir.SpriteNarrator{Portrait: ir.StringPtr("n.png")},
		sprite(ir.SpriteSet, "a", "a.png", ir.OffscreenRight.Ptr()),
		ir.Scene{Command: ir.SceneCommand{Kind: ir.ScenePlay, Animation: &ir.Animation{Name: "snow", TileWidth: 16, TileHeight: 16, Columns: 2, Rows: 2}}},
	)

	data, err := yaml.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), "offscreen_right")

	var back Inspector
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.True(t, in.Equal(&back))
}
