package testutil

import (
	"github.com/google/uuid"

	"github.com/roach88/novel/internal/ir"
	"github.com/roach88/novel/internal/scenario"
)

// Fixture ids are shared across the scenario builders below so tests can
// refer to steps by role.
var (
	PhraseID = ID(1)
	GoJumpID = ID(2)
	StayJump = ID(3)
	T1ID     = ID(4)
	T2ID     = ID(5)
)

// GoStay builds:
//
//	P:  phrase [go, stay]
//	    jump if check(P, go)   -> T1
//	    jump if check(P, stay) -> T2
//	T1: text
//	T2: text
func GoStay() *scenario.Graph {
	return scenario.MustNew([]ir.Step{
		{ID: PhraseID, Name: "P", Content: ir.Phrase{Options: []ir.Option{
			{Key: "go", Label: "Go"},
			{Key: "stay", Label: "Stay"},
		}}},
		{ID: GoJumpID, Content: ir.Jump{Condition: ir.Check{Step: PhraseID, Value: "go"}, Target: T1ID}},
		{ID: StayJump, Content: ir.Jump{Condition: ir.Check{Step: PhraseID, Value: "stay"}, Target: T2ID}},
		{ID: T1ID, Name: "T1", Content: ir.Text{Body: "You left."}},
		{ID: T2ID, Name: "T2", Content: ir.Text{Body: "You stayed."}},
	})
}

// SelfLoop builds [Text A, Jump if check(A, x) -> A, Text B] and returns
// the ids of A and B.
func SelfLoop() (*scenario.Graph, uuid.UUID, uuid.UUID) {
	a, j, b := ID(10), ID(11), ID(12)
	g := scenario.MustNew([]ir.Step{
		{ID: a, Name: "A", Content: ir.Text{Body: "A"}},
		{ID: j, Content: ir.Jump{Condition: ir.Check{Step: a, Value: "x"}, Target: a}},
		{ID: b, Name: "B", Content: ir.Text{Body: "B"}},
	})
	return g, a, b
}

// Staged builds a scenario whose interactive steps are separated by stage
// directions, for replay and inspector tests:
//
//	background change room.png
//	sprite set alice
//	Text "hello"                 ID(20)
//	narrator alice_portrait.png
//	sprite slide_in_left bob
//	Phrase [left, right]         ID(21)
//	jump if check(21, right) -> right branch
//	sprite move alice -0.5       (left branch)
//	Text "went left"             ID(22)
//	jump -> end
//	background shake             (right branch) ID(23)
//	sprite remove bob
//	Text "went right"            ID(24)
//	scene set cg.png             (end)          ID(25)
//	Text "the end"               ID(26)
func Staged() *scenario.Graph {
	right := ID(23)
	end := ID(25)
	return scenario.MustNew([]ir.Step{
		{ID: ID(30), Content: ir.Background{Command: ir.BackgroundCommand{Kind: ir.BackgroundChange, Source: ir.StringPtr("room.png")}}},
		{ID: ID(31), Content: ir.Sprite{Command: ir.SpriteCommand{Kind: ir.SpriteSet, Name: "alice", Source: ir.StringPtr("alice.png"), Position: ir.Position(0).Ptr()}}},
		{ID: ID(20), Content: ir.Text{Author: "Alice", Body: "hello"}},
		{ID: ID(32), Content: ir.SpriteNarrator{Portrait: ir.StringPtr("alice_portrait.png")}},
		{ID: ID(33), Content: ir.Sprite{Command: ir.SpriteCommand{Kind: ir.SpriteSlideInLeft, Name: "bob", Source: ir.StringPtr("bob.png"), Position: ir.Position(0.5).Ptr()}}},
		{ID: ID(21), Content: ir.Phrase{Options: []ir.Option{{Key: "left", Label: "Left"}, {Key: "right", Label: "Right"}}}},
		{ID: ID(34), Content: ir.Jump{Condition: ir.Check{Step: ID(21), Value: "right"}, Target: right}},
		{ID: ID(35), Content: ir.Sprite{Command: ir.SpriteCommand{Kind: ir.SpriteMove, Name: "alice", Position: ir.Position(-0.5).Ptr()}}},
		{ID: ID(22), Content: ir.Text{Body: "went left"}},
		{ID: ID(36), Content: ir.Jump{Target: end}},
		{ID: right, Content: ir.Background{Command: ir.BackgroundCommand{Kind: ir.BackgroundShake}}},
		{ID: ID(37), Content: ir.Sprite{Command: ir.SpriteCommand{Kind: ir.SpriteRemove, Name: "bob"}}},
		{ID: ID(24), Content: ir.Text{Body: "went right"}},
		{ID: end, Content: ir.Scene{Command: ir.SceneCommand{Kind: ir.SceneSet, Source: ir.StringPtr("cg.png")}}},
		{ID: ID(26), Content: ir.Text{Body: "the end"}},
	})
}
