package ir

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ConditionNode wraps a Condition so it can sit in YAML documents.
//
// Encoding:
//
//	true | false
//	{check: {step: <uuid>, value: <string>}}
//	{not: <condition>}
//	{and: [<condition>, <condition>]}
//	{or: [<condition>, <condition>]}
//	{gte: {items: [<condition>...], threshold: <int>}}
//	{lte: {items: [<condition>...], threshold: <int>}}
type ConditionNode struct {
	Condition Condition
}

// ContentNode wraps Steps content as a single-key mapping {variant: payload}.
// Used where content appears without a step identity (localization sets).
type ContentNode struct {
	Steps Steps
}

type jumpArgs struct {
	If     *ConditionNode `yaml:"if,omitempty"`
	Target uuid.UUID      `yaml:"target"`
}

type countArgs struct {
	Items     []ConditionNode `yaml:"items"`
	Threshold int             `yaml:"threshold"`
}

// MarshalYAML encodes a step as a mapping of id, optional name and exactly
// one variant key carrying the content payload.
func (s Step) MarshalYAML() (any, error) {
	kind, payload, err := encodeSteps(s.Content)
	if err != nil {
		return nil, fmt.Errorf("step %s: %w", s.ID, err)
	}

	n := &yaml.Node{Kind: yaml.MappingNode}
	n.Content = append(n.Content, strNode("id"), strNode(s.ID.String()))
	if s.Name != "" {
		n.Content = append(n.Content, strNode("name"), strNode(s.Name))
	}

	value := &yaml.Node{}
	if err := value.Encode(payload); err != nil {
		return nil, fmt.Errorf("step %s: encode %s: %w", s.ID, kind, err)
	}
	n.Content = append(n.Content, strNode(kind), value)
	return n, nil
}

// UnmarshalYAML decodes the mapping produced by MarshalYAML.
// Unknown keys and steps with zero or several variants are rejected.
func (s *Step) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: step must be a mapping", n.Line)
	}

	var step Step
	var kind string
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		switch key.Value {
		case "id":
			id, err := decodeUUID(value)
			if err != nil {
				return fmt.Errorf("line %d: step id: %w", value.Line, err)
			}
			step.ID = id
		case "name":
			if err := value.Decode(&step.Name); err != nil {
				return fmt.Errorf("line %d: step name: %w", value.Line, err)
			}
		default:
			if !ValidStepKinds[key.Value] {
				return fmt.Errorf("line %d: unknown step field %q", key.Line, key.Value)
			}
			if kind != "" {
				return fmt.Errorf("line %d: step has both %q and %q", key.Line, kind, key.Value)
			}
			kind = key.Value
			content, err := decodeSteps(kind, value)
			if err != nil {
				return err
			}
			step.Content = content
		}
	}

	if kind == "" {
		return fmt.Errorf("line %d: step %s has no content", n.Line, step.ID)
	}
	*s = step
	return nil
}

// MarshalJSON mirrors the YAML encoding so JSON consumers see the same shape.
func (s Step) MarshalJSON() ([]byte, error) {
	plain, err := ToPlain(s)
	if err != nil {
		return nil, err
	}
	return json.Marshal(plain)
}

// MarshalYAML encodes the wrapped content as {variant: payload}.
func (c ContentNode) MarshalYAML() (any, error) {
	kind, payload, err := encodeSteps(c.Steps)
	if err != nil {
		return nil, err
	}
	return map[string]any{kind: payload}, nil
}

// UnmarshalYAML decodes {variant: payload}.
func (c *ContentNode) UnmarshalYAML(n *yaml.Node) error {
	kind, value, err := singleKey(n, "content")
	if err != nil {
		return err
	}
	if !ValidStepKinds[kind] {
		return fmt.Errorf("line %d: unknown content kind %q", n.Line, kind)
	}
	steps, err := decodeSteps(kind, value)
	if err != nil {
		return err
	}
	c.Steps = steps
	return nil
}

// MarshalYAML encodes the wrapped condition tree.
func (c ConditionNode) MarshalYAML() (any, error) {
	return encodeCondition(c.Condition)
}

// UnmarshalYAML decodes a condition tree.
func (c *ConditionNode) UnmarshalYAML(n *yaml.Node) error {
	cond, err := decodeCondition(n)
	if err != nil {
		return err
	}
	c.Condition = cond
	return nil
}

// ToPlain converts v to plain maps, slices and scalars by passing it
// through its YAML encoding. Used for JSON output and canonical hashing.
func ToPlain(v any) (any, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("to plain: %w", err)
	}
	var out any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("to plain: %w", err)
	}
	return out, nil
}

func encodeSteps(s Steps) (string, any, error) {
	switch c := s.(type) {
	case Text:
		return KindText, c, nil
	case Jump:
		args := jumpArgs{Target: c.Target}
		if c.Condition != nil {
			args.If = &ConditionNode{Condition: c.Condition}
		}
		return KindJump, args, nil
	case Phrase:
		return KindPhrase, c, nil
	case ImageSelect:
		return KindImageSelect, c, nil
	case SpriteNarrator:
		return KindNarrator, c, nil
	case Sprite:
		if !ValidSpriteKinds[c.Command.Kind] {
			return "", nil, fmt.Errorf("unknown sprite command %q", c.Command.Kind)
		}
		args := spriteArgs{Name: c.Command.Name, Source: c.Command.Source, Position: c.Command.Position}
		return KindSprite, map[string]any{string(c.Command.Kind): args}, nil
	case Background:
		switch c.Command.Kind {
		case BackgroundChange:
			return KindBackground, map[string]any{string(c.Command.Kind): backgroundArgs{Source: c.Command.Source}}, nil
		case BackgroundShake, BackgroundNone:
			return KindBackground, map[string]any{string(c.Command.Kind): struct{}{}}, nil
		}
		return "", nil, fmt.Errorf("unknown background command %q", c.Command.Kind)
	case Scene:
		switch c.Command.Kind {
		case SceneSet:
			return KindScene, map[string]any{string(c.Command.Kind): sceneArgs{Source: c.Command.Source}}, nil
		case ScenePlay:
			if c.Command.Animation == nil {
				return "", nil, fmt.Errorf("scene play without animation")
			}
			return KindScene, map[string]any{string(c.Command.Kind): *c.Command.Animation}, nil
		case SceneRemove, ScenePause, SceneResume, SceneStop:
			return KindScene, map[string]any{string(c.Command.Kind): struct{}{}}, nil
		}
		return "", nil, fmt.Errorf("unknown scene command %q", c.Command.Kind)
	case None:
		return KindNone, struct{}{}, nil
	case nil:
		return "", nil, fmt.Errorf("step has no content")
	default:
		return "", nil, fmt.Errorf("unknown step content %T", s)
	}
}

func decodeSteps(kind string, n *yaml.Node) (Steps, error) {
	switch kind {
	case KindText:
		var t Text
		if err := n.Decode(&t); err != nil {
			return nil, fmt.Errorf("line %d: text: %w", n.Line, err)
		}
		return t, nil
	case KindJump:
		var args jumpArgs
		if err := n.Decode(&args); err != nil {
			return nil, fmt.Errorf("line %d: jump: %w", n.Line, err)
		}
		j := Jump{Target: args.Target}
		if args.If != nil {
			j.Condition = args.If.Condition
		}
		return j, nil
	case KindPhrase:
		var p Phrase
		if err := n.Decode(&p); err != nil {
			return nil, fmt.Errorf("line %d: phrase: %w", n.Line, err)
		}
		return p, nil
	case KindImageSelect:
		var s ImageSelect
		if err := n.Decode(&s); err != nil {
			return nil, fmt.Errorf("line %d: image_select: %w", n.Line, err)
		}
		return s, nil
	case KindNarrator:
		var s SpriteNarrator
		if err := n.Decode(&s); err != nil {
			return nil, fmt.Errorf("line %d: narrator: %w", n.Line, err)
		}
		return s, nil
	case KindSprite:
		return decodeSprite(n)
	case KindBackground:
		return decodeBackground(n)
	case KindScene:
		return decodeScene(n)
	case KindNone:
		return None{}, nil
	}
	return nil, fmt.Errorf("line %d: unknown content kind %q", n.Line, kind)
}

func decodeSprite(n *yaml.Node) (Steps, error) {
	kind, value, err := singleKey(n, "sprite")
	if err != nil {
		return nil, err
	}
	if !ValidSpriteKinds[SpriteKind(kind)] {
		return nil, fmt.Errorf("line %d: unknown sprite command %q", n.Line, kind)
	}
	var args spriteArgs
	if err := value.Decode(&args); err != nil {
		return nil, fmt.Errorf("line %d: sprite %s: %w", value.Line, kind, err)
	}
	if args.Name == "" {
		return nil, fmt.Errorf("line %d: sprite %s: name is required", value.Line, kind)
	}
	return Sprite{Command: SpriteCommand{
		Kind:     SpriteKind(kind),
		Name:     args.Name,
		Source:   args.Source,
		Position: args.Position,
	}}, nil
}

func decodeBackground(n *yaml.Node) (Steps, error) {
	kind, value, err := singleKey(n, "background")
	if err != nil {
		return nil, err
	}
	switch BackgroundKind(kind) {
	case BackgroundChange:
		var args backgroundArgs
		if err := value.Decode(&args); err != nil {
			return nil, fmt.Errorf("line %d: background change: %w", value.Line, err)
		}
		return Background{Command: BackgroundCommand{Kind: BackgroundChange, Source: args.Source}}, nil
	case BackgroundShake, BackgroundNone:
		return Background{Command: BackgroundCommand{Kind: BackgroundKind(kind)}}, nil
	}
	return nil, fmt.Errorf("line %d: unknown background command %q", n.Line, kind)
}

func decodeScene(n *yaml.Node) (Steps, error) {
	kind, value, err := singleKey(n, "scene")
	if err != nil {
		return nil, err
	}
	switch SceneKind(kind) {
	case SceneSet:
		var args sceneArgs
		if err := value.Decode(&args); err != nil {
			return nil, fmt.Errorf("line %d: scene set: %w", value.Line, err)
		}
		return Scene{Command: SceneCommand{Kind: SceneSet, Source: args.Source}}, nil
	case ScenePlay:
		var anim Animation
		if err := value.Decode(&anim); err != nil {
			return nil, fmt.Errorf("line %d: scene play: %w", value.Line, err)
		}
		return Scene{Command: SceneCommand{Kind: ScenePlay, Animation: &anim}}, nil
	case SceneRemove, ScenePause, SceneResume, SceneStop:
		return Scene{Command: SceneCommand{Kind: SceneKind(kind)}}, nil
	}
	return nil, fmt.Errorf("line %d: unknown scene command %q", n.Line, kind)
}

func encodeCondition(c Condition) (any, error) {
	switch v := c.(type) {
	case True:
		return true, nil
	case False:
		return false, nil
	case Check:
		return map[string]any{"check": v}, nil
	case Not:
		if v.Inner == nil {
			return nil, fmt.Errorf("not: missing operand")
		}
		return map[string]any{"not": ConditionNode{v.Inner}}, nil
	case And:
		if v.Left == nil || v.Right == nil {
			return nil, fmt.Errorf("and: missing operand")
		}
		return map[string]any{"and": []ConditionNode{{v.Left}, {v.Right}}}, nil
	case Or:
		if v.Left == nil || v.Right == nil {
			return nil, fmt.Errorf("or: missing operand")
		}
		return map[string]any{"or": []ConditionNode{{v.Left}, {v.Right}}}, nil
	case GTE:
		return map[string]any{"gte": countArgs{Items: wrapConditions(v.Items), Threshold: v.Threshold}}, nil
	case LTE:
		return map[string]any{"lte": countArgs{Items: wrapConditions(v.Items), Threshold: v.Threshold}}, nil
	case nil:
		return nil, fmt.Errorf("nil condition")
	default:
		return nil, fmt.Errorf("unknown condition %T", c)
	}
}

func decodeCondition(n *yaml.Node) (Condition, error) {
	if n.Kind == yaml.ScalarNode {
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("line %d: condition must be true, false or a mapping", n.Line)
		}
		if b {
			return True{}, nil
		}
		return False{}, nil
	}

	kind, value, err := singleKey(n, "condition")
	if err != nil {
		return nil, err
	}

	switch kind {
	case "check":
		var args struct {
			Step  string `yaml:"step"`
			Value string `yaml:"value"`
		}
		if err := value.Decode(&args); err != nil {
			return nil, fmt.Errorf("line %d: check: %w", value.Line, err)
		}
		id, err := uuid.Parse(args.Step)
		if err != nil {
			return nil, fmt.Errorf("line %d: check step: %w", value.Line, err)
		}
		return Check{Step: id, Value: args.Value}, nil

	case "not":
		inner, err := decodeCondition(value)
		if err != nil {
			return nil, err
		}
		return Not{Inner: inner}, nil

	case "and", "or":
		if value.Kind != yaml.SequenceNode || len(value.Content) != 2 {
			return nil, fmt.Errorf("line %d: %s takes exactly two operands", value.Line, kind)
		}
		left, err := decodeCondition(value.Content[0])
		if err != nil {
			return nil, err
		}
		right, err := decodeCondition(value.Content[1])
		if err != nil {
			return nil, err
		}
		if kind == "and" {
			return And{Left: left, Right: right}, nil
		}
		return Or{Left: left, Right: right}, nil

	case "gte", "lte":
		var args countArgs
		if err := value.Decode(&args); err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", value.Line, kind, err)
		}
		items := unwrapConditions(args.Items)
		if kind == "gte" {
			return GTE{Items: items, Threshold: args.Threshold}, nil
		}
		return LTE{Items: items, Threshold: args.Threshold}, nil
	}

	return nil, fmt.Errorf("line %d: unknown condition %q", n.Line, kind)
}

func wrapConditions(items []Condition) []ConditionNode {
	out := make([]ConditionNode, len(items))
	for i, c := range items {
		out[i] = ConditionNode{c}
	}
	return out
}

func unwrapConditions(items []ConditionNode) []Condition {
	out := make([]Condition, len(items))
	for i, c := range items {
		out[i] = c.Condition
	}
	return out
}

// singleKey returns the only key/value pair of a mapping node.
func singleKey(n *yaml.Node, what string) (string, *yaml.Node, error) {
	if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		return "", nil, fmt.Errorf("line %d: %s must be a mapping with exactly one key", n.Line, what)
	}
	return n.Content[0].Value, n.Content[1], nil
}

func decodeUUID(n *yaml.Node) (uuid.UUID, error) {
	var s string
	if err := n.Decode(&s); err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(s)
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// SceneCommandNode wraps a SceneCommand as {kind: args} so it can be
// stored on its own (inspector snapshots).
type SceneCommandNode struct {
	Command SceneCommand
}

// MarshalYAML encodes the command as {kind: args}.
func (n SceneCommandNode) MarshalYAML() (any, error) {
	_, payload, err := encodeSteps(Scene{Command: n.Command})
	return payload, err
}

// UnmarshalYAML decodes {kind: args}.
func (n *SceneCommandNode) UnmarshalYAML(node *yaml.Node) error {
	s, err := decodeScene(node)
	if err != nil {
		return err
	}
	n.Command = s.(Scene).Command
	return nil
}
