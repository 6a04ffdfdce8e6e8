package locale

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/roach88/novel/internal/ir"
	"github.com/roach88/novel/internal/scenario"
)

// Set is the localized content of one language.
type Set struct {
	Language language.Tag
	Steps    map[uuid.UUID]ir.Steps
}

// NewSet creates an empty set for tag.
func NewSet(tag language.Tag) *Set {
	return &Set{Language: tag, Steps: make(map[uuid.UUID]ir.Steps)}
}

// Len returns the number of localized steps.
func (s *Set) Len() int {
	return len(s.Steps)
}

type setFile struct {
	Language string                    `yaml:"language"`
	Steps    map[string]ir.ContentNode `yaml:"steps"`
}

// Decode parses a localization file.
func Decode(data []byte) (*Set, error) {
	var f setFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode localization: %w", err)
	}
	if f.Language == "" {
		return nil, fmt.Errorf("decode localization: language is required")
	}
	tag, err := language.Parse(f.Language)
	if err != nil {
		return nil, fmt.Errorf("decode localization: language %q: %w", f.Language, err)
	}

	set := NewSet(tag)
	for key, node := range f.Steps {
		id, err := uuid.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("decode localization %s: step id %q: %w", tag, key, err)
		}
		if node.Steps == nil {
			return nil, fmt.Errorf("decode localization %s: step %s has no content", tag, id)
		}
		set.Steps[id] = node.Steps
	}
	return set, nil
}

// Encode writes the set in file form. Steps are keyed by id text, which
// the encoder sorts.
func (s *Set) Encode() ([]byte, error) {
	f := setFile{
		Language: s.Language.String(),
		Steps:    make(map[string]ir.ContentNode, len(s.Steps)),
	}
	for id, content := range s.Steps {
		f.Steps[id.String()] = ir.ContentNode{Steps: content}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("encode localization %s: %w", s.Language, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode localization %s: %w", s.Language, err)
	}
	return buf.Bytes(), nil
}

// LoadFile reads one localization file.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load localization: %w", err)
	}
	set, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// LoadDir reads every *.yaml file in dir concurrently. Sets are returned
// sorted by language tag. Two files for the same language are an error.
func LoadDir(ctx context.Context, dir string) ([]*Set, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("load localizations: %w", err)
	}

	sets := make([]*Set, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			set, err := LoadFile(path)
			if err != nil {
				return err
			}
			sets[i] = set
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(sets, func(i, j int) bool {
		return sets[i].Language.String() < sets[j].Language.String()
	})
	for i := 1; i < len(sets); i++ {
		if sets[i].Language == sets[i-1].Language {
			return nil, fmt.Errorf("load localizations: language %s defined twice", sets[i].Language)
		}
	}
	return sets, nil
}

// FileName returns the conventional file name for a set ("fr.yaml").
func FileName(tag language.Tag) string {
	return strings.ToLower(tag.String()) + ".yaml"
}

// Localizable reports whether content carries player-facing text.
func Localizable(s ir.Steps) bool {
	switch s.(type) {
	case ir.Text, ir.Phrase, ir.ImageSelect:
		return true
	}
	return false
}

// Extract collects the localizable content of g as a set for tag.
// The localize command writes it out as a translation scaffold.
func Extract(g *scenario.Graph, tag language.Tag) *Set {
	set := NewSet(tag)
	for _, step := range g.Steps() {
		if Localizable(step.Content) {
			set.Steps[step.ID] = step.Content
		}
	}
	return set
}

// captureBase collects every step whose content an overlay may replace.
func captureBase(g *scenario.Graph, tag language.Tag) *Set {
	set := NewSet(tag)
	for _, step := range g.Steps() {
		switch step.Content.(type) {
		case ir.Jump, ir.None:
			continue
		}
		set.Steps[step.ID] = step.Content
	}
	return set
}
