package locale

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/roach88/novel/internal/ir"
	"github.com/roach88/novel/internal/scenario"
)

// ErrUnknownLanguage is returned when no loaded set matches a requested tag.
var ErrUnknownLanguage = errors.New("unknown language")

// Report summarizes one Adapt call.
type Report struct {
	// Language is the set that was applied, after matching.
	Language language.Tag

	// Applied counts steps whose content was replaced.
	Applied int

	// Missing lists localizable steps the set has no entry for. They keep
	// whatever content they had.
	Missing []uuid.UUID

	// Rejected lists entries that would change a step's kind or a
	// phrase's option keys. They are not applied.
	Rejected []uuid.UUID
}

// Overlay holds the localization sets of one scenario.
//
// Thread-safety: Overlay is safe for concurrent use. Adapt mutates the
// graph it is given; callers must not walk that graph concurrently.
type Overlay struct {
	mu      sync.RWMutex
	base    language.Tag
	sets    map[language.Tag]*Set
	tags    []language.Tag // base first, then in Add order
	matcher language.Matcher
	logger  *slog.Logger
}

// NewOverlay creates an overlay whose base language is the authored
// content of g, captured now, before any Adapt.
func NewOverlay(base language.Tag, g *scenario.Graph, sets ...*Set) *Overlay {
	o := &Overlay{
		base:   base,
		sets:   make(map[language.Tag]*Set),
		logger: slog.Default(),
	}
	o.add(captureBase(g, base))
	for _, set := range sets {
		o.add(set)
	}
	return o
}

// SetLogger sets the logger for missing and rejected entries.
func (o *Overlay) SetLogger(l *slog.Logger) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if l != nil {
		o.logger = l
	}
}

// Add registers a set, replacing an earlier set for the same language.
// A set for the base language is merged over the captured base content.
func (o *Overlay) Add(set *Set) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.add(set)
}

func (o *Overlay) add(set *Set) {
	if existing, ok := o.sets[set.Language]; ok && set.Language == o.base {
		for id, content := range set.Steps {
			existing.Steps[id] = content
		}
	} else {
		if !ok {
			o.tags = append(o.tags, set.Language)
		}
		o.sets[set.Language] = set
	}
	o.matcher = language.NewMatcher(o.tags)
}

// Base returns the authored language.
func (o *Overlay) Base() language.Tag {
	return o.base
}

// Languages returns the available languages, base first.
func (o *Overlay) Languages() []language.Tag {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return slices.Clone(o.tags)
}

// Match returns the loaded language that best serves tag, so "en" finds
// an "en-US" set. Reports false when nothing matches.
func (o *Overlay) Match(tag language.Tag) (language.Tag, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.match(tag)
}

func (o *Overlay) match(tag language.Tag) (language.Tag, bool) {
	if _, ok := o.sets[tag]; ok {
		return tag, true
	}
	_, index, confidence := o.matcher.Match(tag)
	if confidence == language.No {
		return language.Und, false
	}
	return o.tags[index], true
}

// Adapt replaces the content of every step in g that the matched set
// localizes. Identities and jump targets are never changed.
//
// Localizable steps without an entry are logged and listed in
// Report.Missing; they keep their current content. Returns an error
// wrapping ErrUnknownLanguage when no set matches tag.
func (o *Overlay) Adapt(tag language.Tag, g *scenario.Graph) (Report, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	matched, ok := o.match(tag)
	if !ok {
		return Report{}, fmt.Errorf("adapt %s: %w", tag, ErrUnknownLanguage)
	}
	set := o.sets[matched]
	report := Report{Language: matched}

	for _, step := range g.Steps() {
		content, ok := set.Steps[step.ID]
		if !ok {
			if Localizable(step.Content) {
				o.logger.Warn("missing localization",
					"language", matched,
					"step", step.ID,
					"name", step.Name)
				report.Missing = append(report.Missing, step.ID)
			}
			continue
		}
		if err := compatible(step.Content, content); err != nil {
			o.logger.Warn("localization rejected",
				"language", matched,
				"step", step.ID,
				"error", err)
			report.Rejected = append(report.Rejected, step.ID)
			continue
		}
		if err := g.SetContent(step.ID, content); err != nil {
			return report, fmt.Errorf("adapt %s: %w", matched, err)
		}
		report.Applied++
	}

	return report, nil
}

// compatible checks that replacing authored with localized keeps the
// graph's behavior.
func compatible(authored, localized ir.Steps) error {
	if ir.Kind(authored) != ir.Kind(localized) {
		return fmt.Errorf("kind %s replaced by %s", ir.Kind(authored), ir.Kind(localized))
	}
	if _, isJump := authored.(ir.Jump); isJump {
		return fmt.Errorf("jumps are not localizable")
	}
	if !slices.Equal(ir.OptionKeys(authored), ir.OptionKeys(localized)) {
		return fmt.Errorf("option keys %v replaced by %v", ir.OptionKeys(authored), ir.OptionKeys(localized))
	}
	return nil
}
