package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Playthrough is a scripted run through one scenario.
// It feeds a list of player actions to a session and asserts on the
// resulting trace and final state.
type Playthrough struct {
	// Name uniquely identifies this playthrough. Golden files use it.
	Name string `yaml:"name"`

	// Description explains what this playthrough validates.
	Description string `yaml:"description"`

	// Scenario is the path to the scenario file (.yaml or .cue).
	// Relative paths resolve from the playthrough file location.
	Scenario string `yaml:"scenario"`

	// Language optionally plays a localized version of the scenario.
	Language string `yaml:"language,omitempty"`

	// Locales is the localization directory used with Language.
	// Defaults to "locales" next to the scenario.
	Locales string `yaml:"locales,omitempty"`

	// Actions are fed to the session one per tick, in order.
	Actions []Action `yaml:"actions"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// Action is one player input or session operation. Exactly one field is set.
type Action struct {
	Advance bool   `yaml:"advance,omitempty"`
	Choose  string `yaml:"choose,omitempty"`
	Save    string `yaml:"save,omitempty"`
	Load    string `yaml:"load,omitempty"`

	// ExpectError marks an action the session should reject.
	ExpectError bool `yaml:"expect_error,omitempty"`
}

// String names the action the way traces show it.
func (a Action) String() string {
	switch {
	case a.Advance:
		return "advance"
	case a.Choose != "":
		return "choose " + a.Choose
	case a.Save != "":
		return "save " + a.Save
	case a.Load != "":
		return "load " + a.Load
	}
	return "none"
}

func (a Action) count() int {
	n := 0
	if a.Advance {
		n++
	}
	for _, s := range []string{a.Choose, a.Save, a.Load} {
		if s != "" {
			n++
		}
	}
	return n
}

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type specifies the assertion type, one of the Assert* constants.
	Type string `yaml:"type"`

	// Step is a step id or name (current_step, history_contains).
	Step string `yaml:"step,omitempty"`

	// Value is the recorded option key (history_contains).
	Value string `yaml:"value,omitempty"`

	// Sprite is the sprite name (sprite_visible).
	Sprite string `yaml:"sprite,omitempty"`

	// Source is the expected asset path (sprite_visible, background).
	// An empty Source on background expects no background.
	Source string `yaml:"source,omitempty"`

	// Expect is the expected flag (sprite_visible, blocked).
	// Defaults to true.
	Expect *bool `yaml:"expect,omitempty"`

	// Count is the expected number of stage directions (commands_count).
	Count int `yaml:"count,omitempty"`
}

// expected returns Expect or its default.
func (a Assertion) expected() bool {
	return a.Expect == nil || *a.Expect
}

// Assertion type constants.
const (
	AssertCurrentStep     = "current_step"
	AssertHistoryContains = "history_contains"
	AssertSpriteVisible   = "sprite_visible"
	AssertBackground      = "background"
	AssertBlocked         = "blocked"
	AssertCommandsCount   = "commands_count"
)

// LoadPlaythrough reads and parses a playthrough YAML file, resolving the
// scenario and locale paths relative to the file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadPlaythrough(path string) (*Playthrough, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read playthrough file: %w", err)
	}

	p, err := ParsePlaythrough(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// ParsePlaythrough parses a playthrough document. Relative paths resolve
// from basePath when it is not empty.
func ParsePlaythrough(data []byte, basePath string) (*Playthrough, error) {
	var p Playthrough
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if basePath != "" {
		if p.Scenario != "" && !filepath.IsAbs(p.Scenario) {
			p.Scenario = filepath.Join(basePath, p.Scenario)
		}
		if p.Locales != "" && !filepath.IsAbs(p.Locales) {
			p.Locales = filepath.Join(basePath, p.Locales)
		}
	}
	if p.Language != "" && p.Locales == "" && p.Scenario != "" {
		p.Locales = filepath.Join(filepath.Dir(p.Scenario), "locales")
	}

	if err := validatePlaythrough(&p); err != nil {
		return nil, fmt.Errorf("invalid playthrough: %w", err)
	}
	return &p, nil
}

// validatePlaythrough checks that required fields are present and valid.
func validatePlaythrough(p *Playthrough) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}

	if p.Description == "" {
		return fmt.Errorf("description is required")
	}

	if p.Scenario == "" {
		return fmt.Errorf("scenario is required")
	}
	if _, err := os.Stat(p.Scenario); os.IsNotExist(err) {
		return fmt.Errorf("scenario file not found: %s", p.Scenario)
	}

	if p.Language != "" {
		if _, err := language.Parse(p.Language); err != nil {
			return fmt.Errorf("language %q: %w", p.Language, err)
		}
	}

	if len(p.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, a := range p.Actions {
		if a.count() != 1 {
			return fmt.Errorf("actions[%d]: exactly one of advance, choose, save, load is required", i)
		}
	}

	for i := range p.Assertions {
		if err := validateAssertion(i, &p.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCurrentStep:
		if a.Step == "" {
			return fmt.Errorf("assertions[%d]: step is required for current_step", index)
		}
	case AssertHistoryContains:
		if a.Step == "" || a.Value == "" {
			return fmt.Errorf("assertions[%d]: step and value are required for history_contains", index)
		}
	case AssertSpriteVisible:
		if a.Sprite == "" {
			return fmt.Errorf("assertions[%d]: sprite is required for sprite_visible", index)
		}
	case AssertBackground, AssertBlocked:
	case AssertCommandsCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for commands_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
