package scenario

import (
	"fmt"

	"github.com/roach88/novel/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// Document errors (E100-E109)
	ErrSchema          = "E100" // document does not match the schema
	ErrVersion         = "E101" // unsupported document version
	ErrDuplicateStepID = "E102" // two steps share an identity
	ErrMissingContent  = "E103" // step carries no content

	// Step errors (E110-E119)
	ErrDanglingTarget    = "E110" // jump target does not resolve
	ErrDanglingCheck     = "E111" // condition checks an unknown step
	ErrNoOptions         = "E112" // phrase or image select without options
	ErrDuplicateOption   = "E113" // option key repeated within one step
	ErrInvalidPosition   = "E114" // sprite position outside [-1, 1]
	ErrThresholdNegative = "E115" // gte/lte threshold below zero
)

// ValidationError represents one structural defect in a scenario.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks graph-level rules the decoder cannot see.
// Returns all errors found (does not fail-fast).
func (g *Graph) Validate() []ValidationError {
	var errs []ValidationError

	for i, step := range g.steps {
		field := fmt.Sprintf("steps[%d]", i)
		if step.Content == nil {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("step %s has no content", step.ID),
				Code:    ErrMissingContent,
			})
			continue
		}

		switch c := step.Content.(type) {
		case ir.Jump:
			if !g.Contains(c.Target) {
				errs = append(errs, ValidationError{
					Field:   field + ".jump.target",
					Message: fmt.Sprintf("target %s does not exist", c.Target),
					Code:    ErrDanglingTarget,
				})
			}
			if c.Condition != nil {
				errs = append(errs, g.validateCondition(field+".jump.if", c.Condition)...)
			}
		case ir.Phrase, ir.ImageSelect:
			errs = append(errs, validateOptions(field, ir.Kind(c), ir.OptionKeys(c))...)
		case ir.Sprite:
			if p := c.Command.Position; p != nil && !p.Valid() {
				errs = append(errs, ValidationError{
					Field:   field + ".sprite.position",
					Message: fmt.Sprintf("position %v out of range [-1, 1]", float64(*p)),
					Code:    ErrInvalidPosition,
				})
			}
		}
	}

	return errs
}

func validateOptions(field, kind string, keys []string) []ValidationError {
	var errs []ValidationError
	if len(keys) == 0 {
		errs = append(errs, ValidationError{
			Field:   field + "." + kind + ".options",
			Message: "at least one option is required",
			Code:    ErrNoOptions,
		})
	}
	seen := make(map[string]bool, len(keys))
	for j, key := range keys {
		if seen[key] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.%s.options[%d].key", field, kind, j),
				Message: fmt.Sprintf("duplicate option key %q", key),
				Code:    ErrDuplicateOption,
			})
		}
		seen[key] = true
	}
	return errs
}

func (g *Graph) validateCondition(field string, c ir.Condition) []ValidationError {
	var errs []ValidationError

	for _, id := range ir.ConditionSteps(c) {
		if !g.Contains(id) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("check references unknown step %s", id),
				Code:    ErrDanglingCheck,
			})
		}
	}

	walkCounts(c, func(threshold int) {
		if threshold < 0 {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("threshold %d must not be negative", threshold),
				Code:    ErrThresholdNegative,
			})
		}
	})

	return errs
}

func walkCounts(c ir.Condition, fn func(threshold int)) {
	switch v := c.(type) {
	case ir.Not:
		walkCounts(v.Inner, fn)
	case ir.And:
		walkCounts(v.Left, fn)
		walkCounts(v.Right, fn)
	case ir.Or:
		walkCounts(v.Left, fn)
		walkCounts(v.Right, fn)
	case ir.GTE:
		fn(v.Threshold)
		for _, item := range v.Items {
			walkCounts(item, fn)
		}
	case ir.LTE:
		fn(v.Threshold)
		for _, item := range v.Items {
			walkCounts(item, fn)
		}
	}
}
