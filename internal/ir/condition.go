package ir

import "github.com/google/uuid"

// Condition is a sealed interface over boolean expressions on the
// decision history. Only the variants declared in this file implement it.
type Condition interface {
	condition() // Sealed
}

// True always holds.
type True struct{}

func (True) condition() {}

// False never holds.
type False struct{}

func (False) condition() {}

// Check holds when the history records Value for Step.
type Check struct {
	Step  uuid.UUID `yaml:"step"`
	Value string    `yaml:"value"`
}

func (Check) condition() {}

// Not negates Inner.
type Not struct {
	Inner Condition
}

func (Not) condition() {}

// And holds when both operands hold.
type And struct {
	Left  Condition
	Right Condition
}

func (And) condition() {}

// Or holds when either operand holds.
type Or struct {
	Left  Condition
	Right Condition
}

func (Or) condition() {}

// GTE holds when at least Threshold of Items hold.
type GTE struct {
	Items     []Condition
	Threshold int
}

func (GTE) condition() {}

// LTE holds when at most Threshold of Items hold.
type LTE struct {
	Items     []Condition
	Threshold int
}

func (LTE) condition() {}

// ConditionSteps returns every step identity referenced by Check nodes in c.
// Used by validation to find dangling references.
func ConditionSteps(c Condition) []uuid.UUID {
	var ids []uuid.UUID
	var walk func(Condition)
	walk = func(c Condition) {
		switch v := c.(type) {
		case Check:
			ids = append(ids, v.Step)
		case Not:
			walk(v.Inner)
		case And:
			walk(v.Left)
			walk(v.Right)
		case Or:
			walk(v.Left)
			walk(v.Right)
		case GTE:
			for _, item := range v.Items {
				walk(item)
			}
		case LTE:
			for _, item := range v.Items {
				walk(item)
			}
		}
	}
	walk(c)
	return ids
}
