package engine

import "github.com/roach88/novel/internal/ir"

// Resolve evaluates a condition against the decision history.
//
// Resolve is pure: it never mutates h and the same inputs always give the
// same answer. A nil condition resolves true (unconditional jump). A Check
// on a step with no recorded decision is false, not an error. And and Or
// evaluate both operands. GTE and LTE count true items and compare
// inclusively against the threshold.
func Resolve(c ir.Condition, h ir.History) bool {
	switch v := c.(type) {
	case nil:
		return true
	case ir.True:
		return true
	case ir.False:
		return false
	case ir.Check:
		return h.Contains(v.Step, v.Value)
	case ir.Not:
		return !Resolve(v.Inner, h)
	case ir.And:
		left := Resolve(v.Left, h)
		right := Resolve(v.Right, h)
		return left && right
	case ir.Or:
		left := Resolve(v.Left, h)
		right := Resolve(v.Right, h)
		return left || right
	case ir.GTE:
		return countTrue(v.Items, h) >= v.Threshold
	case ir.LTE:
		return countTrue(v.Items, h) <= v.Threshold
	}
	return false
}

func countTrue(items []ir.Condition, h ir.History) int {
	n := 0
	for _, item := range items {
		if Resolve(item, h) {
			n++
		}
	}
	return n
}
