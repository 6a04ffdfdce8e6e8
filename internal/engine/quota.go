package engine

import (
	"errors"
	"fmt"
)

// DefaultMaxHops is the default number of jumps a single walk may take.
const DefaultMaxHops = 1024

// QuotaEnforcer counts jumps taken during one walk and enforces a limit.
//
// Each walk gets its own QuotaEnforcer. The jump guard already stops a
// single jump from firing twice; the quota additionally bounds long chains
// of distinct jumps.
type QuotaEnforcer struct {
	maxHops int
	current int
}

// NewQuotaEnforcer creates a new quota enforcer with the given limit.
func NewQuotaEnforcer(maxHops int) *QuotaEnforcer {
	return &QuotaEnforcer{maxHops: maxHops}
}

// Check increments the hop counter and validates against the limit.
// Returns StepsExceededError if the quota is exceeded.
func (q *QuotaEnforcer) Check() error {
	q.current++
	if q.current > q.maxHops {
		return &StepsExceededError{Hops: q.current, Limit: q.maxHops}
	}
	return nil
}

// Current returns the current hop count.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// MaxHops returns the limit.
func (q *QuotaEnforcer) MaxHops() int {
	return q.maxHops
}

// StepsExceededError is returned when a walk exceeds the hop quota.
type StepsExceededError struct {
	Hops  int // Number of jumps taken
	Limit int // Maximum allowed jumps
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("exceeded max hops quota: %d hops > %d limit", e.Hops, e.Limit)
}

// IsStepsExceededError returns true if the error is a StepsExceededError.
// Uses errors.As to handle wrapped errors.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
