package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/novel/internal/testutil"
)

func TestQuotaEnforcer_AllowsUpToLimit(t *testing.T) {
	q := NewQuotaEnforcer(3)

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Check(), "hop %d", i+1)
	}
	assert.Equal(t, 3, q.Current())

	err := q.Check()
	require.Error(t, err)
	assert.True(t, IsStepsExceededError(err))

	var se *StepsExceededError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 4, se.Hops)
	assert.Equal(t, 3, se.Limit)
}

func TestStepsExceededError_Wrapped(t *testing.T) {
	err := fmt.Errorf("walk: %w", &StepsExceededError{Hops: 2, Limit: 1})
	assert.True(t, IsStepsExceededError(err))
	assert.True(t, IsQuotaError(err))
	assert.False(t, IsStepsExceededError(fmt.Errorf("other")))
}

func TestRuntimeError_Quota(t *testing.T) {
	step := testutil.ID(7)
	err := NewQuotaError(step, &StepsExceededError{Hops: 5, Limit: 4})

	assert.Equal(t, ErrCodeQuotaExceeded, err.Code)
	assert.Equal(t, "5", err.Details["hops"])
	assert.Equal(t, "4", err.Details["max_hops"])
	assert.Contains(t, err.Error(), "QUOTA_EXCEEDED")
	assert.Contains(t, err.Error(), step.String())
	assert.True(t, IsQuotaError(err))
	assert.True(t, IsStepsExceededError(err), "cause is reachable through Unwrap")
	assert.False(t, IsInputError(err))
}

func TestRuntimeError_Input(t *testing.T) {
	err := NewInputError(testutil.ID(1), "unknown option key %q", "maybe")

	assert.True(t, IsInputError(err))
	assert.False(t, IsQuotaError(err))
	assert.Contains(t, err.Error(), `unknown option key "maybe"`)
}
