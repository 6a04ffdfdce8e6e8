package harness

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/novel/internal/ir"
)

var (
	cafeGreeting = uuid.MustParse("0190b6a0-0000-7000-8000-000000000002")
	cafeOrder    = uuid.MustParse("0190b6a0-0000-7000-8000-000000000003")
	cafeCoffee   = uuid.MustParse("0190b6a0-0000-7000-8000-000000000005")
	cafeEnjoy    = uuid.MustParse("0190b6a0-0000-7000-8000-000000000007")
)

func loadPlaythrough(t *testing.T, name string) *Playthrough {
	t.Helper()
	p, err := LoadPlaythrough("testdata/playthroughs/" + name + ".play.yaml")
	require.NoError(t, err)
	return p
}

func TestRun_CafeTea(t *testing.T) {
	result, err := Run(loadPlaythrough(t, "cafe_tea"))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 4)
	assert.Equal(t, "open", result.Trace[0].Action)
	assert.Equal(t, cafeGreeting, result.Trace[0].Current.ID)
	assert.Equal(t, cafeOrder, result.Trace[1].Current.ID)
	assert.Equal(t, cafeEnjoy, result.Trace[2].Current.ID)
	assert.True(t, result.Trace[3].Blocked)

	for i, event := range result.Trace {
		assert.Equal(t, int64(i+1), event.Seq)
	}
	assert.Equal(t, cafeEnjoy, result.Final.Current)
}

func TestRun_CafeCoffee(t *testing.T) {
	result, err := Run(loadPlaythrough(t, "cafe_coffee"))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 5)
	assert.Equal(t, cafeCoffee, result.Trace[2].Current.ID)
	assert.NotEmpty(t, result.Trace[3].Error)
	assert.Equal(t, cafeCoffee, result.Trace[3].Current.ID, "rejected choice must not move the cursor")
}

func TestRun_SaveLoad(t *testing.T) {
	result, err := Run(loadPlaythrough(t, "cafe_save_load"))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 5)
	save, load := result.Trace[3], result.Trace[4]
	assert.Equal(t, "save slot1", save.Action)
	assert.Equal(t, "load slot1", load.Action)
	assert.Greater(t, load.Seq, save.Seq)
	assert.Len(t, load.Commands, 2, "load replays every stage direction on the path")
}

func TestRun_Localized(t *testing.T) {
	result, err := Run(loadPlaythrough(t, "cafe_fr"))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	phrase, ok := result.Trace[1].Current.Content.(ir.Phrase)
	require.True(t, ok)
	assert.Equal(t, "Th\u00e9", phrase.Options[1].Label)
	assert.Equal(t, "tea", phrase.Options[1].Key)
}

func TestRun_UnknownLanguage(t *testing.T) {
	p := loadPlaythrough(t, "cafe_fr")
	p.Language = "ja"

	_, err := Run(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no localization for ja")
}

func TestRun_UnexpectedErrorFails(t *testing.T) {
	p := loadPlaythrough(t, "cafe_tea")
	p.Actions = []Action{{Choose: "tea"}}
	p.Assertions = []Assertion{{Type: AssertCommandsCount, Count: 1}}

	result, err := Run(p)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unexpected error")
}

func TestRun_MissingExpectedError(t *testing.T) {
	p := loadPlaythrough(t, "cafe_tea")
	p.Actions = []Action{{Advance: true, ExpectError: true}}
	p.Assertions = []Assertion{{Type: AssertCommandsCount, Count: 1}}

	result, err := Run(p)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected an error")
}

func TestRun_LoadMissingSlot(t *testing.T) {
	p := loadPlaythrough(t, "cafe_tea")
	p.Actions = []Action{{Advance: true}, {Load: "nope", ExpectError: true}}
	p.Assertions = []Assertion{{Type: AssertCurrentStep, Step: "greeting"}}

	result, err := Run(p)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Contains(t, result.Trace[2].Error, `slot "nope" not found`)
}

func TestRun_FailingAssertion(t *testing.T) {
	p := loadPlaythrough(t, "cafe_tea")
	p.Assertions = []Assertion{{Type: AssertCurrentStep, Step: "greeting"}}

	result, err := Run(p)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Assertion failed: current_step")
	assert.Contains(t, result.Errors[0], "Full trace:")
}

func TestRun_ScenarioLoadError(t *testing.T) {
	p := loadPlaythrough(t, "cafe_tea")
	p.Scenario = "testdata/playthroughs/cafe_tea.play.yaml"

	_, err := Run(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load scenario")
}

func TestDiscover(t *testing.T) {
	paths, err := Discover("testdata/playthroughs")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"testdata/playthroughs/cafe_coffee.play.yaml",
		"testdata/playthroughs/cafe_fr.play.yaml",
		"testdata/playthroughs/cafe_save_load.play.yaml",
		"testdata/playthroughs/cafe_tea.play.yaml",
	}, paths)

	single, err := Discover("testdata/playthroughs/cafe_tea.play.yaml")
	require.NoError(t, err)
	assert.Len(t, single, 1)

	_, err = Discover("testdata/missing")
	assert.Error(t, err)
}

func TestRunAll(t *testing.T) {
	paths, err := Discover("testdata/playthroughs")
	require.NoError(t, err)
	paths = append(paths, "testdata/playthroughs/missing.play.yaml")

	outcomes, err := RunAll(context.Background(), paths, 2)
	require.NoError(t, err)
	require.Len(t, outcomes, len(paths))

	for _, out := range outcomes[:len(outcomes)-1] {
		assert.True(t, out.Passed(), "%s: err=%v", out.Path, out.Err)
	}
	last := outcomes[len(outcomes)-1]
	assert.False(t, last.Passed())
	assert.Error(t, last.Err)
}

func TestRunAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunAll(ctx, []string{"testdata/playthroughs/cafe_tea.play.yaml"}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
