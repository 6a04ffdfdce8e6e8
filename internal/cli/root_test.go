package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/novel/internal/config"
)

var (
	cafeYAML = filepath.Join("testdata", "cafe.yaml")
	cafeCUE  = filepath.Join("testdata", "cafe.cue")
)

// testConfig returns the environment defaults without reading the environment.
func testConfig() config.Config {
	return config.Config{
		RedisPrefix: "novel:",
		Slot:        "autosave",
		MaxHops:     1024,
		Workers:     2,
	}
}

func testOptions(format string) *RootOptions {
	return &RootOptions{Format: format, Config: testConfig()}
}

// execute runs cmd with args and stdin, returning what it printed.
func execute(cmd *cobra.Command, stdin string, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand(testConfig())
	require.NotNil(t, cmd)
	assert.Equal(t, "novel", cmd.Use)
	assert.Contains(t, cmd.Short, "narrative")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand(testConfig())
	commands := []string{"validate", "compile", "play", "replay", "test", "slots", "localize", "init"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestSlotsSubcommands(t *testing.T) {
	cmd := NewRootCommand(testConfig())
	for _, name := range []string{"history", "delete"} {
		sub, _, err := cmd.Find([]string{"slots", name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand(testConfig())

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestCompileCommandFlags(t *testing.T) {
	cmd := NewRootCommand(testConfig())
	compileCmd, _, err := cmd.Find([]string{"compile"})
	require.NoError(t, err)

	outputFlag := compileCmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)
}

func TestFlagDefaultsFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Database = "saves.db"
	cfg.Slot = "chapter1"
	cfg.Language = "fr"
	cfg.MaxHops = 64
	cfg.Workers = 8

	cmd := NewRootCommand(cfg)

	playCmd, _, err := cmd.Find([]string{"play"})
	require.NoError(t, err)
	assert.Equal(t, "saves.db", playCmd.Flags().Lookup("db").DefValue)
	assert.Equal(t, "chapter1", playCmd.Flags().Lookup("slot").DefValue)
	assert.Equal(t, "fr", playCmd.Flags().Lookup("lang").DefValue)
	assert.Equal(t, "64", playCmd.Flags().Lookup("max-hops").DefValue)

	replayCmd, _, err := cmd.Find([]string{"replay"})
	require.NoError(t, err)
	assert.Equal(t, "saves.db", replayCmd.Flags().Lookup("db").DefValue)
	assert.Equal(t, "chapter1", replayCmd.Flags().Lookup("slot").DefValue)

	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)
	assert.Equal(t, "8", testCmd.Flags().Lookup("workers").DefValue)
	assert.Equal(t, "false", testCmd.Flags().Lookup("update").DefValue)
	require.NotNil(t, testCmd.Flags().Lookup("filter"))

	slotsCmd, _, err := cmd.Find([]string{"slots"})
	require.NoError(t, err)
	assert.Equal(t, "saves.db", slotsCmd.PersistentFlags().Lookup("db").DefValue)
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand(testConfig())
	_, err := execute(cmd, "", "--format", "invalid", "validate", cafeYAML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRootRunsSubcommand(t *testing.T) {
	cmd := NewRootCommand(testConfig())
	out, err := execute(cmd, "", "validate", cafeYAML)
	require.NoError(t, err)
	assert.Contains(t, out, "Scenario valid (7 steps)")
}
