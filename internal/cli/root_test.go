package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "gatehouse", cmd.Use)
	assert.Contains(t, cmd.Short, "room puzzle")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"validate", "compile", "test", "play", "trace", "status"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestSubcommandFlags(t *testing.T) {
	tests := []struct {
		command    string
		flags      []string
		shorthands map[string]string
		defaults   map[string]string
	}{
		{
			command:    "compile",
			flags:      []string{"output"},
			shorthands: map[string]string{"output": "o"},
		},
		{
			command: "play",
			flags:   []string{"db", "metrics-addr", "seed", "retry-delay", "tick", "numbers", "groups"},
			// Unset flags fall back to the environment, so defaults are empty.
			defaults: map[string]string{"db": ""},
		},
		{
			command:  "test",
			flags:    []string{"update", "filter", "golden-dir"},
			defaults: map[string]string{"update": "false"},
		},
		{
			command: "trace",
			flags:   []string{"db", "room", "session", "kind", "after"},
		},
		{
			command: "status",
			flags:   []string{"db"},
		},
	}

	root := NewRootCommand()
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			sub, _, err := root.Find([]string{tt.command})
			require.NoError(t, err)

			for _, name := range tt.flags {
				assert.NotNil(t, sub.Flags().Lookup(name), "flag %s", name)
			}
			for name, short := range tt.shorthands {
				assert.Equal(t, short, sub.Flags().Lookup(name).Shorthand)
			}
			for name, def := range tt.defaults {
				assert.Equal(t, def, sub.Flags().Lookup(name).DefValue)
			}
		})
	}
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "invalid", "validate", "wiring.json"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
