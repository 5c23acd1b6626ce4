package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lacquerai/greeter/internal/style"
)

func TestExecute(t *testing.T) {
	originalRootCmd := rootCmd

	testCmd := &cobra.Command{
		Use:   "greeter",
		Short: "Test command",
		Run: func(cmd *cobra.Command, args []string) {
			// Do nothing
		},
	}
	testCmd.SetArgs([]string{})

	rootCmd = testCmd
	defer func() { rootCmd = originalRootCmd }()

	err := Execute()
	assert.NoError(t, err)
}

func TestGetVersion(t *testing.T) {
	version := getVersion()
	assert.Contains(t, version, "dev")
	assert.Contains(t, version, "unknown")
	assert.Contains(t, version, GoVersion)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"", zerolog.Disabled},
		{"chatty", zerolog.Disabled},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.level))
		})
	}
}

func TestInitLogging(t *testing.T) {
	previous := zerolog.GlobalLevel()
	defer zerolog.SetGlobalLevel(previous)

	require.NotPanics(t, func() {
		initLogging()
	})
}

func TestInitConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	require.NotPanics(t, func() {
		initConfig()
	})
}

func TestRootHelp(t *testing.T) {
	stdout, _, err := executeCommand(t, "--help")
	require.NoError(t, err)

	for _, sub := range []string{"serve", "greet", "version"} {
		assert.Contains(t, stdout, sub)
	}
}

func TestUnknownCommand(t *testing.T) {
	_, _, err := executeCommand(t, "fly")
	assert.Error(t, err)
}

// prepareCommand points the root command at fresh buffers and args. Flag
// values and contexts stick to the package level commands, so both are reset.
func prepareCommand(t *testing.T, ctx context.Context, args ...string) (stdout, stderr *bytes.Buffer) {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv(style.SpinnerTestEnv, "true")
	resetFlags(rootCmd)
	setContext(rootCmd, ctx)

	stdout, stderr = new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	return stdout, stderr
}

func executeCommand(t *testing.T, args ...string) (stdout string, stderr string, err error) {
	t.Helper()

	ctx := context.Background()
	outBuf, errBuf := prepareCommand(t, ctx, args...)
	err = rootCmd.ExecuteContext(ctx)
	return outBuf.String(), errBuf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)

	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// setContext replaces the context cobra keeps on every command after a run
func setContext(cmd *cobra.Command, ctx context.Context) {
	cmd.SetContext(ctx)
	for _, sub := range cmd.Commands() {
		setContext(sub, ctx)
	}
}
