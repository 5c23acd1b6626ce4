package testhelper

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
)

// LogEnv enables zerolog output in tests when set to any value.
const LogEnv = "GREETER_TEST_LOG"

// init disables logging for any test binary importing this package unless
// LogEnv is set.
func init() {
	if testing.Testing() && os.Getenv(LogEnv) == "" {
		zerolog.SetGlobalLevel(zerolog.Disabled)
	}
}

// EnableLogging turns zerolog back on for the duration of a test.
func EnableLogging(t *testing.T, level zerolog.Level) {
	t.Helper()

	previous := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(level)
	t.Cleanup(func() { zerolog.SetGlobalLevel(previous) })
}
