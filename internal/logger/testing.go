package logger

import (
	"log/slog"
	"os"
)

// testLogEnv names the environment variable that raises test log output.
// It accepts the same values as --log-level ("debug", "info", ...).
const testLogEnv = "TEST_DEBUG"

// NewTestLogger returns a text logger on stderr for tests. Only warnings
// and errors are shown unless TEST_DEBUG is set; any non-level value
// means debug.
func NewTestLogger() *slog.Logger {
	level := slog.LevelWarn
	if v := os.Getenv(testLogEnv); v != "" {
		level = ParseLevel(v, slog.LevelDebug)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
