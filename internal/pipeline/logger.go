package pipeline

import (
	"errors"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

// NewLogger returns a structured logger that renders every entry as a
// task.debug logging command. Entries above verbosity are dropped.
func NewLogger(cmds *Commands, verbosity int) logr.Logger {
	return funcr.New(func(prefix, args string) {
		msg := args
		if prefix != "" {
			msg = prefix + ": " + args
		}

		_ = cmds.Debug(msg) //nolint:errcheck // best effort diagnostics
	}, funcr.Options{Verbosity: verbosity})
}

// LeveledLogger adapts a logr.Logger to the leveled logger interface
// expected by the retrying HTTP client.
type LeveledLogger struct {
	Log logr.Logger
}

// Error logs at error level.
func (l LeveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.Log.Error(errors.New(msg), "http client", keysAndValues...)
}

// Info logs at info level.
func (l LeveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.Log.Info(msg, keysAndValues...)
}

// Debug logs at verbosity 1.
func (l LeveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.Log.V(1).Info(msg, keysAndValues...)
}

// Warn logs at info level with a level marker.
func (l LeveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.Log.Info(msg, append([]interface{}{"level", "warn"}, keysAndValues...)...)
}
