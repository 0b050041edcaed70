// Package logger provides a lightweight, centralized logging facility
// with configurable verbosity levels.
//
// Verbosity levels (in increasing order):
//
//	Error < Info < Debug < Trace
//
// Warnings are emitted at Info verbosity with their own prefix.
//
// Example usage:
//
//	logger.SetVerbosity(2) // Debug
//	logger.Infof("pricing %s strike=%.2f", optType, strike)
//	logger.Debugf("lattice: steps=%d p=%.6f", n, p)
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// Level represents a logging verbosity level.
// Higher values mean more verbose logging.
type Level int

const (
	Error Level = iota // Error logs only critical failures.
	Info               // Info logs high-level application progress.
	Debug              // Debug logs detailed diagnostic information.
	Trace              // Trace logs very fine-grained execution details.
)

// current holds the active verbosity level.
// Only messages with level <= current are logged.
var current atomic.Int32

// init writes to stderr so logs stay out of the priced output on stdout,
// formatted like:
//
//	2026/01/25 15:42:10 engine.go:87 [INFO]  pricing started
func init() {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	current.Store(int32(Info))
}

// SetVerbosity sets the global logging verbosity.
// Out-of-range values are clamped to [Error, Trace].
func SetVerbosity(v int) {
	switch {
	case v < int(Error):
		v = int(Error)
	case v > int(Trace):
		v = int(Trace)
	}
	current.Store(int32(v))
}

// Verbosity returns the active level.
func Verbosity() Level {
	return Level(current.Load())
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// ParseLevel maps "error", "info", "debug" and "trace" (or their numeric
// forms 0-3) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error", "0":
		return Error, nil
	case "info", "1", "":
		return Info, nil
	case "debug", "2":
		return Debug, nil
	case "trace", "3":
		return Trace, nil
	}
	return Info, fmt.Errorf("unknown log level %q", s)
}

// logf checks verbosity and delegates to the standard library logger.
// calldepth 3 points Lshortfile at the caller of Errorf/Infof/...
func logf(l Level, prefix, format string, args ...any) {
	if Verbosity() >= l {
		_ = log.Output(3, prefix+fmt.Sprintf(format, args...))
	}
}

// Errorf logs an error-level message.
func Errorf(format string, args ...any) {
	logf(Error, "[ERROR] ", format, args...)
}

// Warnf logs a recoverable anomaly, such as a provider falling back to its
// secondary.
func Warnf(format string, args ...any) {
	logf(Info, "[WARN]  ", format, args...)
}

// Infof logs an informational message.
func Infof(format string, args ...any) {
	logf(Info, "[INFO]  ", format, args...)
}

// Debugf logs debugging information.
func Debugf(format string, args ...any) {
	logf(Debug, "[DEBUG] ", format, args...)
}

// Tracef logs very detailed execution traces.
// Use this sparingly due to high volume.
func Tracef(format string, args ...any) {
	logf(Trace, "[TRACE] ", format, args...)
}
