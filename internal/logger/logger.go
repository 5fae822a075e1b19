// Package logger is the process-wide diagnostic log for llmli.
//
// Messages go to stderr so command output on stdout stays clean. The level
// defaults to LevelError; --verbose raises it to LevelDebug and
// LLMLIBRARIAN_LOG_LEVEL can pick anything in between.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level orders message severity. A message prints when its level is at or
// below the current one.
type Level int

// Levels, from always shown to most detailed.
const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

var levelTags = map[Level]string{
	LevelError: "[ERROR] ",
	LevelWarn:  "[WARN] ",
	LevelInfo:  "[INFO] ",
	LevelDebug: "[DEBUG] ",
}

var (
	mu     sync.RWMutex
	level             = LevelError
	output io.Writer = os.Stderr
)

// ParseLevel maps "error", "warn", "info" or "debug" to a Level.
// Anything else yields LevelError and false.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return LevelError, true
	case "warn", "warning":
		return LevelWarn, true
	case "info":
		return LevelInfo, true
	case "debug":
		return LevelDebug, true
	default:
		return LevelError, false
	}
}

// SetLevel sets the most detailed level that prints.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// SetVerbose switches between LevelDebug and LevelError.
func SetVerbose(v bool) {
	if v {
		SetLevel(LevelDebug)
		return
	}
	SetLevel(LevelError)
}

// IsVerbose reports whether debug messages print.
func IsVerbose() bool {
	return Enabled(LevelDebug)
}

// Enabled reports whether messages at l print.
func Enabled(l Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return l <= level
}

// SetOutput redirects log output. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func logf(l Level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if l > level {
		return
	}
	fmt.Fprintf(output, levelTags[l]+format+"\n", args...)
}

// Debug logs pipeline detail such as per-file decisions and stage timings.
func Debug(format string, args ...any) {
	logf(LevelDebug, format, args...)
}

// Info logs one line per pipeline run.
func Info(format string, args ...any) {
	logf(LevelInfo, format, args...)
}

// Warn logs a recoverable failure, e.g. a file that could not be ingested.
func Warn(format string, args ...any) {
	logf(LevelWarn, format, args...)
}

// Error always prints.
func Error(format string, args ...any) {
	logf(LevelError, format, args...)
}

// Section prints a stage header at debug level.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if level >= LevelDebug {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Timed logs the elapsed time of a pipeline stage when the returned func runs.
//
//	defer logger.Timed("stage-1 retrieval")()
func Timed(stage string) func() {
	start := time.Now()
	return func() {
		Debug("%s took %s", stage, time.Since(start).Round(time.Microsecond))
	}
}
