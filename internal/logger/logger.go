// Package logger writes manualqa's diagnostic output to stderr.
//
// Debug, info and warning lines only appear with --verbose and are used to
// trace extraction, indexing and retrieval. Error lines are always written,
// since they report failures that were recovered locally and would
// otherwise go unseen.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

type level uint8

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
)

var prefixes = [...]string{
	levelDebug: "[DEBUG] ",
	levelInfo:  "[INFO] ",
	levelWarn:  "[WARN] ",
	levelError: "[ERROR] ",
}

var state = struct {
	sync.RWMutex
	verbose bool
	out     io.Writer
}{out: os.Stderr}

// SetVerbose turns verbose output on or off.
func SetVerbose(v bool) {
	state.Lock()
	state.verbose = v
	state.Unlock()
}

// IsVerbose reports whether verbose output is on.
func IsVerbose() bool {
	state.RLock()
	defer state.RUnlock()
	return state.verbose
}

// SetOutput redirects all log output to w. Tests use it to capture lines.
func SetOutput(w io.Writer) {
	state.Lock()
	state.out = w
	state.Unlock()
}

func Debug(format string, args ...any) { logf(levelDebug, format, args...) }

func Info(format string, args ...any) { logf(levelInfo, format, args...) }

func Warn(format string, args ...any) { logf(levelWarn, format, args...) }

// Error is written even when verbose output is off.
func Error(format string, args ...any) { logf(levelError, format, args...) }

// Section writes a "=== name ===" header that groups the debug lines of one
// pipeline stage.
func Section(name string) {
	state.RLock()
	defer state.RUnlock()
	if state.verbose {
		fmt.Fprintf(state.out, "\n=== %s ===\n", name)
	}
}

func logf(l level, format string, args ...any) {
	state.RLock()
	defer state.RUnlock()
	if l < levelError && !state.verbose {
		return
	}
	fmt.Fprintf(state.out, prefixes[l]+format+"\n", args...)
}
