// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logger provides verbose diagnostics for fedsearch. When verbose
// mode is enabled via the --verbose flag, round and page events from the
// federation engine are printed to stderr.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the writer for verbose logs. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func emit(level, msg string, always bool) {
	mu.RLock()
	defer mu.RUnlock()
	if always || verbose {
		fmt.Fprintf(output, "[%s] %s\n", level, msg)
	}
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) { emit("DEBUG", fmt.Sprintf(format, args...), false) }

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) { emit("INFO", fmt.Sprintf(format, args...), false) }

// Warn prints a warning regardless of verbose mode.
func Warn(format string, args ...any) { emit("WARN", fmt.Sprintf(format, args...), true) }

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Session tags lines from one query session so interleaved output from
// concurrent sessions can be told apart.
type Session struct {
	ID string
}

// ForSession returns a Session logger for id. Lines carry the first eight
// characters of id.
func ForSession(id string) Session {
	return Session{ID: id}
}

func (s Session) tag() string {
	if len(s.ID) > 8 {
		return s.ID[:8]
	}
	return s.ID
}

// Debug prints a session-tagged message if verbose mode is enabled.
func (s Session) Debug(format string, args ...any) {
	emit("DEBUG", "session "+s.tag()+": "+fmt.Sprintf(format, args...), false)
}

// Warn prints a session-tagged warning regardless of verbose mode.
func (s Session) Warn(format string, args ...any) {
	emit("WARN", "session "+s.tag()+": "+fmt.Sprintf(format, args...), true)
}
