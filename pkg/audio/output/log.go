// ABOUTME: Leveled logging for output plugins
// ABOUTME: Warning, error and debug lines routed through the standard logger
package output

import (
	"log"
	"sync/atomic"
)

// Logger receives the diagnostic lines emitted by outputs.
type Logger interface {
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// StdLogger writes through the standard log package. Debug lines are dropped
// unless enabled.
type StdLogger struct {
	debug atomic.Bool
}

// NewStdLogger creates a logger with debug output switched as given
func NewStdLogger(debug bool) *StdLogger {
	l := &StdLogger{}
	l.debug.Store(debug)
	return l
}

// SetDebug switches debug output
func (l *StdLogger) SetDebug(enabled bool) {
	l.debug.Store(enabled)
}

// Warnf logs a warning
func (l *StdLogger) Warnf(format string, args ...interface{}) {
	log.Printf("Warning: "+format, args...)
}

// Errorf logs an error
func (l *StdLogger) Errorf(format string, args ...interface{}) {
	log.Printf("Error: "+format, args...)
}

// Debugf logs a debug line if debug output is enabled
func (l *StdLogger) Debugf(format string, args ...interface{}) {
	if l.debug.Load() {
		log.Printf("Debug: "+format, args...)
	}
}

var logger Logger = NewStdLogger(false)

// SetLogger replaces the logger used by outputs created afterwards and by
// the registry.
func SetLogger(l Logger) {
	if l == nil {
		l = NewStdLogger(false)
	}
	logger = l
}
