package trace

import (
	"fmt"
	"log"
	"os"
	"sync/atomic"
)

var (
	// logger is the logger to use for tracing.
	logger atomic.Pointer[log.Logger]

	// current is the targets that are enabled for tracing.
	current atomic.Int32
)

func init() {
	logger.Store(log.New(os.Stderr, "", log.Ltime|log.Lmicroseconds|log.Lshortfile))
}

// Target is a tracing target.
type Target int32

const (
	// General traces general operations.
	General Target = 1 << iota

	// Walk traces the enter and exit events of tree diff walks.
	Walk
)

// SetTarget sets the tracing targets.
func SetTarget(target Target) {
	current.Store(int32(target))
}

// SetLogger sets the logger to use for tracing.
func SetLogger(l *log.Logger) {
	logger.Store(l)
}

// Enabled reports whether tracing is enabled for t.
func (t Target) Enabled() bool {
	return int32(t)&current.Load() != 0
}

// Print prints the given message if tracing is enabled.
func (t Target) Print(args ...interface{}) {
	if t.Enabled() {
		logger.Load().Output(2, fmt.Sprint(args...)) // nolint: errcheck
	}
}

// Printf prints the given message if tracing is enabled.
func (t Target) Printf(format string, args ...interface{}) {
	if t.Enabled() {
		logger.Load().Output(2, fmt.Sprintf(format, args...)) // nolint: errcheck
	}
}
