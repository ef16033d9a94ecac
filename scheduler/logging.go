package scheduler

import (
	"github.com/joeycumines/go-utilpkg/logiface"
	"github.com/joeycumines/go-utilpkg/logiface/stumpy"
)

// Logger is the structured logger type every Schedule accepts through
// WithLogger, following the teacher's logging.go design note: logiface is
// the stable interface, stumpy the default low-overhead backend.
type Logger = logiface.Logger[*stumpy.Event]

// defaultLogger returns a logger discarding everything, matching the
// teacher's NewNoOpLogger default: logging is zero-cost unless a caller
// opts in via WithLogger.
func defaultLogger() *Logger {
	return logiface.New[*stumpy.Event]()
}

// NewStumpyLogger builds a Logger writing newline-delimited JSON through
// stumpy, the teacher's own low-overhead default backend.
func NewStumpyLogger(opts ...stumpy.Option) *Logger {
	return logiface.New[*stumpy.Event](stumpy.WithStumpy(opts...))
}
