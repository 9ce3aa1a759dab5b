// Package obslog centralizes the go-kit/log setup used by pipeline and
// cmd/ringflow-demo: a logfmt logger with a timestamp and a component
// field, or a no-op sink when the caller doesn't want one.
package obslog

import (
	"io"
	"os"

	"github.com/go-kit/log"
)

// New builds a logfmt logger writing to w, with a caller-suppliable
// component name attached to every line.
func New(w io.Writer, component string) log.Logger {
	l := log.NewLogfmtLogger(log.NewSyncWriter(w))
	return log.With(l, "ts", log.DefaultTimestampUTC, "component", component)
}

// NewStderr is a convenience wrapper around New(os.Stderr, component),
// used by cmd/ringflow-demo.
func NewStderr(component string) log.Logger {
	return New(os.Stderr, component)
}

// Nop returns a logger that discards everything, matching the default
// used by ring.New/trivialring.New/pipeline.New when no logger option is
// given.
func Nop() log.Logger { return log.NewNopLogger() }
