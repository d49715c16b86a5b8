// Package logging provides component-scoped zerolog sub-loggers shared
// across the core: every long-running component (device, controller, ota,
// backup, topology) asks for a logger tagged with its own name rather than
// writing to a package-global logger directly.
package logging

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	once sync.Once
	base zerolog.Logger
)

func root() zerolog.Logger {
	once.Do(func() {
		base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	})
	return base
}

// For returns a logger tagged with component=name.
func For(name string) zerolog.Logger {
	return root().With().Str("component", name).Logger()
}

// SetOutput redirects every subsequently-created component logger. Intended
// for tests and for embedding the core into a program with its own log
// sink.
func SetOutput(w zerolog.ConsoleWriter) {
	once.Do(func() {})
	base = zerolog.New(w).With().Timestamp().Logger()
}
