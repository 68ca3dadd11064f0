package filepool

import (
	"log/slog"
	"time"
)

// Logger receives the per-load timing the background loader produces
// (spec.md §4.6 step 9): how long the request waited in the queue before a
// worker picked it up, and how long the decode+stream itself took. No error
// ever crosses back to the audio thread, so this is also where load failures
// surface.
type Logger interface {
	LogFileTime(wait, load time.Duration, frames int, name string)
	LogLoadError(name string, err error)
}

// slogLogger is the default Logger, built on log/slog the way the teacher's
// cmd and audioplayer packages already did (see DESIGN.md).
type slogLogger struct{}

// NewSlogLogger returns the package's default Logger.
func NewSlogLogger() Logger { return slogLogger{} }

func (slogLogger) LogFileTime(wait, load time.Duration, frames int, name string) {
	slog.Info("sample background load finished",
		"file", name,
		"frames", frames,
		"wait", wait,
		"load", load,
	)
}

func (slogLogger) LogLoadError(name string, err error) {
	slog.Warn("sample background load failed", "file", name, "error", err)
}

// nopLogger discards everything; useful in tests that don't want log noise.
type nopLogger struct{}

// NewNopLogger returns a Logger that discards every event.
func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) LogFileTime(time.Duration, time.Duration, int, string) {}
func (nopLogger) LogLoadError(string, error)                            {}
