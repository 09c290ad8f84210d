// Package obslog adapts github.com/rs/zerolog to the small,
// interface-per-consumer logging shape spec.md §1 names as an external
// collaborator ("process-wide logging" is out of scope for the core).
// There is no package-level logger; every consumer gets an explicit
// *Logger constructed once in cmd/bwtui and passed down, matching
// spec.md §9's "no process-wide singletons" note.
package obslog

import (
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Logger wraps a zerolog.Logger and satisfies the narrow Logger
// interfaces that internal/dispatch and pkg/prefetch declare for
// themselves, so neither package needs to import zerolog directly.
type Logger struct {
	z zerolog.Logger
}

// New returns a Logger writing human-readable, timestamped lines to w.
// Every line from this launch carries the same run id, a fresh uuid
// generated once here, so lines from overlapping launches (a crash
// right before a relaunch, two terminals) can still be told apart in a
// shared log file. Secrets are never passed to any of its methods by
// callers in this program; nothing here redacts, because nothing here
// is trusted with a secret in the first place.
func New(w io.Writer) *Logger {
	z := zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).
		With().Timestamp().Str("run", uuid.NewString()).Logger()
	return &Logger{z: z}
}

// Warnf logs a warning, used by internal/dispatch for recoverable
// runtime failures (Host*/Clipboard* errors per spec.md §7).
func (l *Logger) Warnf(format string, args ...any) {
	l.z.Warn().Msgf(format, args...)
}

// Errorf logs an error. It completes internal/dispatch's Logger
// interface; nothing in the dispatcher calls it.
func (l *Logger) Errorf(format string, args ...any) {
	l.z.Error().Msgf(format, args...)
}

// Warn implements pkg/prefetch.Logger: a failed best-effort fetch is
// logged with the id it was for, never surfaced to the UI.
func (l *Logger) Warn(id string, err error) {
	l.z.Warn().Str("id", id).Err(err).Msg("prefetch failed")
}
