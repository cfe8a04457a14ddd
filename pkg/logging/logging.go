// Package logging holds the structured logger shared by the strata packages.
// By default nothing is logged; applications opt in with SetLogger.
package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards every record. Enabled returns false so callers skip
// formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger installs the logger used by every strata package. Pass nil to
// restore the silent default. It is safe to call while layers are being
// sliced on other goroutines.
//
// Levels used:
//   - [slog.LevelDebug]: per-layer counts and which extraction path ran
//   - [slog.LevelInfo]: job lifecycle (cmd/strata only)
//   - [slog.LevelWarn]: advisory diagnostics (fallback slicing, empty layers,
//     collapsed offsets)
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
