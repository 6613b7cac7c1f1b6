// Package logctx provides the shared leveled-logging backend used by every
// package in this module, following the teacher's per-package `log` variable
// convention (see blockchain/difficulty.go's log.Debugf calls) without
// pulling a concrete backend into library code: packages log through a
// slog.Logger that defaults to slog.Disabled until a cmd/ entrypoint wires
// a real backend via UseLogger.
package logctx

import "github.com/decred/slog"

// Disabled is the no-op logger every package is initialized with.
var Disabled = slog.Disabled

// NewBackend builds a slog.Backend writing to w, for cmd/ entrypoints to
// attach to each subsystem logger at startup.
func NewBackend(w interface {
	Write([]byte) (int, error)
}) *slog.Backend {
	return slog.NewBackend(w)
}
