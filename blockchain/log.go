package blockchain

import "github.com/decred/slog"

// log is the package-wide subsystem logger, following the teacher's
// UseLogger convention; disabled until a cmd/ entrypoint wires a backend.
var log = slog.Disabled

// UseLogger sets the logger used by this package.
func UseLogger(logger slog.Logger) {
	log = logger
}
