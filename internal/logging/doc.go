// Package logging assembles structured slog loggers and formatting helpers used
// across Cuadrilla.
//
// It owns the configurable console/JSON handlers and exposes context-aware
// helpers so request handlers and the store automatically tag log lines with
// site IDs, operations and correlation IDs. A no-op logger is provided for
// tests and wiring code that cannot fail.
package logging
