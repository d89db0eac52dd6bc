// Package logging assembles structured slog loggers and formatting helpers
// used across Slate services.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so bridge and publish code can
// automatically tag log lines with document names, plugin names, and
// correlation IDs. The package also provides a no-op logger for tests and
// wiring code that cannot fail, and a forwarding handler that mirrors records
// to the host application's panel.
//
// Prefer these constructors over hand-rolled slog setup to ensure new
// components emit data with the same shape and routing guarantees as the rest
// of the system.
package logging
