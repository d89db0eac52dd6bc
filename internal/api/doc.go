// Package api defines wire-format types and converters for the IPC and HTTP
// API layer. It translates internal host and store models into
// transport-friendly DTOs that the CLI and other consumers can render without
// coupling to internal types.
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Internal
// enums (host.Status) are exposed as lowercase strings. Timestamps use
// RFC3339 with milliseconds.
package api
