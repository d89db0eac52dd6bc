// Package preflight provides readiness checks for directories, templates, and
// external endpoints the daemon depends on.
//
// These checks run in two contexts:
//   - The daemon binary runs RunAll at startup and logs failures before
//     entering the connect loop.
//   - The CLI "slate status" command uses the individual check functions to
//     display environment health.
//
// Each check is gated by its config value -- unconfigured features are
// skipped or reported as such rather than failing.
package preflight
