// Package config loads and validates the Slate configuration file.
//
// Configuration lives in TOML (default ~/.config/slate/config.toml) and is
// grouped by subsystem: paths, bridge, platform, publish, session, launcher,
// notifications, and logging. Load applies repository defaults first, then the
// file, then environment overrides for secrets, and finally normalizes every
// path field so downstream code never sees a `~` or relative path.
package config
