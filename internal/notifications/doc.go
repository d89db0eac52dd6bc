// Package notifications delivers daemon events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Render, publish, and error notifications can be toggled
// individually, so the daemon and the publish pipeline emit consistent
// messages without duplicating HTTP glue.
//
// Extend this package if you need alternative transports; all callers depend
// only on the simple Service interface.
package notifications
