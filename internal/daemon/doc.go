// Package daemon coordinates the long-running Slate process.
//
// It wires configuration, the context store, the host bridge, and the
// controller into a single lifecycle with flock-based locking to prevent
// multiple instances. The daemon keeps reconnecting to the host panel in the
// background, exposes render and publish operations to IPC and HTTP callers,
// and serves status, queue, history, log, and Prometheus metrics endpoints.
//
// Keep orchestration logic here: the bridge, controller, and publish packages
// own their respective mechanics while the daemon focuses on startup,
// shutdown, and high level coordination.
package daemon
