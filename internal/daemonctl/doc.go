// Package daemonctl orchestrates daemon process lifecycle from the CLI:
// launching slated, waiting for its IPC socket, requesting start/stop, and
// force-killing a wedged process as a last resort.
package daemonctl
