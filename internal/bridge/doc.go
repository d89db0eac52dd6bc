// Package bridge implements the RPC channel to the host application's
// extension panel.
//
// The panel exposes a local websocket endpoint speaking named event frames
// with JSON payloads. Calls into the host are synchronous: each request
// carries a unique id, the read pump matches `response` frames back to the
// waiting caller, and a side timer bounds every wait so a wedged host surfaces
// as a TimeoutError instead of a hang. Named events from the panel (log
// relay, command invocations, document changes) are dispatched to registered
// handlers.
package bridge
