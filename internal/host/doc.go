// Package host is a typed façade over the bridge for the slices of the host
// application's object model Slate actually touches: the project document,
// the render queue, and footage import. It deliberately does not mirror the
// host's full API surface.
package host
