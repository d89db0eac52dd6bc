// Package launcher discovers installed host applications and prepares launch
// environments that wire the panel bridge back to the daemon.
//
// Discovery works from executable match templates: path patterns with
// {version} tokens that expand to a glob for enumeration and to a regex for
// version capture. Installs below the configured minimum version are ignored.
package launcher
