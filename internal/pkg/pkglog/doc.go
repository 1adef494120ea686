// Package pkglog configures slog for the server and the CLI.
//
// Records are JSON with "ts" and "severity" keys, a "service" attribute and,
// when the context carries one, the "_cID" correlation id.
package pkglog
