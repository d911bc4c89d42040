// Package monitor implements a persistent file status cache: given a set of
// declared filesystem dependencies (files, expected-absent paths, directory
// globs) plus an opaque key and result, it persists enough filesystem
// metadata to later decide, cheaply and correctly, whether anything that
// could invalidate the result has changed.
//
// The package does not watch the filesystem for events; it polls on demand
// via UpdateMonitor and CheckMonitor.
package monitor
