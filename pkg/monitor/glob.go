package monitor

import "github.com/bmatcuk/doublestar/v4"

// matchSegment tests a single path segment (no path separators) against a
// single glob segment pattern. This is the engine's only dependency on an
// external glob grammar.
func matchSegment(pattern, name string) bool {
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}
