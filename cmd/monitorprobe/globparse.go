package main

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/monitorcache/monitorcache/pkg/monitor"
)

// parseGlobPattern turns a slash-separated pattern such as "*/pkg/*.go" into
// a GlobPath chain: every segment but the last becomes a GlobDir, and the
// last becomes the terminal GlobFile.
func parseGlobPattern(pattern string) (monitor.GlobPath, error) {
	segments := strings.Split(pattern, "/")
	if len(segments) == 0 || segments[len(segments)-1] == "" {
		return nil, errors.Errorf("glob pattern %q must end in a file-matching segment", pattern)
	}

	gp := monitor.GlobPath(monitor.GlobFile{Segment: segments[len(segments)-1]})
	for i := len(segments) - 2; i >= 0; i-- {
		gp = monitor.GlobDir{Segment: segments[i], Rest: gp}
	}
	return gp, nil
}
