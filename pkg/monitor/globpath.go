package monitor

// GlobPath is a non-empty chain of glob segments terminated by a
// file-matching segment. Paths inside a GlobPath are always relative to the
// monitor root.
type GlobPath interface {
	isGlobPath()
	// HeadSegment returns this glob path's outermost segment pattern.
	HeadSegment() string
}

// GlobDir is an interior glob path segment: it matches a directory name and
// continues matching with Rest inside that directory.
type GlobDir struct {
	Segment string
	Rest    GlobPath
}

func (GlobDir) isGlobPath() {}

// HeadSegment implements GlobPath.HeadSegment.
func (g GlobDir) HeadSegment() string { return g.Segment }

// GlobFile is the terminal glob path segment: it matches file names directly
// within the directory reached by any preceding GlobDir segments.
type GlobFile struct {
	Segment string
}

func (GlobFile) isGlobPath() {}

// HeadSegment implements GlobPath.HeadSegment.
func (g GlobFile) HeadSegment() string { return g.Segment }
