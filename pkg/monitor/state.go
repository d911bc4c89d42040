package monitor

import (
	"sort"
	"time"
)

// ModTime is a platform-stable, equality-comparable modification time. Per
// spec, only equality is meaningful here; callers must never compare
// ModTimes for ordering, since filesystems and clocks make ordering
// unreliable across probes.
type ModTime struct {
	Seconds     int64
	Nanoseconds int32
}

// newModTime converts a time.Time into the cache's stable representation.
func newModTime(t time.Time) ModTime {
	return ModTime{Seconds: t.Unix(), Nanoseconds: int32(t.Nanosecond())}
}

// Equal reports whether two ModTime values refer to the same instant as far
// as this cache is concerned.
func (m ModTime) Equal(other ModTime) bool {
	return m.Seconds == other.Seconds && m.Nanoseconds == other.Nanoseconds
}

// SinglePathState is the cached state of a single declared path (File,
// HashedFile, Absent, or one of the two sticky-changed markers).
type SinglePathState interface {
	isSinglePathState()
}

// FileState records that a file existed at build time, tracked by
// modification time.
type FileState struct {
	ModTime ModTime
}

func (FileState) isSinglePathState() {}

// HashedFileState records that a file existed at build time, tracked by
// both modification time and content hash. Hash is the hash of the file's
// content at the moment ModTime was observed.
type HashedFileState struct {
	ModTime ModTime
	Hash    uint64
}

func (HashedFileState) isSinglePathState() {}

// AbsentState records that a path was absent at build time.
type AbsentState struct{}

func (AbsentState) isSinglePathState() {}

// StickyChangedState records that a FileDependency could not be measured at
// update time because the path didn't exist when it was expected to.
// Because UpdateMonitor never fails, it records this marker instead; every
// subsequent CheckMonitor reports Changed until the next UpdateMonitor call.
type StickyChangedState struct{}

func (StickyChangedState) isSinglePathState() {}

// StickyHashChangedState is the HashedFileDependency equivalent of
// StickyChangedState.
type StickyHashChangedState struct{}

func (StickyHashChangedState) isSinglePathState() {}

// GlobState is a node in a cached glob subtree, mirroring the shape of the
// GlobPath it was built from.
type GlobState interface {
	isGlobState()
	// hasMatchingFiles reports whether this subtree currently contains at
	// least one matched file: non-empty GlobFiles entries, or any child of a
	// GlobDirs node for which this holds recursively.
	hasMatchingFiles() bool
}

// globChild pairs a matched subdirectory name with its cached state. Within
// a GlobDirs node, Children is always sorted ascending by Name with no
// duplicates.
type globChild struct {
	Name  string
	State GlobState
}

// GlobDirs is an interior glob state node: a directory plus the states of
// its matching subdirectories.
type GlobDirs struct {
	Segment  string
	Rest     GlobPath
	DirMTime ModTime
	Children []globChild
}

func (*GlobDirs) isGlobState() {}

func (g *GlobDirs) hasMatchingFiles() bool {
	for _, c := range g.Children {
		if c.State.hasMatchingFiles() {
			return true
		}
	}
	return false
}

// globFileEntry is a single matched file within a GlobFiles node. Hash is
// the content hash as of ModTime.
type globFileEntry struct {
	Name    string
	ModTime ModTime
	Hash    uint64
}

// GlobFiles is a leaf glob state node: a directory plus the metadata of its
// matching files. Entries is always sorted ascending by Name with no
// duplicates.
type GlobFiles struct {
	Segment  string
	DirMTime ModTime
	Entries  []globFileEntry
}

func (*GlobFiles) isGlobState() {}

func (g *GlobFiles) hasMatchingFiles() bool { return len(g.Entries) > 0 }

// newGlobDirs constructs a GlobDirs node, sorting children by name and
// dropping duplicates, enforcing the sortedness invariant at every
// construction site rather than trusting callers.
func newGlobDirs(segment string, rest GlobPath, dirMTime ModTime, children []globChild) *GlobDirs {
	sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })
	return &GlobDirs{
		Segment:  segment,
		Rest:     rest,
		DirMTime: dirMTime,
		Children: dedupeChildren(children),
	}
}

func dedupeChildren(children []globChild) []globChild {
	if len(children) < 2 {
		return children
	}
	result := children[:1]
	for _, c := range children[1:] {
		if c.Name != result[len(result)-1].Name {
			result = append(result, c)
		}
	}
	return result
}

// newGlobFiles constructs a GlobFiles node, sorting entries by name and
// dropping duplicates.
func newGlobFiles(segment string, dirMTime ModTime, entries []globFileEntry) *GlobFiles {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return &GlobFiles{
		Segment:  segment,
		DirMTime: dirMTime,
		Entries:  dedupeEntries(entries),
	}
}

func dedupeEntries(entries []globFileEntry) []globFileEntry {
	if len(entries) < 2 {
		return entries
	}
	result := entries[:1]
	for _, e := range entries[1:] {
		if e.Name != result[len(result)-1].Name {
			result = append(result, e)
		}
	}
	return result
}

// MonitorStateFileSet is the complete persisted snapshot of filesystem
// metadata corresponding to a dependency set: a map from single path to its
// state, plus an ordered sequence of glob subtrees.
type MonitorStateFileSet struct {
	SinglePaths map[string]SinglePathState
	Globs       []GlobState
}
