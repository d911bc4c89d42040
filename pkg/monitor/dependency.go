package monitor

// Dependency is a single declared filesystem dependency: a concrete file, an
// expected-absent path, or a glob.
type Dependency interface {
	isDependency()
}

// FileDependency declares that a file is expected to exist and should be
// tracked by modification time alone.
type FileDependency struct {
	// Path is relative to the monitor root.
	Path string
}

func (FileDependency) isDependency() {}

// HashedFileDependency declares that a file is expected to exist and should
// be tracked by both modification time and content hash. The modification
// time is a fast-reject check; the hash is the tiebreaker when the
// modification time has changed but the content may not have.
type HashedFileDependency struct {
	// Path is relative to the monitor root.
	Path string
}

func (HashedFileDependency) isDependency() {}

// AbsentDependency declares that a path is expected not to exist.
type AbsentDependency struct {
	// Path is relative to the monitor root.
	Path string
}

func (AbsentDependency) isDependency() {}

// GlobDependency declares a set of files matched by a glob path.
type GlobDependency struct {
	Path GlobPath
}

func (GlobDependency) isDependency() {}

// MonitorSearchPath builds the dependency set for a search-path style
// lookup: the path where a file was ultimately found is tracked by
// modification time, and every path that was searched and found missing
// beforehand is recorded as expected-absent, so that a result becomes
// invalid if any earlier candidate starts existing.
func MonitorSearchPath(notFoundAt []string, foundAt string) []Dependency {
	deps := make([]Dependency, 0, len(notFoundAt)+1)
	deps = append(deps, FileDependency{Path: foundAt})
	for _, p := range notFoundAt {
		deps = append(deps, AbsentDependency{Path: p})
	}
	return deps
}

// MonitorHashedSearchPath is the HashedFileDependency equivalent of
// MonitorSearchPath.
func MonitorHashedSearchPath(notFoundAt []string, foundAt string) []Dependency {
	deps := make([]Dependency, 0, len(notFoundAt)+1)
	deps = append(deps, HashedFileDependency{Path: foundAt})
	for _, p := range notFoundAt {
		deps = append(deps, AbsentDependency{Path: p})
	}
	return deps
}
