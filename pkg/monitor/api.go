package monitor

import (
	pathpkg "path"

	"github.com/pkg/errors"

	"github.com/monitorcache/monitorcache/pkg/logging"
)

// ErrCacheNotExist indicates that CheckMonitor found no cache file at the
// requested path. Like ErrCacheCorrupt, this is folded into a Changed result
// rather than surfaced as an error.
var ErrCacheNotExist = errors.New("monitor cache does not exist")

// Codec lets callers plug in their own key/result serialization, so that
// UpdateMonitor/CheckMonitor can persist and recover arbitrary caller types
// without this package knowing anything about them.
type Codec[K any, V any] interface {
	MarshalKey(K) ([]byte, error)
	UnmarshalKey([]byte) (K, error)
	KeysEqual(a, b K) bool
	MarshalResult(V) ([]byte, error)
	UnmarshalResult([]byte) (V, error)
}

// Result is what CheckMonitor reports: either Changed (caller must rebuild
// and call UpdateMonitor again), or Unchanged, carrying the cached Value and
// the dependency set that was used to validate it, for callers that want to
// re-persist without recomputing dependencies.
type Result[V any] struct {
	Changed bool
	Value   V
	Deps    []Dependency
}

// UpdateMonitor computes the current filesystem state for deps, then
// persists it alongside key and value at cachePath. It never fails solely
// because a declared dependency does not currently exist: such cases are
// recorded as sticky-changed markers instead.
func UpdateMonitor[K any, V any](
	root, cachePath string,
	key K,
	value V,
	deps []Dependency,
	codec Codec[K, V],
	logger *logging.Logger,
) error {
	state, err := buildState(root, deps)
	if err != nil {
		return errors.Wrap(err, "unable to build monitor state")
	}

	keyBytes, err := codec.MarshalKey(key)
	if err != nil {
		return errors.Wrap(err, "unable to marshal key")
	}
	resultBytes, err := codec.MarshalResult(value)
	if err != nil {
		return errors.Wrap(err, "unable to marshal result")
	}

	logger.Debugf("writing monitor cache to %s", cachePath)
	if err := writeCacheFile(cachePath, state, keyBytes, resultBytes); err != nil {
		return errors.Wrap(err, "unable to write cache file")
	}
	return nil
}

// CheckMonitor loads the cache at cachePath and reconciles it against the
// live filesystem under root. It reports Changed (with no error) whenever
// the cache is missing, corrupt, or keyed by a different key than the one
// given, as well as whenever any tracked dependency has actually changed.
func CheckMonitor[K any, V any](
	root, cachePath string,
	key K,
	codec Codec[K, V],
	logger *logging.Logger,
) (Result[V], error) {
	state, keyBytes, resultBytes, err := readCacheFile(cachePath)
	if err != nil {
		if errors.Is(err, ErrCacheNotExist) || errors.Is(err, ErrCacheCorrupt) {
			logger.Debugf("monitor cache at %s unusable: %v", cachePath, err)
			return Result[V]{Changed: true}, nil
		}
		return Result[V]{}, errors.Wrap(err, "unable to read cache file")
	}

	cachedKey, err := codec.UnmarshalKey(keyBytes)
	if err != nil {
		logger.Debugf("monitor cache at %s has unreadable key: %v", cachePath, err)
		return Result[V]{Changed: true}, nil
	}
	if !codec.KeysEqual(cachedKey, key) {
		logger.Debugf("monitor cache at %s was built for a different key", cachePath)
		return Result[V]{Changed: true}, nil
	}

	outcome, err := probeState(root, state, logger)
	if err != nil {
		return Result[V]{}, errors.Wrap(err, "unable to probe monitor state")
	}
	if outcome.changed {
		return Result[V]{Changed: true}, nil
	}

	if outcome.dirty {
		logger.Debugf("refreshing monitor cache at %s", cachePath)
		if err := writeCacheFile(cachePath, outcome.state, keyBytes, resultBytes); err != nil {
			// The probe result is still trustworthy even if the rewrite
			// failed; only the opportunistic refresh is lost.
			logger.Warnf("unable to refresh monitor cache at %s: %v", cachePath, err)
		}
	}

	value, err := codec.UnmarshalResult(resultBytes)
	if err != nil {
		logger.Debugf("monitor cache at %s has unreadable result: %v", cachePath, err)
		return Result[V]{Changed: true}, nil
	}

	return Result[V]{
		Changed: false,
		Value:   value,
		Deps:    projectDependencies(outcome.state),
	}, nil
}

// probeState probes every single path and glob in state, short-circuiting
// on the first Changed outcome.
func probeState(root string, state *MonitorStateFileSet, logger *logging.Logger) (probeOutcome[*MonitorStateFileSet], error) {
	dirty := false

	newSinglePaths := make(map[string]SinglePathState, len(state.SinglePaths))
	for path, s := range state.SinglePaths {
		outcome, err := probeSingle(root, path, s, logger)
		if err != nil {
			return probeOutcome[*MonitorStateFileSet]{}, err
		}
		if outcome.changed {
			return changedOutcome[*MonitorStateFileSet](), nil
		}
		newSinglePaths[path] = outcome.state
		dirty = dirty || outcome.dirty
	}

	newGlobs := make([]GlobState, len(state.Globs))
	for i, g := range state.Globs {
		outcome, err := probeGlob(root, ".", g, logger)
		if err != nil {
			return probeOutcome[*MonitorStateFileSet]{}, err
		}
		if outcome.changed {
			return changedOutcome[*MonitorStateFileSet](), nil
		}
		newGlobs[i] = outcome.state
		dirty = dirty || outcome.dirty
	}

	return unchangedOutcome(&MonitorStateFileSet{SinglePaths: newSinglePaths, Globs: newGlobs}, dirty), nil
}

// projectDependencies reconstructs the Dependency list that a MonitorStateFileSet
// was built from, for callers that want to re-validate or re-update without
// re-deriving their dependency set from scratch.
func projectDependencies(state *MonitorStateFileSet) []Dependency {
	deps := make([]Dependency, 0, len(state.SinglePaths)+len(state.Globs))
	for path, s := range state.SinglePaths {
		switch s.(type) {
		case FileState:
			deps = append(deps, FileDependency{Path: path})
		case HashedFileState:
			deps = append(deps, HashedFileDependency{Path: path})
		case AbsentState:
			deps = append(deps, AbsentDependency{Path: path})
		case StickyChangedState:
			deps = append(deps, FileDependency{Path: path})
		case StickyHashChangedState:
			deps = append(deps, HashedFileDependency{Path: path})
		}
	}
	for _, g := range state.Globs {
		deps = append(deps, GlobDependency{Path: globStatePath(g)})
	}
	return deps
}

// globStatePath reconstructs the GlobPath a GlobState tree was built from.
func globStatePath(state GlobState) GlobPath {
	switch s := state.(type) {
	case *GlobDirs:
		return GlobDir{Segment: s.Segment, Rest: s.Rest}
	case *GlobFiles:
		return GlobFile{Segment: s.Segment}
	default:
		return nil
	}
}

// MatchFileGlob walks root for files matching gp, without consulting or
// producing any cached state. It's a convenience for callers that want to
// discover a dependency set's initial members before ever calling
// UpdateMonitor.
func MatchFileGlob(root string, gp GlobPath) ([]string, error) {
	var matches []string
	if err := matchGlob(root, ".", gp, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

func matchGlob(root, dir string, gp GlobPath, matches *[]string) error {
	names, listed, err := handleMissing(func() ([]string, error) { return listDir(osPath(root, dir)) })
	if err != nil {
		return err
	}
	if !listed {
		return nil
	}

	segment := gp.HeadSegment()
	for _, name := range names {
		if !matchSegment(segment, name) {
			continue
		}
		childPath := pathpkg.Join(dir, name)

		switch g := gp.(type) {
		case GlobDir:
			isDir, err := existsDir(osPath(root, childPath))
			if err != nil {
				return err
			}
			if !isDir {
				continue
			}
			if err := matchGlob(root, childPath, g.Rest, matches); err != nil {
				return err
			}
		case GlobFile:
			isFile, err := existsFile(osPath(root, childPath))
			if err != nil {
				return err
			}
			if isFile {
				*matches = append(*matches, childPath)
			}
		}
	}
	return nil
}
