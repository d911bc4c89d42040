package monitor

import (
	pathpkg "path"

	"github.com/pkg/errors"

	"github.com/monitorcache/monitorcache/pkg/logging"
)

// probeGlob recursively reconciles a cached GlobState against the live
// filesystem at dir (relative to root), the directory this state node
// describes.
func probeGlob(root, dir string, state GlobState, logger *logging.Logger) (probeOutcome[GlobState], error) {
	switch s := state.(type) {
	case *GlobDirs:
		return probeGlobDirs(root, dir, s, logger)
	case *GlobFiles:
		return probeGlobFiles(root, dir, s, logger)
	default:
		return probeOutcome[GlobState]{}, errors.Errorf("unrecognized glob state %T", state)
	}
}

// probeGlobDirs reconciles a cached GlobDirs node against the live
// filesystem.
func probeGlobDirs(root, dir string, s *GlobDirs, logger *logging.Logger) (probeOutcome[GlobState], error) {
	liveMTime, existed, err := handleMissing(func() (ModTime, error) { return statMTime(osPath(root, dir)) })
	if err != nil {
		return probeOutcome[GlobState]{}, err
	}
	if !existed {
		logger.Tracef("glob directory %s no longer exists", dir)
		return changedOutcome[GlobState](), nil
	}

	if liveMTime.Equal(s.DirMTime) {
		// The directory hasn't been touched: recurse into every cached
		// child without re-listing, carrying the same directory mtime.
		dirty := false
		children := make([]globChild, len(s.Children))
		for i, c := range s.Children {
			outcome, err := probeGlob(root, pathpkg.Join(dir, c.Name), c.State, logger)
			if err != nil {
				return probeOutcome[GlobState]{}, err
			}
			if outcome.changed {
				return changedOutcome[GlobState](), nil
			}
			children[i] = globChild{Name: c.Name, State: outcome.state}
			dirty = dirty || outcome.dirty
		}
		return unchangedOutcome[GlobState](&GlobDirs{
			Segment:  s.Segment,
			Rest:     s.Rest,
			DirMTime: s.DirMTime,
			Children: children,
		}, dirty), nil
	}

	logger.Tracef("glob directory %s modification time changed, reconciling", dir)

	names, listed, err := handleMissing(func() ([]string, error) { return listDir(osPath(root, dir)) })
	if err != nil {
		return probeOutcome[GlobState]{}, err
	}
	if !listed {
		return changedOutcome[GlobState](), nil
	}

	var liveNames []string
	for _, name := range names {
		if !matchSegment(s.Segment, name) {
			continue
		}
		isDir, err := existsDir(osPath(root, pathpkg.Join(dir, name)))
		if err != nil {
			return probeOutcome[GlobState]{}, err
		}
		if isDir {
			liveNames = append(liveNames, name)
		}
	}

	cachedNames := make([]string, len(s.Children))
	cachedByName := make(map[string]GlobState, len(s.Children))
	for i, c := range s.Children {
		cachedNames[i] = c.Name
		cachedByName[c.Name] = c.State
	}

	items := sortedMerge[GlobState, struct{}](
		cachedNames, func(n string) GlobState { return cachedByName[n] },
		liveNames, func(string) struct{} { return struct{}{} },
	)

	dirty := false
	var reconciled []globChild
	for _, item := range items {
		switch item.Kind {
		case mergeBoth:
			outcome, err := probeGlob(root, pathpkg.Join(dir, item.Name), item.Left, logger)
			if err != nil {
				return probeOutcome[GlobState]{}, err
			}
			if outcome.changed {
				return changedOutcome[GlobState](), nil
			}
			reconciled = append(reconciled, globChild{Name: item.Name, State: outcome.state})
			dirty = dirty || outcome.dirty
		case mergeOnlyRight:
			// A directory appeared that wasn't cached before.
			freshState, err := buildGlobState(root, pathpkg.Join(dir, item.Name), s.Rest)
			if err != nil {
				return probeOutcome[GlobState]{}, err
			}
			if freshState.hasMatchingFiles() {
				logger.Tracef("new matching directory %s appeared under %s", item.Name, dir)
				return changedOutcome[GlobState](), nil
			}
			logger.Tracef("empty directory %s appeared under %s, refreshing cache", item.Name, dir)
			reconciled = append(reconciled, globChild{Name: item.Name, State: freshState})
			dirty = true
		case mergeOnlyLeft:
			if item.Left.hasMatchingFiles() {
				logger.Tracef("previously matching directory %s disappeared from %s", item.Name, dir)
				return changedOutcome[GlobState](), nil
			}
			// Redundant but harmless: the directory is gone but it never
			// matched anything, so there's nothing to invalidate.
			reconciled = append(reconciled, globChild{Name: item.Name, State: item.Left})
		}
	}

	return unchangedOutcome[GlobState](newGlobDirs(s.Segment, s.Rest, liveMTime, reconciled), dirty), nil
}

// probeGlobFiles reconciles a cached GlobFiles node against the live
// filesystem.
func probeGlobFiles(root, dir string, s *GlobFiles, logger *logging.Logger) (probeOutcome[GlobState], error) {
	liveMTime, existed, err := handleMissing(func() (ModTime, error) { return statMTime(osPath(root, dir)) })
	if err != nil {
		return probeOutcome[GlobState]{}, err
	}
	if !existed {
		logger.Tracef("glob directory %s no longer exists", dir)
		return changedOutcome[GlobState](), nil
	}

	newDirMTime := s.DirMTime
	if !liveMTime.Equal(s.DirMTime) {
		logger.Tracef("glob directory %s modification time changed, reconciling", dir)

		names, listed, err := handleMissing(func() ([]string, error) { return listDir(osPath(root, dir)) })
		if err != nil {
			return probeOutcome[GlobState]{}, err
		}
		if !listed {
			return changedOutcome[GlobState](), nil
		}

		var liveNames []string
		for _, name := range names {
			if !matchSegment(s.Segment, name) {
				continue
			}
			isFile, err := existsFile(osPath(root, pathpkg.Join(dir, name)))
			if err != nil {
				return probeOutcome[GlobState]{}, err
			}
			if isFile {
				liveNames = append(liveNames, name)
			}
		}

		cachedNames := make([]string, len(s.Entries))
		for i, e := range s.Entries {
			cachedNames[i] = e.Name
		}

		items := sortedMerge[struct{}, struct{}](
			cachedNames, func(string) struct{} { return struct{}{} },
			liveNames, func(string) struct{} { return struct{}{} },
		)
		for _, item := range items {
			if item.Kind != mergeBoth {
				logger.Tracef("matching file set changed under %s", dir)
				return changedOutcome[GlobState](), nil
			}
		}

		newDirMTime = liveMTime
	}

	for _, entry := range s.Entries {
		path := pathpkg.Join(dir, entry.Name)
		outcome, err := probeSingle(root, path, HashedFileState{ModTime: entry.ModTime, Hash: entry.Hash}, logger)
		if err != nil {
			return probeOutcome[GlobState]{}, err
		}
		if outcome.changed {
			logger.Tracef("matched file %s changed", path)
			return changedOutcome[GlobState](), nil
		}
	}

	// A directory-mtime-only advance never marks the cache dirty by itself;
	// the refreshed mtime is still returned so that, if something else in
	// this probe marked the cache dirty, it rides along in the rewritten
	// cache instead of being silently discarded.
	return unchangedOutcome[GlobState](&GlobFiles{
		Segment:  s.Segment,
		DirMTime: newDirMTime,
		Entries:  s.Entries,
	}, false), nil
}
