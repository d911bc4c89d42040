package monitor

import (
	pathpkg "path"

	"github.com/pkg/errors"
)

// buildState constructs a fresh MonitorStateFileSet for the given
// dependencies by walking root, visiting dependencies in input order.
func buildState(root string, deps []Dependency) (*MonitorStateFileSet, error) {
	state := &MonitorStateFileSet{
		SinglePaths: make(map[string]SinglePathState, len(deps)),
	}

	for _, dep := range deps {
		switch d := dep.(type) {
		case FileDependency:
			mtime, existed, err := handleMissing(func() (ModTime, error) { return statMTime(osPath(root, d.Path)) })
			if err != nil {
				return nil, err
			}
			if !existed {
				state.SinglePaths[d.Path] = StickyChangedState{}
				continue
			}
			state.SinglePaths[d.Path] = FileState{ModTime: mtime}
		case HashedFileDependency:
			mtime, existed, err := handleMissing(func() (ModTime, error) { return statMTime(osPath(root, d.Path)) })
			if err != nil {
				return nil, err
			}
			if !existed {
				state.SinglePaths[d.Path] = StickyHashChangedState{}
				continue
			}
			hash, hashExisted, err := handleMissing(func() (uint64, error) { return hashFile(osPath(root, d.Path)) })
			if err != nil {
				return nil, err
			}
			if !hashExisted {
				// The file vanished between the mtime read and the hash
				// read; treat identically to "missing at update time".
				state.SinglePaths[d.Path] = StickyHashChangedState{}
				continue
			}
			state.SinglePaths[d.Path] = HashedFileState{ModTime: mtime, Hash: hash}
		case AbsentDependency:
			state.SinglePaths[d.Path] = AbsentState{}
		case GlobDependency:
			globState, err := buildGlobState(root, ".", d.Path)
			if err != nil {
				return nil, err
			}
			state.Globs = append(state.Globs, globState)
		default:
			return nil, errors.Errorf("unrecognized dependency type %T", dep)
		}
	}

	return state, nil
}

// buildGlobState recursively constructs a GlobState tree by walking dir
// (relative to root) for entries matching gp's head segment. If dir does not
// exist, it is treated as an empty matched set with a sentinel modification
// time (see DESIGN.md): this lets a later probe detect the directory's
// appearance via its parent's modification time changing.
func buildGlobState(root, dir string, gp GlobPath) (GlobState, error) {
	dirMTime, existed, err := handleMissing(func() (ModTime, error) { return statMTime(osPath(root, dir)) })
	if err != nil {
		return nil, err
	}
	if !existed {
		dirMTime = ModTime{}
	}

	names, listed, err := handleMissing(func() ([]string, error) { return listDir(osPath(root, dir)) })
	if err != nil {
		return nil, err
	}
	if !listed {
		names = nil
	}

	segment := gp.HeadSegment()
	var matched []string
	for _, name := range names {
		if matchSegment(segment, name) {
			matched = append(matched, name)
		}
	}

	switch g := gp.(type) {
	case GlobDir:
		var children []globChild
		for _, name := range matched {
			childPath := pathpkg.Join(dir, name)
			isDir, err := existsDir(osPath(root, childPath))
			if err != nil {
				return nil, err
			}
			if !isDir {
				continue
			}
			childState, err := buildGlobState(root, childPath, g.Rest)
			if err != nil {
				return nil, err
			}
			children = append(children, globChild{Name: name, State: childState})
		}
		return newGlobDirs(segment, g.Rest, dirMTime, children), nil
	case GlobFile:
		var entries []globFileEntry
		for _, name := range matched {
			childPath := pathpkg.Join(dir, name)
			isFile, err := existsFile(osPath(root, childPath))
			if err != nil {
				return nil, err
			}
			if !isFile {
				continue
			}
			mtime, mtimeExisted, err := handleMissing(func() (ModTime, error) { return statMTime(osPath(root, childPath)) })
			if err != nil {
				return nil, err
			}
			if !mtimeExisted {
				continue
			}
			hash, hashExisted, err := handleMissing(func() (uint64, error) { return hashFile(osPath(root, childPath)) })
			if err != nil {
				return nil, err
			}
			if !hashExisted {
				continue
			}
			entries = append(entries, globFileEntry{Name: name, ModTime: mtime, Hash: hash})
		}
		return newGlobFiles(segment, dirMTime, entries), nil
	default:
		return nil, errors.Errorf("unrecognized glob path type %T", gp)
	}
}
