package monitor

import (
	"github.com/pkg/errors"

	"github.com/monitorcache/monitorcache/pkg/logging"
)

// probeOutcome is the result of a single probe step: either an early-exit
// Changed, or a successfully completed Unchanged carrying a refreshed state
// and whether that refresh should be considered cache-dirty (requiring a
// rewrite). An explicit return type threaded through the recursion, rather
// than a monadic early-exit/dirty-flag plumbing stack: no hidden control
// flow, just an enumerated outcome at every call site.
type probeOutcome[T any] struct {
	changed bool
	state   T
	dirty   bool
}

// changedOutcome constructs an early-exit Changed outcome.
func changedOutcome[T any]() probeOutcome[T] {
	return probeOutcome[T]{changed: true}
}

// unchangedOutcome constructs a completed Unchanged outcome.
func unchangedOutcome[T any](state T, dirty bool) probeOutcome[T] {
	return probeOutcome[T]{state: state, dirty: dirty}
}

// probeSingle checks a single file's cached state against the live
// filesystem, returning a (possibly identical) new SinglePathState or an
// early-exit Changed.
//
// A HashedFile whose modification time has drifted but whose hash still
// matches is reported Unchanged without refreshing the stored modification
// time and without marking the cache dirty: single-path cache entries are
// never rewritten, even when their modification time has drifted without a
// content change (see DESIGN.md).
func probeSingle(root, path string, state SinglePathState, logger *logging.Logger) (probeOutcome[SinglePathState], error) {
	switch s := state.(type) {
	case FileState:
		mtime, existed, err := handleMissing(func() (ModTime, error) { return statMTime(osPath(root, path)) })
		if err != nil {
			return probeOutcome[SinglePathState]{}, err
		}
		if !existed {
			logger.Tracef("file %s no longer exists", path)
			return changedOutcome[SinglePathState](), nil
		}
		if !mtime.Equal(s.ModTime) {
			logger.Tracef("file %s modification time changed", path)
			return changedOutcome[SinglePathState](), nil
		}
		return unchangedOutcome[SinglePathState](s, false), nil
	case HashedFileState:
		mtime, existed, err := handleMissing(func() (ModTime, error) { return statMTime(osPath(root, path)) })
		if err != nil {
			return probeOutcome[SinglePathState]{}, err
		}
		if !existed {
			logger.Tracef("hashed file %s no longer exists", path)
			return changedOutcome[SinglePathState](), nil
		}
		if mtime.Equal(s.ModTime) {
			return unchangedOutcome[SinglePathState](s, false), nil
		}
		hash, hashExisted, err := handleMissing(func() (uint64, error) { return hashFile(osPath(root, path)) })
		if err != nil {
			return probeOutcome[SinglePathState]{}, err
		}
		if !hashExisted {
			logger.Tracef("hashed file %s disappeared mid-probe", path)
			return changedOutcome[SinglePathState](), nil
		}
		if hash != s.Hash {
			logger.Tracef("hashed file %s content changed", path)
			return changedOutcome[SinglePathState](), nil
		}
		return unchangedOutcome[SinglePathState](s, false), nil
	case AbsentState:
		exists, err := existsAny(osPath(root, path))
		if err != nil {
			return probeOutcome[SinglePathState]{}, err
		}
		if exists {
			logger.Tracef("path %s expected absent now exists", path)
			return changedOutcome[SinglePathState](), nil
		}
		return unchangedOutcome[SinglePathState](s, false), nil
	case StickyChangedState:
		logger.Tracef("path %s has a sticky-changed marker from a previous update", path)
		return changedOutcome[SinglePathState](), nil
	case StickyHashChangedState:
		logger.Tracef("path %s has a sticky-hash-changed marker from a previous update", path)
		return changedOutcome[SinglePathState](), nil
	default:
		return probeOutcome[SinglePathState]{}, errors.Errorf("unrecognized single path state %T", state)
	}
}
