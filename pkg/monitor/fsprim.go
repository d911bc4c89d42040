package monitor

import (
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

// osPath resolves a root-relative path to an OS path.
func osPath(root, relative string) string {
	if relative == "" || relative == "." {
		return root
	}
	return filepath.Join(root, filepath.FromSlash(relative))
}

// handleMissing runs action; if it fails because the target does not exist,
// it returns the zero value of T with existed=false and a nil error. Any
// other error propagates: only "does not exist" conditions are recovered
// here.
func handleMissing[T any](action func() (T, error)) (T, bool, error) {
	value, err := action()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			var zero T
			return zero, false, nil
		}
		return value, false, err
	}
	return value, true, nil
}

// statMTime returns the modification time of path, or os.ErrNotExist if it
// does not exist.
func statMTime(path string) (ModTime, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ModTime{}, os.ErrNotExist
		}
		return ModTime{}, errors.Wrap(err, "unable to stat path")
	}
	return newModTime(info.ModTime()), nil
}

// existsAny reports whether path exists, regardless of type.
func existsAny(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "unable to stat path")
	}
	return true, nil
}

// existsFile reports whether path exists and is a regular file.
func existsFile(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "unable to stat path")
	}
	return info.Mode().IsRegular(), nil
}

// existsDir reports whether path exists and is a directory.
func existsDir(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "unable to stat path")
	}
	return info.IsDir(), nil
}

// listDir lists directory entry names (no "." or ".."), sorted ascending.
func listDir(path string) ([]string, error) {
	directory, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, errors.Wrap(err, "unable to open directory")
	}
	defer directory.Close()

	names, err := directory.Readdirnames(0)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read directory names")
	}

	sort.Strings(names)
	return names, nil
}

// hashFile computes a deterministic, non-cryptographic content hash of a
// file's full byte stream, streaming the contents rather than buffering the
// whole file in memory.
func hashFile(path string) (uint64, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, os.ErrNotExist
		}
		return 0, errors.Wrap(err, "unable to open file")
	}
	defer file.Close()

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return 0, errors.Wrap(err, "unable to read file contents")
	}
	return hasher.Sum64(), nil
}

// readFileFull reads the entire contents of path, preserving os.ErrNotExist
// for a missing file so callers can route it through handleMissing-style
// logic.
func readFileFull(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, errors.Wrap(err, "unable to read file")
	}
	return data, nil
}

// writeFileAtomic writes data to path using an intermediate temporary file
// swapped into place with a rename, so that readers never observe a
// partially-written cache file.
func writeFileAtomic(path string, data []byte, permissions os.FileMode) error {
	temporary, err := os.CreateTemp(filepath.Dir(path), ".monitorcache-atomic-*")
	if err != nil {
		return errors.Wrap(err, "unable to create temporary file")
	}

	if _, err = temporary.Write(data); err != nil {
		temporary.Close()
		os.Remove(temporary.Name())
		return errors.Wrap(err, "unable to write data to temporary file")
	}

	if err = temporary.Close(); err != nil {
		os.Remove(temporary.Name())
		return errors.Wrap(err, "unable to close temporary file")
	}

	if err = os.Chmod(temporary.Name(), permissions); err != nil {
		os.Remove(temporary.Name())
		return errors.Wrap(err, "unable to change file permissions")
	}

	if err = os.Rename(temporary.Name(), path); err != nil {
		os.Remove(temporary.Name())
		return errors.Wrap(err, "unable to rename file")
	}

	return nil
}
