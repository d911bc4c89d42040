package monitor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestCodec() JSONCodec[string, string] {
	return JSONCodec[string, string]{}
}

func TestUpdateThenCheckUnchangedForStableFile(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "config.txt"), "v1")
	cachePath := filepath.Join(root, ".cache")
	codec := newTestCodec()

	deps := []Dependency{FileDependency{Path: "config.txt"}}
	require.NoError(t, UpdateMonitor(root, cachePath, "key", "value-v1", deps, codec, nil))

	result, err := CheckMonitor(root, cachePath, "key", codec, nil)
	require.NoError(t, err)
	require.False(t, result.Changed)
	require.Equal(t, "value-v1", result.Value)
}

func TestCheckMonitorDetectsContentChange(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "data.txt")
	mustWriteFile(t, path, "original")
	cachePath := filepath.Join(root, ".cache")
	codec := newTestCodec()

	deps := []Dependency{HashedFileDependency{Path: "data.txt"}}
	require.NoError(t, UpdateMonitor(root, cachePath, "key", "result", deps, codec, nil))

	// Force the modification time forward so that a hash comparison is
	// actually exercised, then change the content.
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))
	mustWriteFile(t, path, "changed")
	require.NoError(t, os.Chtimes(path, future, future))

	result, err := CheckMonitor(root, cachePath, "key", codec, nil)
	require.NoError(t, err)
	require.True(t, result.Changed)
}

func TestCheckMonitorIgnoresMTimeDriftWhenHashMatches(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "data.txt")
	mustWriteFile(t, path, "stable-content")
	cachePath := filepath.Join(root, ".cache")
	codec := newTestCodec()

	deps := []Dependency{HashedFileDependency{Path: "data.txt"}}
	require.NoError(t, UpdateMonitor(root, cachePath, "key", "result", deps, codec, nil))

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	result, err := CheckMonitor(root, cachePath, "key", codec, nil)
	require.NoError(t, err)
	require.False(t, result.Changed)
}

func TestCheckMonitorDetectsExpectedAbsentPathAppearing(t *testing.T) {
	root := t.TempDir()
	cachePath := filepath.Join(root, ".cache")
	codec := newTestCodec()

	deps := []Dependency{AbsentDependency{Path: "not-yet-created.txt"}}
	require.NoError(t, UpdateMonitor(root, cachePath, "key", "result", deps, codec, nil))

	result, err := CheckMonitor(root, cachePath, "key", codec, nil)
	require.NoError(t, err)
	require.False(t, result.Changed)

	mustWriteFile(t, filepath.Join(root, "not-yet-created.txt"), "surprise")

	result, err = CheckMonitor(root, cachePath, "key", codec, nil)
	require.NoError(t, err)
	require.True(t, result.Changed)
}

func TestCheckMonitorGlobAppearingEmptyDirectoryStaysUnchanged(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	mustWriteFile(t, filepath.Join(root, "src", "a.go"), "package src")
	cachePath := filepath.Join(root, ".cache")
	codec := newTestCodec()

	glob := GlobDir{Segment: "*", Rest: GlobFile{Segment: "*.go"}}
	deps := []Dependency{GlobDependency{Path: glob}}
	require.NoError(t, UpdateMonitor(root, cachePath, "key", "result", deps, codec, nil))

	// A new, empty subdirectory appears under the glob's root. It contains
	// no matching files, so it must not be reported as a change, even
	// though the parent directory's listing did change.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty-subdir"), 0o755))

	result, err := CheckMonitor(root, cachePath, "key", codec, nil)
	require.NoError(t, err)
	require.False(t, result.Changed)

	// A second check, after the cache opportunistically rewrote itself, must
	// also report Unchanged (the refreshed cache must remain self-consistent).
	result, err = CheckMonitor(root, cachePath, "key", codec, nil)
	require.NoError(t, err)
	require.False(t, result.Changed)
}

func TestCheckMonitorGlobSubtreeDeletionIsChanged(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkgs", "a"), 0o755))
	mustWriteFile(t, filepath.Join(root, "pkgs", "a", "file.go"), "package a")
	cachePath := filepath.Join(root, ".cache")
	codec := newTestCodec()

	glob := GlobDir{Segment: "*", Rest: GlobDir{Segment: "*", Rest: GlobFile{Segment: "*.go"}}}
	deps := []Dependency{GlobDependency{Path: glob}}
	require.NoError(t, UpdateMonitor(root, cachePath, "key", "result", deps, codec, nil))

	require.NoError(t, os.RemoveAll(filepath.Join(root, "pkgs", "a")))

	result, err := CheckMonitor(root, cachePath, "key", codec, nil)
	require.NoError(t, err)
	require.True(t, result.Changed)
}

func TestCheckMonitorReportsChangedWhenCacheMissing(t *testing.T) {
	root := t.TempDir()
	codec := newTestCodec()

	result, err := CheckMonitor(root, filepath.Join(root, "never-written"), "key", codec, nil)
	require.NoError(t, err)
	require.True(t, result.Changed)
}

func TestCheckMonitorReportsChangedOnKeyMismatch(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "file.txt"), "content")
	cachePath := filepath.Join(root, ".cache")
	codec := newTestCodec()

	deps := []Dependency{FileDependency{Path: "file.txt"}}
	require.NoError(t, UpdateMonitor(root, cachePath, "key-a", "result", deps, codec, nil))

	result, err := CheckMonitor(root, cachePath, "key-b", codec, nil)
	require.NoError(t, err)
	require.True(t, result.Changed)
}

func TestMatchFileGlob(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "b"), 0o755))
	mustWriteFile(t, filepath.Join(root, "a", "one.go"), "")
	mustWriteFile(t, filepath.Join(root, "b", "two.go"), "")
	mustWriteFile(t, filepath.Join(root, "a", "ignore.txt"), "")

	glob := GlobDir{Segment: "*", Rest: GlobFile{Segment: "*.go"}}
	matches, err := MatchFileGlob(root, glob)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{
		filepath.Join("a", "one.go"),
		filepath.Join("b", "two.go"),
	}, matches)
}
