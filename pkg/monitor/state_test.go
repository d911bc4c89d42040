package monitor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewGlobDirsSortsAndDedups(t *testing.T) {
	children := []globChild{
		{Name: "zebra", State: newGlobFiles("*.go", ModTime{}, nil)},
		{Name: "alpha", State: newGlobFiles("*.go", ModTime{}, nil)},
		{Name: "alpha", State: newGlobFiles("*.go", ModTime{Seconds: 1}, nil)},
		{Name: "mid", State: newGlobFiles("*.go", ModTime{}, nil)},
	}

	dirs := newGlobDirs("*", GlobFile{Segment: "*.go"}, ModTime{}, children)

	require.Len(t, dirs.Children, 3)
	require.Equal(t, "alpha", dirs.Children[0].Name)
	require.Equal(t, "mid", dirs.Children[1].Name)
	require.Equal(t, "zebra", dirs.Children[2].Name)
}

func TestNewGlobFilesSortsAndDedups(t *testing.T) {
	entries := []globFileEntry{
		{Name: "c.go", ModTime: ModTime{Seconds: 1}, Hash: 1},
		{Name: "a.go", ModTime: ModTime{Seconds: 2}, Hash: 2},
		{Name: "a.go", ModTime: ModTime{Seconds: 3}, Hash: 3},
		{Name: "b.go", ModTime: ModTime{Seconds: 4}, Hash: 4},
	}

	files := newGlobFiles("*.go", ModTime{}, entries)

	require.Len(t, files.Entries, 3)
	require.Equal(t, "a.go", files.Entries[0].Name)
	require.Equal(t, "b.go", files.Entries[1].Name)
	require.Equal(t, "c.go", files.Entries[2].Name)
}

func TestGlobFilesHasMatchingFiles(t *testing.T) {
	empty := newGlobFiles("*.go", ModTime{}, nil)
	require.False(t, empty.hasMatchingFiles())

	nonEmpty := newGlobFiles("*.go", ModTime{}, []globFileEntry{{Name: "a.go"}})
	require.True(t, nonEmpty.hasMatchingFiles())
}

func TestGlobDirsHasMatchingFilesRecursesThroughChildren(t *testing.T) {
	leafEmpty := newGlobFiles("*.go", ModTime{}, nil)
	leafNonEmpty := newGlobFiles("*.go", ModTime{}, []globFileEntry{{Name: "a.go"}})

	withEmptyOnly := newGlobDirs("*", GlobFile{Segment: "*.go"}, ModTime{}, []globChild{
		{Name: "sub", State: leafEmpty},
	})
	require.False(t, withEmptyOnly.hasMatchingFiles())

	withNonEmptyNested := newGlobDirs("*", GlobFile{Segment: "*.go"}, ModTime{}, []globChild{
		{Name: "sub1", State: leafEmpty},
		{Name: "sub2", State: leafNonEmpty},
	})
	require.True(t, withNonEmptyNested.hasMatchingFiles())
}

func TestModTimeEqual(t *testing.T) {
	a := ModTime{Seconds: 100, Nanoseconds: 5}
	b := ModTime{Seconds: 100, Nanoseconds: 5}
	c := ModTime{Seconds: 100, Nanoseconds: 6}

	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
}
