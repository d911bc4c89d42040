package monitor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeStateRoundTrip(t *testing.T) {
	state := &MonitorStateFileSet{
		SinglePaths: map[string]SinglePathState{
			"a.txt": FileState{ModTime: ModTime{Seconds: 10, Nanoseconds: 20}},
			"b.txt": HashedFileState{ModTime: ModTime{Seconds: 30}, Hash: 0xdeadbeef},
			"c.txt": AbsentState{},
			"d.txt": StickyChangedState{},
			"e.txt": StickyHashChangedState{},
		},
		Globs: []GlobState{
			newGlobFiles("*.go", ModTime{Seconds: 1}, []globFileEntry{
				{Name: "x.go", ModTime: ModTime{Seconds: 2}, Hash: 7},
			}),
			newGlobDirs("*", GlobFile{Segment: "*.go"}, ModTime{Seconds: 3}, []globChild{
				{Name: "sub", State: newGlobFiles("*.go", ModTime{Seconds: 4}, nil)},
			}),
		},
	}

	var buf bytes.Buffer
	w := newByteWriter(&buf)
	encodeState(w, state)
	require.NoError(t, w.flush())

	r := newByteReader(&buf)
	decoded, err := decodeState(r)
	require.NoError(t, err)

	require.Len(t, decoded.SinglePaths, len(state.SinglePaths))
	require.Equal(t, state.SinglePaths["a.txt"], decoded.SinglePaths["a.txt"])
	require.Equal(t, state.SinglePaths["b.txt"], decoded.SinglePaths["b.txt"])
	require.Equal(t, state.SinglePaths["c.txt"], decoded.SinglePaths["c.txt"])
	require.Equal(t, state.SinglePaths["d.txt"], decoded.SinglePaths["d.txt"])
	require.Equal(t, state.SinglePaths["e.txt"], decoded.SinglePaths["e.txt"])

	require.Len(t, decoded.Globs, 2)
	decodedFiles, ok := decoded.Globs[0].(*GlobFiles)
	require.True(t, ok)
	require.Equal(t, "*.go", decodedFiles.Segment)
	require.Len(t, decodedFiles.Entries, 1)
	require.Equal(t, "x.go", decodedFiles.Entries[0].Name)

	decodedDirs, ok := decoded.Globs[1].(*GlobDirs)
	require.True(t, ok)
	require.Len(t, decodedDirs.Children, 1)
	require.Equal(t, "sub", decodedDirs.Children[0].Name)
}

func TestDecodeStateRejectsUnknownVersion(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(255)

	r := newByteReader(&buf)
	_, err := decodeState(r)
	require.ErrorIs(t, err, ErrCacheCorrupt)
}

func TestReadCacheFileMissingReportsErrCacheNotExist(t *testing.T) {
	_, _, _, err := readCacheFile("/nonexistent/path/does-not-exist")
	require.ErrorIs(t, err, ErrCacheNotExist)
}

func TestWriteThenReadCacheFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/cache"

	state := &MonitorStateFileSet{
		SinglePaths: map[string]SinglePathState{
			"f.txt": FileState{ModTime: ModTime{Seconds: 5}},
		},
	}

	require.NoError(t, writeCacheFile(path, state, []byte("key"), []byte("result")))

	decodedState, keyBytes, resultBytes, err := readCacheFile(path)
	require.NoError(t, err)
	require.Equal(t, []byte("key"), keyBytes)
	require.Equal(t, []byte("result"), resultBytes)
	require.Equal(t, state.SinglePaths["f.txt"], decodedState.SinglePaths["f.txt"])
}
