package monitor

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
)

// stateVersion is the current cache file format version. Decoding any other
// version fails with ErrCacheCorrupt.
const stateVersion = 1

// ErrCacheCorrupt indicates that a cache file's contents could not be
// decoded: truncation, an unknown version, or a malformed tag. CheckMonitor
// folds this into Changed rather than surfacing it as an error.
var ErrCacheCorrupt = errors.New("monitor cache corrupt")

const (
	tagFile uint8 = iota + 1
	tagHashedFile
	tagAbsent
	tagStickyChanged
	tagStickyHashChanged
)

const (
	tagGlobDirs uint8 = iota + 1
	tagGlobFiles
)

const (
	tagGlobDir uint8 = iota + 1
	tagGlobFile
)

// byteWriter is a small streaming binary encoder: a buffered writer plus
// varint-length-prefixed fields. The wire schema is this engine's own
// (tag-byte sum types, sorted maps), not protobuf's (see DESIGN.md).
type byteWriter struct {
	w   *bufio.Writer
	err error
}

func newByteWriter(w io.Writer) *byteWriter {
	return &byteWriter{w: bufio.NewWriter(w)}
}

func (b *byteWriter) flush() error {
	if b.err != nil {
		return b.err
	}
	return b.w.Flush()
}

func (b *byteWriter) writeByte(v byte) {
	if b.err != nil {
		return
	}
	b.err = b.w.WriteByte(v)
}

func (b *byteWriter) writeUvarint(v uint64) {
	if b.err != nil {
		return
	}
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	_, b.err = b.w.Write(buf[:n])
}

func (b *byteWriter) writeVarint(v int64) {
	if b.err != nil {
		return
	}
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutVarint(buf[:], v)
	_, b.err = b.w.Write(buf[:n])
}

func (b *byteWriter) writeString(s string) {
	b.writeUvarint(uint64(len(s)))
	if b.err != nil {
		return
	}
	_, b.err = b.w.WriteString(s)
}

func (b *byteWriter) writeBytes(data []byte) {
	b.writeUvarint(uint64(len(data)))
	if b.err != nil {
		return
	}
	_, b.err = b.w.Write(data)
}

func (b *byteWriter) writeModTime(m ModTime) {
	b.writeVarint(m.Seconds)
	b.writeVarint(int64(m.Nanoseconds))
}

// byteReader is byteWriter's decoding counterpart. Any read failure is
// reported as ErrCacheCorrupt, a generic cache-invalid condition.
type byteReader struct {
	r *bufio.Reader
}

func newByteReader(r io.Reader) *byteReader {
	return &byteReader{r: bufio.NewReader(r)}
}

func (b *byteReader) readByte() (byte, error) {
	v, err := b.r.ReadByte()
	if err != nil {
		return 0, errors.Wrap(ErrCacheCorrupt, err.Error())
	}
	return v, nil
}

func (b *byteReader) readUvarint() (uint64, error) {
	v, err := binary.ReadUvarint(b.r)
	if err != nil {
		return 0, errors.Wrap(ErrCacheCorrupt, err.Error())
	}
	return v, nil
}

func (b *byteReader) readVarint() (int64, error) {
	v, err := binary.ReadVarint(b.r)
	if err != nil {
		return 0, errors.Wrap(ErrCacheCorrupt, err.Error())
	}
	return v, nil
}

func (b *byteReader) readString() (string, error) {
	length, err := b.readUvarint()
	if err != nil {
		return "", err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(b.r, buf); err != nil {
		return "", errors.Wrap(ErrCacheCorrupt, err.Error())
	}
	return string(buf), nil
}

func (b *byteReader) readBytes() ([]byte, error) {
	length, err := b.readUvarint()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(b.r, buf); err != nil {
		return nil, errors.Wrap(ErrCacheCorrupt, err.Error())
	}
	return buf, nil
}

func (b *byteReader) readModTime() (ModTime, error) {
	seconds, err := b.readVarint()
	if err != nil {
		return ModTime{}, err
	}
	nanos, err := b.readVarint()
	if err != nil {
		return ModTime{}, err
	}
	return ModTime{Seconds: seconds, Nanoseconds: int32(nanos)}, nil
}

func encodeSinglePathState(w *byteWriter, state SinglePathState) {
	switch s := state.(type) {
	case FileState:
		w.writeByte(tagFile)
		w.writeModTime(s.ModTime)
	case HashedFileState:
		w.writeByte(tagHashedFile)
		w.writeModTime(s.ModTime)
		w.writeUvarint(s.Hash)
	case AbsentState:
		w.writeByte(tagAbsent)
	case StickyChangedState:
		w.writeByte(tagStickyChanged)
	case StickyHashChangedState:
		w.writeByte(tagStickyHashChanged)
	}
}

func decodeSinglePathState(r *byteReader) (SinglePathState, error) {
	tag, err := r.readByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case tagFile:
		mtime, err := r.readModTime()
		if err != nil {
			return nil, err
		}
		return FileState{ModTime: mtime}, nil
	case tagHashedFile:
		mtime, err := r.readModTime()
		if err != nil {
			return nil, err
		}
		hash, err := r.readUvarint()
		if err != nil {
			return nil, err
		}
		return HashedFileState{ModTime: mtime, Hash: hash}, nil
	case tagAbsent:
		return AbsentState{}, nil
	case tagStickyChanged:
		return StickyChangedState{}, nil
	case tagStickyHashChanged:
		return StickyHashChangedState{}, nil
	default:
		return nil, errors.Wrapf(ErrCacheCorrupt, "unknown single path state tag %d", tag)
	}
}

func encodeGlobPath(w *byteWriter, gp GlobPath) {
	switch g := gp.(type) {
	case GlobDir:
		w.writeByte(tagGlobDir)
		w.writeString(g.Segment)
		encodeGlobPath(w, g.Rest)
	case GlobFile:
		w.writeByte(tagGlobFile)
		w.writeString(g.Segment)
	}
}

func decodeGlobPath(r *byteReader) (GlobPath, error) {
	tag, err := r.readByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case tagGlobDir:
		segment, err := r.readString()
		if err != nil {
			return nil, err
		}
		rest, err := decodeGlobPath(r)
		if err != nil {
			return nil, err
		}
		return GlobDir{Segment: segment, Rest: rest}, nil
	case tagGlobFile:
		segment, err := r.readString()
		if err != nil {
			return nil, err
		}
		return GlobFile{Segment: segment}, nil
	default:
		return nil, errors.Wrapf(ErrCacheCorrupt, "unknown glob path tag %d", tag)
	}
}

func encodeGlobState(w *byteWriter, state GlobState) {
	switch s := state.(type) {
	case *GlobDirs:
		w.writeByte(tagGlobDirs)
		w.writeString(s.Segment)
		encodeGlobPath(w, s.Rest)
		w.writeModTime(s.DirMTime)
		w.writeUvarint(uint64(len(s.Children)))
		for _, c := range s.Children {
			w.writeString(c.Name)
			encodeGlobState(w, c.State)
		}
	case *GlobFiles:
		w.writeByte(tagGlobFiles)
		w.writeString(s.Segment)
		w.writeModTime(s.DirMTime)
		w.writeUvarint(uint64(len(s.Entries)))
		for _, e := range s.Entries {
			w.writeString(e.Name)
			w.writeModTime(e.ModTime)
			w.writeUvarint(e.Hash)
		}
	}
}

func decodeGlobState(r *byteReader) (GlobState, error) {
	tag, err := r.readByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case tagGlobDirs:
		segment, err := r.readString()
		if err != nil {
			return nil, err
		}
		rest, err := decodeGlobPath(r)
		if err != nil {
			return nil, err
		}
		dirMTime, err := r.readModTime()
		if err != nil {
			return nil, err
		}
		count, err := r.readUvarint()
		if err != nil {
			return nil, err
		}
		children := make([]globChild, 0, count)
		for i := uint64(0); i < count; i++ {
			name, err := r.readString()
			if err != nil {
				return nil, err
			}
			childState, err := decodeGlobState(r)
			if err != nil {
				return nil, err
			}
			children = append(children, globChild{Name: name, State: childState})
		}
		return &GlobDirs{Segment: segment, Rest: rest, DirMTime: dirMTime, Children: children}, nil
	case tagGlobFiles:
		segment, err := r.readString()
		if err != nil {
			return nil, err
		}
		dirMTime, err := r.readModTime()
		if err != nil {
			return nil, err
		}
		count, err := r.readUvarint()
		if err != nil {
			return nil, err
		}
		entries := make([]globFileEntry, 0, count)
		for i := uint64(0); i < count; i++ {
			name, err := r.readString()
			if err != nil {
				return nil, err
			}
			mtime, err := r.readModTime()
			if err != nil {
				return nil, err
			}
			hash, err := r.readUvarint()
			if err != nil {
				return nil, err
			}
			entries = append(entries, globFileEntry{Name: name, ModTime: mtime, Hash: hash})
		}
		return &GlobFiles{Segment: segment, DirMTime: dirMTime, Entries: entries}, nil
	default:
		return nil, errors.Wrapf(ErrCacheCorrupt, "unknown glob state tag %d", tag)
	}
}

func encodeState(w *byteWriter, state *MonitorStateFileSet) {
	w.writeByte(stateVersion)

	keys := make([]string, 0, len(state.SinglePaths))
	for k := range state.SinglePaths {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w.writeUvarint(uint64(len(keys)))
	for _, k := range keys {
		w.writeString(k)
		encodeSinglePathState(w, state.SinglePaths[k])
	}

	w.writeUvarint(uint64(len(state.Globs)))
	for _, g := range state.Globs {
		encodeGlobState(w, g)
	}
}

func decodeState(r *byteReader) (*MonitorStateFileSet, error) {
	version, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if version != stateVersion {
		return nil, errors.Wrapf(ErrCacheCorrupt, "unsupported cache version %d", version)
	}

	singleCount, err := r.readUvarint()
	if err != nil {
		return nil, err
	}
	singlePaths := make(map[string]SinglePathState, singleCount)
	for i := uint64(0); i < singleCount; i++ {
		path, err := r.readString()
		if err != nil {
			return nil, err
		}
		state, err := decodeSinglePathState(r)
		if err != nil {
			return nil, err
		}
		singlePaths[path] = state
	}

	globCount, err := r.readUvarint()
	if err != nil {
		return nil, err
	}
	globs := make([]GlobState, 0, globCount)
	for i := uint64(0); i < globCount; i++ {
		g, err := decodeGlobState(r)
		if err != nil {
			return nil, err
		}
		globs = append(globs, g)
	}

	return &MonitorStateFileSet{SinglePaths: singlePaths, Globs: globs}, nil
}

// writeCacheFile encodes state, key bytes, and result bytes into the cache
// file format and writes it atomically to path.
func writeCacheFile(path string, state *MonitorStateFileSet, keyBytes, resultBytes []byte) error {
	var buf bytes.Buffer
	w := newByteWriter(&buf)
	encodeState(w, state)
	w.writeBytes(keyBytes)
	w.writeBytes(resultBytes)
	if err := w.flush(); err != nil {
		return errors.Wrap(err, "unable to encode cache contents")
	}
	return writeFileAtomic(path, buf.Bytes(), 0o600)
}

// readCacheFile reads and decodes the cache file format from path. Any
// decode failure is reported as ErrCacheCorrupt; a missing file is reported
// as ErrCacheNotExist.
func readCacheFile(path string) (*MonitorStateFileSet, []byte, []byte, error) {
	data, err := readFileFull(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, nil, ErrCacheNotExist
		}
		return nil, nil, nil, err
	}

	r := newByteReader(bytes.NewReader(data))
	state, err := decodeState(r)
	if err != nil {
		return nil, nil, nil, err
	}
	keyBytes, err := r.readBytes()
	if err != nil {
		return nil, nil, nil, err
	}
	resultBytes, err := r.readBytes()
	if err != nil {
		return nil, nil, nil, err
	}
	return state, keyBytes, resultBytes, nil
}
