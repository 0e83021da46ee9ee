package util

import (
	"encoding/binary"
	"io"

	"github.com/batchatco/go-thrower"
)

// The flat binary products read here are little-endian, matching the
// processor chains that produce them on little-endian hosts.

// MustRead wraps binary.Read and throws an error if it fails.
func MustRead(r io.Reader, order binary.ByteOrder, data any) {
	err := binary.Read(r, order, data)
	thrower.ThrowIfError(err)
}

// MustReadLE wraps binary.Read with LittleEndian and throws an error if it fails.
func MustReadLE(r io.Reader, data any) {
	MustRead(r, binary.LittleEndian, data)
}

// MustWrite wraps binary.Write and throws an error if it fails.
func MustWrite(w io.Writer, order binary.ByteOrder, data any) {
	err := binary.Write(w, order, data)
	thrower.ThrowIfError(err)
}

// MustWriteLE wraps binary.Write with LittleEndian and throws an error if it fails.
func MustWriteLE(w io.Writer, data any) {
	MustWrite(w, binary.LittleEndian, data)
}

// MustSeek wraps Seek from the start of the file and throws an error if it fails.
func MustSeek(s io.Seeker, offset int64) {
	_, err := s.Seek(offset, io.SeekStart)
	thrower.ThrowIfError(err)
}
