/*
Package mapped provides read-only, bounds-checked views over memory-mapped
dictionary files.

A mapped file is a flat sequence of sections. Every section is decoded in
place: no value is copied out of the mapping until a caller materializes a
string. Three section kinds cover all the stores built on top of this package:

	CompressedArray  u32 count | u32 width | ceil(count*width/64) x u64
	StringTable      u32 count | u32 blob length | (count+1) x u32 offsets | blob
	Trie             u32 nodes | u32 edges | u32 keys | first-edge array |
	                 labels | terminal bits | values

All integers are little-endian. Readers validate every length and offset
against the mapped region when a section is opened, so accessors on an opened
section never read outside the region.
*/
package mapped

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange is returned when a section points outside the mapped region.
	ErrOutOfRange = errors.New("mapped: offset out of range")
	// ErrCorrupt is returned when a section is internally inconsistent.
	ErrCorrupt = errors.New("mapped: corrupt section")
)

// Reader walks a mapped region front to back.
type Reader struct {
	data []byte
	pos  int
}

// NewReader returns a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Offset returns the current position within the region.
func (r *Reader) Offset() int {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Bytes returns the next n bytes without copying them.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrOutOfRange, n, r.pos, r.Remaining())
	}
	b := r.data[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return b, nil
}

// Uint32 reads a little-endian uint32.
func (r *Reader) Uint32() (uint32, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Uint64 reads a little-endian uint64.
func (r *Reader) Uint64() (uint64, error) {
	b, err := r.Bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Uint32s reads n consecutive uint32 values into fields.
func (r *Reader) Uint32s(fields ...*uint32) error {
	for _, f := range fields {
		v, err := r.Uint32()
		if err != nil {
			return err
		}
		*f = v
	}
	return nil
}

// wordsFor returns the number of 64-bit words holding count values of width bits.
func wordsFor(count, width uint64) uint64 {
	return (count*width + 63) / 64
}
