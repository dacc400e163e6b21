package mapped

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// StringTable is an indexed list of strings stored as offsets into one blob.
// Tables written sorted support Find.
type StringTable struct {
	offsets []byte
	blob    []byte
	count   int
}

// ReadStringTable opens the string table at the reader's position and checks
// that its offsets are monotonic and inside the blob.
func ReadStringTable(r *Reader) (StringTable, error) {
	var count, blobLen uint32
	if err := r.Uint32s(&count, &blobLen); err != nil {
		return StringTable{}, err
	}
	if uint64(count)+1 > uint64(r.Remaining())/4 {
		return StringTable{}, fmt.Errorf("%w: string table of %d entries", ErrOutOfRange, count)
	}
	offsets, err := r.Bytes((int(count) + 1) * 4)
	if err != nil {
		return StringTable{}, err
	}
	blob, err := r.Bytes(int(blobLen))
	if err != nil {
		return StringTable{}, err
	}
	t := StringTable{offsets: offsets, blob: blob, count: int(count)}
	prev := uint32(0)
	for i := 0; i <= t.count; i++ {
		off := t.offset(i)
		if off < prev || off > blobLen {
			return StringTable{}, fmt.Errorf("%w: string table offset %d at entry %d", ErrCorrupt, off, i)
		}
		prev = off
	}
	if prev != blobLen {
		return StringTable{}, fmt.Errorf("%w: string table ends at %d, blob is %d", ErrCorrupt, prev, blobLen)
	}
	return t, nil
}

func (t StringTable) offset(i int) uint32 {
	return binary.LittleEndian.Uint32(t.offsets[i*4:])
}

func (t StringTable) bytesAt(i int) []byte {
	return t.blob[t.offset(i):t.offset(i+1)]
}

// Len returns the number of strings.
func (t StringTable) Len() int {
	return t.count
}

// Get returns the i-th string, or "" when i is outside the table.
func (t StringTable) Get(i int) string {
	if i < 0 || i >= t.count {
		return ""
	}
	return string(t.bytesAt(i))
}

// Find returns the index of s in a sorted table.
func (t StringTable) Find(s string) (int, bool) {
	i := sort.Search(t.count, func(i int) bool {
		return string(t.bytesAt(i)) >= s
	})
	if i < t.count && string(t.bytesAt(i)) == s {
		return i, true
	}
	return -1, false
}
