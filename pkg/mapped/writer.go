package mapped

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// Writer appends sections in the layout the readers of this package expect.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 4096)}
}

// Bytes returns everything written so far.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Raw appends b unchanged.
func (w *Writer) Raw(b []byte) {
	w.buf = append(w.buf, b...)
}

// Uint32 appends a little-endian uint32.
func (w *Writer) Uint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// Uint64 appends a little-endian uint64.
func (w *Writer) Uint64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// CompressedArray appends values packed at their minimal bit width.
func (w *Writer) CompressedArray(values []uint64) {
	w.CompressedArrayWidth(values, BitWidth(values...))
}

// CompressedArrayWidth appends values packed at the given bit width.
func (w *Writer) CompressedArrayWidth(values []uint64, width int) {
	w.Uint32(uint32(len(values)))
	w.Uint32(uint32(width))
	for _, word := range PackBits(values, width) {
		w.Uint64(word)
	}
}

// StringTable appends strs in the given order.
func (w *Writer) StringTable(strs []string) error {
	blob := 0
	for _, s := range strs {
		blob += len(s)
	}
	if blob > math.MaxUint32 || len(strs) >= math.MaxUint32 {
		return fmt.Errorf("string table too large: %d strings, %d bytes", len(strs), blob)
	}
	w.Uint32(uint32(len(strs)))
	w.Uint32(uint32(blob))
	off := 0
	for _, s := range strs {
		w.Uint32(uint32(off))
		off += len(s)
	}
	w.Uint32(uint32(off))
	for _, s := range strs {
		w.buf = append(w.buf, s...)
	}
	return nil
}

// SortedStringTable sorts and deduplicates strs, appends them, and returns the
// resulting order.
func (w *Writer) SortedStringTable(strs []string) ([]string, error) {
	sorted := SortedUnique(strs)
	return sorted, w.StringTable(sorted)
}

type trieNode struct {
	labels   []byte
	children []*trieNode
	terminal bool
	value    uint64
}

// Trie appends a trie built from keys and their values. Keys must be sorted
// and unique.
func (w *Writer) Trie(keys []string, values []uint64) error {
	if len(keys) != len(values) {
		return fmt.Errorf("trie: %d keys but %d values", len(keys), len(values))
	}
	root := &trieNode{}
	for i, key := range keys {
		if i > 0 && keys[i-1] >= key {
			return fmt.Errorf("trie: keys not sorted and unique at %q", key)
		}
		n := root
		for j := 0; j < len(key); j++ {
			c := key[j]
			last := len(n.labels) - 1
			if last >= 0 && n.labels[last] == c {
				n = n.children[last]
				continue
			}
			child := &trieNode{}
			n.labels = append(n.labels, c)
			n.children = append(n.children, child)
			n = child
		}
		n.terminal = true
		n.value = values[i]
	}

	var (
		first    []uint64
		labels   []byte
		terminal []uint64
		vals     []uint64
	)
	queue := []*trieNode{root}
	for i := 0; i < len(queue); i++ {
		n := queue[i]
		first = append(first, uint64(len(labels)))
		labels = append(labels, n.labels...)
		queue = append(queue, n.children...)
		if n.terminal {
			terminal = append(terminal, 1)
			vals = append(vals, n.value)
		} else {
			terminal = append(terminal, 0)
			vals = append(vals, 0)
		}
	}
	first = append(first, uint64(len(labels)))

	w.Uint32(uint32(len(queue)))
	w.Uint32(uint32(len(labels)))
	w.Uint32(uint32(len(keys)))
	w.CompressedArray(first)
	w.Raw(labels)
	w.CompressedArrayWidth(terminal, 1)
	w.CompressedArray(vals)
	return nil
}

// SortedUnique returns a sorted copy of strs without duplicates.
func SortedUnique(strs []string) []string {
	out := append([]string(nil), strs...)
	sort.Strings(out)
	j := 0
	for i, s := range out {
		if i == 0 || s != out[j-1] {
			out[j] = s
			j++
		}
	}
	return out[:j]
}
