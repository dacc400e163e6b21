package mapped

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

// maxArrayLen bounds a single array so count*width never overflows.
const maxArrayLen = 1 << 40

// CompressedArray is a fixed-width bit-packed array of unsigned integers.
// A value may straddle two 64-bit words.
type CompressedArray struct {
	words []byte
	count int
	width uint
	mask  uint64
}

// ReadCompressedArray opens the compressed array at the reader's position.
func ReadCompressedArray(r *Reader) (CompressedArray, error) {
	var count, width uint32
	if err := r.Uint32s(&count, &width); err != nil {
		return CompressedArray{}, err
	}
	if width == 0 || width > 64 {
		return CompressedArray{}, fmt.Errorf("%w: array width %d", ErrCorrupt, width)
	}
	n := wordsFor(uint64(count), uint64(width))
	if n > uint64(r.Remaining())/8 {
		return CompressedArray{}, fmt.Errorf("%w: array of %d x %d bits", ErrOutOfRange, count, width)
	}
	words, err := r.Bytes(int(n) * 8)
	if err != nil {
		return CompressedArray{}, err
	}
	return newCompressedArray(words, int(count), uint(width)), nil
}

func newCompressedArray(words []byte, count int, width uint) CompressedArray {
	mask := ^uint64(0)
	if width < 64 {
		mask = (uint64(1) << width) - 1
	}
	return CompressedArray{words: words, count: count, width: width, mask: mask}
}

// Len returns the number of values in the array.
func (a CompressedArray) Len() int {
	return a.count
}

// Width returns the number of bits per value.
func (a CompressedArray) Width() int {
	return int(a.width)
}

// Get returns the i-th value, or 0 when i is outside the array.
func (a CompressedArray) Get(i int) uint64 {
	if i < 0 || i >= a.count {
		return 0
	}
	bit := uint64(i) * uint64(a.width)
	w := int(bit >> 6)
	off := uint(bit & 63)
	v := a.word(w) >> off
	if off+a.width > 64 {
		v |= a.word(w+1) << (64 - off)
	}
	return v & a.mask
}

func (a CompressedArray) word(i int) uint64 {
	return binary.LittleEndian.Uint64(a.words[i*8:])
}

// BitWidth returns the number of bits needed to hold every value, at least 1.
func BitWidth(values ...uint64) int {
	var all uint64
	for _, v := range values {
		all |= v
	}
	return max(bits.Len64(all), 1)
}

// ExtractBits returns length bits of v starting at bit start.
func ExtractBits(v uint64, start, length int) uint64 {
	if length >= 64 {
		return v >> start
	}
	return (v >> start) & ((uint64(1) << length) - 1)
}

// PackBits packs values into 64-bit words of width bits each.
func PackBits(values []uint64, width int) []uint64 {
	words := make([]uint64, wordsFor(uint64(len(values)), uint64(width)))
	mask := ^uint64(0)
	if width < 64 {
		mask = (uint64(1) << width) - 1
	}
	for i, v := range values {
		v &= mask
		bit := uint64(i) * uint64(width)
		w := bit >> 6
		off := uint(bit & 63)
		words[w] |= v << off
		if off+uint(width) > 64 {
			words[w+1] |= v >> (64 - off)
		}
	}
	return words
}
