package mapped

import (
	"errors"
	"fmt"
)

// EndianMarker is written little-endian; reading it back byte-swapped means
// the file was produced for the other byte order.
const EndianMarker uint32 = 0x01020304

// MagicLen is the length of the magic marker opening every file.
const MagicLen = 8

var (
	// ErrInvalidMagic is returned when a file does not start with the expected marker.
	ErrInvalidMagic = errors.New("mapped: invalid magic marker")
	// ErrIncompatibleVersion is returned when a file was written by another format version.
	ErrIncompatibleVersion = errors.New("mapped: incompatible format version")
	// ErrForeignEndianness is returned when a file was written with the other byte order.
	ErrForeignEndianness = errors.New("mapped: foreign endianness")
)

// ReadPreamble checks the magic marker, format version and endianness marker
// that open every mapped file.
func ReadPreamble(r *Reader, magic string, version uint32) error {
	got, err := r.Bytes(MagicLen)
	if err != nil {
		return fmt.Errorf("%w: file shorter than its header", ErrOutOfRange)
	}
	if string(got) != magic {
		return fmt.Errorf("%w: got %q, want %q", ErrInvalidMagic, got, magic)
	}
	var v, endian uint32
	if err := r.Uint32s(&v, &endian); err != nil {
		return err
	}
	if v != version {
		return fmt.Errorf("%w: got %d, want %d", ErrIncompatibleVersion, v, version)
	}
	switch endian {
	case EndianMarker:
		return nil
	case 0x04030201:
		return ErrForeignEndianness
	default:
		return fmt.Errorf("%w: endianness marker %#x", ErrCorrupt, endian)
	}
}

// Preamble writes the magic marker, version and endianness marker.
func (w *Writer) Preamble(magic string, version uint32) {
	if len(magic) != MagicLen {
		panic(fmt.Sprintf("mapped: magic %q is not %d bytes", magic, MagicLen))
	}
	w.Raw([]byte(magic))
	w.Uint32(version)
	w.Uint32(EndianMarker)
}

// PeekMagic returns the magic marker of data without validating it.
func PeekMagic(data []byte) string {
	if len(data) < MagicLen {
		return ""
	}
	return string(data[:MagicLen])
}
