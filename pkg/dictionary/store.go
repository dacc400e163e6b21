/*
Package dictionary implements the read-only morphological dictionary.

A dictionary file maps every known word to a grammeme bitmask and an optional
set of property values. The file is memory-mapped and decoded in place:

	+---------------------------------------------------------------+
	| magic "WFDICT\0\1" | version | endian | language | options    |
	| fingerprint (FNV-1a 64 of everything below)                   |
	+---------------------------------------------------------------+
	| bitsTypes | bitsPropertyMap | bitsPropertyKey | reserved      |
	| types          StringTable    sorted grammeme names           |
	| words          Trie           word -> payload or payload index |
	| typeSingletons CompressedArray  grammeme masks, 0 at index 0  |
	| wordsToData    CompressedArray  payloads (double stage only)  |
	| propertyNames  StringTable                                    |
	| propertyValues StringTable                                    |
	| propertyMaps   CompressedArray                                |
	+---------------------------------------------------------------+

A payload keeps the type index in its low bitsTypes bits and the offset of the
word's property map in the next bitsPropertyMap bits. Grammeme i is bit 1<<i,
where i is the name's position in the sorted types table.

Lookups never fail: an unknown word is reported as not found. Every format
problem is reported by Open or Load and leaves no usable Store behind.
*/
package dictionary

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/bastiangx/wordforms/pkg/mapped"
	"github.com/charmbracelet/log"
	"golang.org/x/text/language"
)

const (
	// Version is the dictionary format version this package reads.
	Version = 1
	// MaxLanguageLen bounds the language code stored in the header.
	MaxLanguageLen = 4
	// OptionHasInflectionTable is set when words carry inflection pattern references.
	OptionHasInflectionTable = 1
	// InflectionProperty names the property listing a word's inflection patterns.
	InflectionProperty = "inflection"
	// MaxTypes is the number of grammemes a 64-bit mask can hold.
	MaxTypes = 64

	headerSize = mapped.MagicLen + 4 + 4 + MaxLanguageLen + 4 + 8
)

var (
	// ErrChecksum is returned when the fingerprint does not match the file body.
	ErrChecksum = errors.New("dictionary: fingerprint mismatch")
	// ErrUnknownProperty is returned when a grammeme or property name is not in the dictionary.
	ErrUnknownProperty = errors.New("dictionary: unknown property")
)

// Header holds the fixed fields opening a dictionary file.
type Header struct {
	Version     uint32
	Language    string
	Options     uint32
	Fingerprint uint64
}

// Store is a loaded dictionary. It is immutable and safe for concurrent use.
type Store struct {
	header Header
	tag    language.Tag

	bitsTypes       int
	bitsPropertyMap int
	bitsPropertyKey int

	types          mapped.StringTable
	words          *mapped.Trie
	typeSingletons mapped.CompressedArray
	wordsToData    mapped.CompressedArray
	propertyNames  mapped.StringTable
	propertyValues mapped.StringTable
	propertyMaps   mapped.CompressedArray

	file *mapped.File
}

// Open maps the dictionary at path.
func Open(path string) (*Store, error) {
	file, err := mapped.Open(path)
	if err != nil {
		return nil, err
	}
	store, err := Load(file.Data())
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("invalid dictionary %s: %w", path, err)
	}
	store.file = file
	log.Debugf("Loaded dictionary %s: language=%s words=%d types=%d",
		path, store.header.Language, store.words.Len(), store.types.Len())
	return store, nil
}

// Load decodes a dictionary from an already mapped region. The Store keeps
// references into data.
func Load(data []byte) (*Store, error) {
	header, err := readHeader(data)
	if err != nil {
		return nil, err
	}

	s := &Store{header: header, tag: language.Und}
	if tag, err := language.Parse(header.Language); err == nil {
		s.tag = tag
	}

	r := mapped.NewReader(data[headerSize:])
	var bitsTypes, bitsMap, bitsKey, reserved uint32
	if err := r.Uint32s(&bitsTypes, &bitsMap, &bitsKey, &reserved); err != nil {
		return nil, err
	}
	if bitsTypes == 0 || bitsMap == 0 || bitsTypes+bitsMap > 64 || bitsKey == 0 || bitsKey > 32 {
		return nil, fmt.Errorf("%w: payload widths %d/%d/%d", mapped.ErrCorrupt, bitsTypes, bitsMap, bitsKey)
	}
	s.bitsTypes, s.bitsPropertyMap, s.bitsPropertyKey = int(bitsTypes), int(bitsMap), int(bitsKey)

	if s.types, err = mapped.ReadStringTable(r); err != nil {
		return nil, fmt.Errorf("types: %w", err)
	}
	if s.types.Len() > MaxTypes {
		return nil, fmt.Errorf("%w: %d types do not fit a 64-bit mask", mapped.ErrCorrupt, s.types.Len())
	}
	if s.words, err = mapped.ReadTrie(r); err != nil {
		return nil, fmt.Errorf("words: %w", err)
	}
	if s.typeSingletons, err = mapped.ReadCompressedArray(r); err != nil {
		return nil, fmt.Errorf("type singletons: %w", err)
	}
	if s.typeSingletons.Len() == 0 || s.typeSingletons.Get(0) != 0 {
		return nil, fmt.Errorf("%w: type singletons must start with the empty mask", mapped.ErrCorrupt)
	}
	if s.wordsToData, err = mapped.ReadCompressedArray(r); err != nil {
		return nil, fmt.Errorf("word data: %w", err)
	}
	if s.propertyNames, err = mapped.ReadStringTable(r); err != nil {
		return nil, fmt.Errorf("property names: %w", err)
	}
	if s.propertyValues, err = mapped.ReadStringTable(r); err != nil {
		return nil, fmt.Errorf("property values: %w", err)
	}
	if s.propertyMaps, err = mapped.ReadCompressedArray(r); err != nil {
		return nil, fmt.Errorf("property maps: %w", err)
	}
	if r.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", mapped.ErrCorrupt, r.Remaining())
	}
	return s, nil
}

func readHeader(data []byte) (Header, error) {
	r := mapped.NewReader(data)
	if err := mapped.ReadPreamble(r, DictionaryMagic, Version); err != nil {
		return Header{}, err
	}
	lang, err := r.Bytes(MaxLanguageLen)
	if err != nil {
		return Header{}, err
	}
	var h Header
	h.Version = Version
	h.Language = strings.TrimRight(string(lang), "\x00")
	if h.Options, err = r.Uint32(); err != nil {
		return Header{}, err
	}
	if h.Fingerprint, err = r.Uint64(); err != nil {
		return Header{}, err
	}
	if sum := Fingerprint(data[headerSize:]); sum != h.Fingerprint {
		return Header{}, fmt.Errorf("%w: header %#x, body %#x", ErrChecksum, h.Fingerprint, sum)
	}
	return h, nil
}

// Fingerprint hashes a dictionary body. Pattern files record it to refuse
// being paired with any other dictionary.
func Fingerprint(body []byte) uint64 {
	h := fnv.New64a()
	h.Write(body)
	return h.Sum64()
}

// PeekFingerprint reads the fingerprint from a dictionary header without
// loading the file.
func PeekFingerprint(data []byte) (uint64, bool) {
	if len(data) < headerSize || mapped.PeekMagic(data) != DictionaryMagic {
		return 0, false
	}
	return binary.LittleEndian.Uint64(data[headerSize-8:]), true
}

// Close releases the mapping when the store was opened from a file.
func (s *Store) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// Header returns the decoded file header.
func (s *Store) Header() Header {
	return s.header
}

// Language returns the language code stored in the header.
func (s *Store) Language() string {
	return s.header.Language
}

// Tag returns the language as a BCP 47 tag, or language.Und.
func (s *Store) Tag() language.Tag {
	return s.tag
}

// Fingerprint identifies this exact dictionary file.
func (s *Store) Fingerprint() uint64 {
	return s.header.Fingerprint
}

// HasInflectionTable reports whether words reference inflection patterns.
func (s *Store) HasInflectionTable() bool {
	return s.header.Options&OptionHasInflectionTable != 0
}
