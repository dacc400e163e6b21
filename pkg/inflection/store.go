/*
Package inflection implements the inflection pattern store.

A pattern file sits next to a dictionary file and is only valid together with
that exact dictionary: its header records the dictionary fingerprint and
loading refuses any other dictionary.

Each pattern is a record in one bit-packed array:

	prefix       numInflections | lemmaSuffixes | posIdx | freqIdx
	lemma ids    one suffix id per lemma suffix
	inflections  grammemeIdx | suffixIdx<<bitsGrammemes, one per inflection

Grammeme masks and suffix strings are shared tables referenced by index. Two
tries map pattern identifiers to ids and inflection suffixes to runs of
pattern ids.
*/
package inflection

import (
	"errors"
	"fmt"

	"github.com/bastiangx/wordforms/pkg/dictionary"
	"github.com/bastiangx/wordforms/pkg/mapped"
	"github.com/charmbracelet/log"
)

// Version is the pattern format version this package reads.
const Version = 1

var (
	// ErrDictionaryMismatch is returned when a pattern file was built for another dictionary.
	ErrDictionaryMismatch = errors.New("inflection: pattern file built for a different dictionary")
	// ErrNoSuchPattern is returned for a pattern id outside the store.
	ErrNoSuchPattern = errors.New("inflection: no such pattern")
)

// widths holds the bit widths of the packed record fields.
type widths struct {
	grammemes     int
	suffix        int
	numInflection int
	lemmaSuffixes int
	pos           int
	frequency     int
}

// Store holds the inflection patterns of one dictionary. It is immutable and
// safe for concurrent use.
type Store struct {
	dict    *dictionary.Store
	options uint32
	bits    widths

	grammemes      mapped.CompressedArray
	suffixes       mapped.StringTable
	records        mapped.CompressedArray
	offsets        mapped.CompressedArray
	frequencies    mapped.CompressedArray
	identifiers    mapped.StringTable
	identifierTrie *mapped.Trie
	suffixTrie     *mapped.Trie
	suffixPatterns mapped.CompressedArray

	file *mapped.File
}

// Open maps the pattern file at path and binds it to dict.
func Open(path string, dict *dictionary.Store) (*Store, error) {
	file, err := mapped.Open(path)
	if err != nil {
		return nil, err
	}
	s, err := Load(file.Data(), dict)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("invalid pattern file %s: %w", path, err)
	}
	s.file = file
	log.Debugf("Loaded inflection patterns %s: patterns=%d suffixes=%d", path, s.PatternCount(), s.suffixes.Len())
	return s, nil
}

// Load decodes a pattern file from an already mapped region.
func Load(data []byte, dict *dictionary.Store) (*Store, error) {
	if dict == nil {
		panic("inflection: Load called with a nil dictionary")
	}
	r := mapped.NewReader(data)
	if err := mapped.ReadPreamble(r, dictionary.PatternsMagic, Version); err != nil {
		return nil, err
	}
	s := &Store{dict: dict}
	var err error
	if s.options, err = r.Uint32(); err != nil {
		return nil, err
	}
	fp, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	if fp != dict.Fingerprint() {
		return nil, fmt.Errorf("%w: want %#x, dictionary is %#x", ErrDictionaryMismatch, fp, dict.Fingerprint())
	}

	var g, sfx, n, l, p, f uint32
	if err := r.Uint32s(&g, &sfx, &n, &l, &p, &f); err != nil {
		return nil, err
	}
	s.bits = widths{int(g), int(sfx), int(n), int(l), int(p), int(f)}
	if g == 0 || sfx == 0 || g+sfx > 64 || n == 0 || l == 0 || p == 0 || f == 0 || n+l+p+f > 64 {
		return nil, fmt.Errorf("%w: record widths %+v", mapped.ErrCorrupt, s.bits)
	}

	if s.grammemes, err = mapped.ReadCompressedArray(r); err != nil {
		return nil, fmt.Errorf("grammemes: %w", err)
	}
	if s.suffixes, err = mapped.ReadStringTable(r); err != nil {
		return nil, fmt.Errorf("suffixes: %w", err)
	}
	if s.records, err = mapped.ReadCompressedArray(r); err != nil {
		return nil, fmt.Errorf("records: %w", err)
	}
	if s.offsets, err = mapped.ReadCompressedArray(r); err != nil {
		return nil, fmt.Errorf("pattern offsets: %w", err)
	}
	if s.frequencies, err = mapped.ReadCompressedArray(r); err != nil {
		return nil, fmt.Errorf("frequencies: %w", err)
	}
	if s.identifiers, err = mapped.ReadStringTable(r); err != nil {
		return nil, fmt.Errorf("identifiers: %w", err)
	}
	if s.identifierTrie, err = mapped.ReadTrie(r); err != nil {
		return nil, fmt.Errorf("identifier trie: %w", err)
	}
	if s.suffixTrie, err = mapped.ReadTrie(r); err != nil {
		return nil, fmt.Errorf("suffix trie: %w", err)
	}
	if s.suffixPatterns, err = mapped.ReadCompressedArray(r); err != nil {
		return nil, fmt.Errorf("suffix patterns: %w", err)
	}
	if r.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", mapped.ErrCorrupt, r.Remaining())
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// validate checks every index stored in the file against its target table so
// that pattern accessors never need to.
func (s *Store) validate() error {
	count := s.offsets.Len()
	if s.identifiers.Len() != count {
		return fmt.Errorf("%w: %d identifiers for %d patterns", mapped.ErrCorrupt, s.identifiers.Len(), count)
	}
	for id := 0; id < count; id++ {
		off := int(s.offsets.Get(id))
		if off >= s.records.Len() {
			return fmt.Errorf("%w: pattern %d starts at %d", mapped.ErrOutOfRange, id, off)
		}
		h := s.decodePrefix(s.records.Get(off))
		if h.pos >= s.grammemes.Len() || h.freq >= s.frequencies.Len() {
			return fmt.Errorf("%w: pattern %d header", mapped.ErrOutOfRange, id)
		}
		end := off + 1 + h.lemmaSuffixes + h.numInflections
		if end > s.records.Len() {
			return fmt.Errorf("%w: pattern %d ends at %d", mapped.ErrOutOfRange, id, end)
		}
		for i := off + 1; i < off+1+h.lemmaSuffixes; i++ {
			if int(s.records.Get(i)) >= s.suffixes.Len() {
				return fmt.Errorf("%w: pattern %d lemma suffix", mapped.ErrOutOfRange, id)
			}
		}
		for i := off + 1 + h.lemmaSuffixes; i < end; i++ {
			gi, si := s.decodeInflection(s.records.Get(i))
			if gi >= s.grammemes.Len() || si >= s.suffixes.Len() {
				return fmt.Errorf("%w: pattern %d inflection %d", mapped.ErrOutOfRange, id, i-off)
			}
		}
	}

	var err error
	s.identifierTrie.Walk(func(key string, v uint64) bool {
		if v >= uint64(count) {
			err = fmt.Errorf("%w: identifier %q maps to %d", mapped.ErrOutOfRange, key, v)
		}
		return err == nil
	})
	if err != nil {
		return err
	}
	s.suffixTrie.Walk(func(key string, v uint64) bool {
		start, n := unpackRun(v)
		if start+n > s.suffixPatterns.Len() {
			err = fmt.Errorf("%w: suffix %q run %d+%d", mapped.ErrOutOfRange, key, start, n)
		}
		return err == nil
	})
	if err != nil {
		return err
	}
	for i := 0; i < s.suffixPatterns.Len(); i++ {
		if s.suffixPatterns.Get(i) >= uint64(count) {
			return fmt.Errorf("%w: suffix pattern entry %d", mapped.ErrOutOfRange, i)
		}
	}
	return nil
}

type prefix struct {
	numInflections int
	lemmaSuffixes  int
	pos            int
	freq           int
}

func (s *Store) decodePrefix(v uint64) prefix {
	b := s.bits
	return prefix{
		numInflections: int(mapped.ExtractBits(v, 0, b.numInflection)),
		lemmaSuffixes:  int(mapped.ExtractBits(v, b.numInflection, b.lemmaSuffixes)),
		pos:            int(mapped.ExtractBits(v, b.numInflection+b.lemmaSuffixes, b.pos)),
		freq:           int(mapped.ExtractBits(v, b.numInflection+b.lemmaSuffixes+b.pos, b.frequency)),
	}
}

func (s *Store) decodeInflection(v uint64) (grammemeIdx, suffixIdx int) {
	return int(mapped.ExtractBits(v, 0, s.bits.grammemes)),
		int(mapped.ExtractBits(v, s.bits.grammemes, s.bits.suffix))
}

func packRun(start, n int) uint64 {
	return uint64(start) | uint64(n)<<32
}

func unpackRun(v uint64) (start, n int) {
	return int(v & 0xFFFFFFFF), int(v >> 32)
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

// Dictionary returns the dictionary the patterns are bound to.
func (s *Store) Dictionary() *dictionary.Store {
	return s.dict
}

// PatternCount returns the number of patterns.
func (s *Store) PatternCount() int {
	return s.offsets.Len()
}

// Pattern returns the pattern with the given id.
func (s *Store) Pattern(id uint32) (*Pattern, error) {
	if int(id) >= s.PatternCount() {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchPattern, id)
	}
	off := int(s.offsets.Get(int(id)))
	h := s.decodePrefix(s.records.Get(off))
	return &Pattern{
		store:          s,
		id:             id,
		lemmaStart:     off + 1,
		lemmaSuffixes:  h.lemmaSuffixes,
		inflStart:      off + 1 + h.lemmaSuffixes,
		numInflections: h.numInflections,
		pos:            s.grammemes.Get(h.pos),
		freqIdx:        h.freq,
	}, nil
}

// PatternByName returns the pattern with the given identifier.
func (s *Store) PatternByName(name string) (*Pattern, bool) {
	id, ok := s.identifierTrie.Get(name)
	if !ok {
		return nil, false
	}
	p, err := s.Pattern(uint32(id))
	return p, err == nil
}

// PatternsForSuffix returns every pattern with an inflection ending in exactly suffix.
func (s *Store) PatternsForSuffix(suffix string) []*Pattern {
	v, ok := s.suffixTrie.Get(suffix)
	if !ok {
		return nil
	}
	start, n := unpackRun(v)
	patterns := make([]*Pattern, 0, n)
	for i := start; i < start+n; i++ {
		if p, err := s.Pattern(uint32(s.suffixPatterns.Get(i))); err == nil {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

// PatternIDsForWord returns the ids of the patterns attached to word's
// dictionary entry, in entry order.
func (s *Store) PatternIDsForWord(word string) []uint32 {
	names := s.dict.PropertyValues(word, dictionary.InflectionProperty)
	ids := make([]uint32, 0, len(names))
	for _, name := range names {
		if id, ok := s.identifierTrie.Get(name); ok {
			ids = append(ids, uint32(id))
		} else {
			log.Debugf("Word %q references unknown pattern %q", word, name)
		}
	}
	return ids
}

// PatternsForWord returns the patterns attached to word's dictionary entry.
func (s *Store) PatternsForWord(word string) []*Pattern {
	ids := s.PatternIDsForWord(word)
	patterns := make([]*Pattern, 0, len(ids))
	for _, id := range ids {
		if p, err := s.Pattern(id); err == nil {
			patterns = append(patterns, p)
		}
	}
	return patterns
}
