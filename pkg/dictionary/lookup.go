package dictionary

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/bastiangx/wordforms/pkg/mapped"
	"golang.org/x/text/cases"
)

// payload resolves a word to its packed type index and property map offset.
func (s *Store) payload(word string) (uint64, bool) {
	v, ok := s.words.Get(word)
	if !ok {
		return 0, false
	}
	if s.wordsToData.Len() > 0 {
		if v >= uint64(s.wordsToData.Len()) {
			return 0, false
		}
		v = s.wordsToData.Get(int(v))
	}
	return v, true
}

func (s *Store) typeOf(payload uint64) uint64 {
	return s.typeSingletons.Get(int(mapped.ExtractBits(payload, 0, s.bitsTypes)))
}

func (s *Store) propertyMapOffset(payload uint64) int {
	return int(mapped.ExtractBits(payload, s.bitsTypes, s.bitsPropertyMap))
}

// CombinedBinaryType returns the grammeme mask of word. Words missing from the
// dictionary are retried lowercased.
func (s *Store) CombinedBinaryType(word string) (uint64, bool) {
	if p, ok := s.payload(word); ok {
		return s.typeOf(p), true
	}
	lower := cases.Lower(s.tag).String(word)
	if lower == word {
		return 0, false
	}
	if p, ok := s.payload(lower); ok {
		return s.typeOf(p), true
	}
	return 0, false
}

// IsKnownWord reports whether word is in the dictionary exactly as given.
func (s *Store) IsKnownWord(word string) bool {
	_, ok := s.words.Get(word)
	return ok
}

// WordCount returns the number of words in the dictionary.
func (s *Store) WordCount() int {
	return s.words.Len()
}

// KnownWords calls fn for every word in lexical order until fn returns false.
func (s *Store) KnownWords(fn func(word string) bool) {
	s.words.Walk(func(key string, _ uint64) bool {
		return fn(key)
	})
}

// BinaryProperties returns the OR of the bits named. Empty names are ignored.
// Unknown names are reported in the error; the mask still holds the known ones.
func (s *Store) BinaryProperties(names []string) (uint64, error) {
	var mask uint64
	var unknown []string
	for _, name := range names {
		if name == "" {
			continue
		}
		i, ok := s.types.Find(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		mask |= 1 << uint(i)
	}
	if len(unknown) > 0 {
		return mask, fmt.Errorf("%w: %s", ErrUnknownProperty, strings.Join(unknown, ", "))
	}
	return mask, nil
}

// PropertyName returns the name of a single grammeme bit.
func (s *Store) PropertyName(bit uint64) (string, bool) {
	if bits.OnesCount64(bit) != 1 {
		return "", false
	}
	i := bits.TrailingZeros64(bit)
	if i >= s.types.Len() {
		return "", false
	}
	return s.types.Get(i), true
}

// PropertyNames returns the names of every bit set in mask, lowest bit first.
func (s *Store) PropertyNames(mask uint64) []string {
	names := make([]string, 0, bits.OnesCount64(mask))
	for mask != 0 {
		bit := mask & -mask
		if name, ok := s.PropertyName(bit); ok {
			names = append(names, name)
		}
		mask &^= bit
	}
	return names
}

// Types returns every grammeme name in bit order.
func (s *Store) Types() []string {
	names := make([]string, s.types.Len())
	for i := range names {
		names[i] = s.types.Get(i)
	}
	return names
}

// HasProperty reports whether word carries the grammeme name.
func (s *Store) HasProperty(word, name string) bool {
	return s.HasAllProperties(word, []string{name})
}

// HasAllProperties reports whether word carries every grammeme in names.
func (s *Store) HasAllProperties(word string, names []string) bool {
	mask, err := s.BinaryProperties(names)
	if err != nil {
		return false
	}
	t, ok := s.CombinedBinaryType(word)
	return ok && t&mask == mask
}

// HasAnyProperty reports whether word carries at least one grammeme in names.
func (s *Store) HasAnyProperty(word string, names []string) bool {
	mask, _ := s.BinaryProperties(names)
	t, ok := s.CombinedBinaryType(word)
	return ok && t&mask != 0
}

// PropertyValues returns the values word holds for property.
func (s *Store) PropertyValues(word, property string) []string {
	key, ok := s.propertyNames.Find(property)
	if !ok {
		return nil
	}
	var values []string
	s.visitProperties(word, func(k int, ids []uint64) bool {
		if k != key {
			return true
		}
		values = make([]string, len(ids))
		for i, id := range ids {
			values[i] = s.propertyValues.Get(int(id))
		}
		return false
	})
	return values
}

// Properties returns every property of word keyed by property name.
func (s *Store) Properties(word string) map[string][]string {
	props := make(map[string][]string)
	s.visitProperties(word, func(k int, ids []uint64) bool {
		values := make([]string, len(ids))
		for i, id := range ids {
			values[i] = s.propertyValues.Get(int(id))
		}
		props[s.propertyNames.Get(k)] = values
		return true
	})
	return props
}

// visitProperties walks the property map of word. The map at offset o holds
// its key count, then per key an entry key|count<<bitsPropertyKey followed by
// count value ids.
func (s *Store) visitProperties(word string, fn func(key int, ids []uint64) bool) {
	p, ok := s.payload(word)
	if !ok {
		return
	}
	off := s.propertyMapOffset(p)
	if off == 0 || off >= s.propertyMaps.Len() {
		return
	}
	n := int(s.propertyMaps.Get(off))
	pos := off + 1
	var ids []uint64
	for k := 0; k < n && pos < s.propertyMaps.Len(); k++ {
		entry := s.propertyMaps.Get(pos)
		key := int(mapped.ExtractBits(entry, 0, s.bitsPropertyKey))
		count := int(entry >> uint(s.bitsPropertyKey))
		pos++
		if count > s.propertyMaps.Len()-pos {
			return
		}
		ids = ids[:0]
		for j := 0; j < count; j++ {
			ids = append(ids, s.propertyMaps.Get(pos+j))
		}
		pos += count
		if !fn(key, ids) {
			return
		}
	}
}
