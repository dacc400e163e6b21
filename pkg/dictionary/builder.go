package dictionary

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/bastiangx/wordforms/pkg/mapped"
)

// Builder assembles a dictionary file in memory.
type Builder struct {
	language    string
	types       map[string]struct{}
	words       map[string]*wordEntry
	doubleStage bool
}

type wordEntry struct {
	types      map[string]struct{}
	properties map[string][]string
}

// NewBuilder creates a builder for a dictionary of the given language code.
func NewBuilder(language string) *Builder {
	return &Builder{
		language: language,
		types:    make(map[string]struct{}),
		words:    make(map[string]*wordEntry),
	}
}

// SetDoubleStage stores payloads in a separate array indexed by the trie,
// which pays off when many words share a payload.
func (b *Builder) SetDoubleStage(enabled bool) {
	b.doubleStage = enabled
}

// AddType declares grammeme names even if no word uses them.
func (b *Builder) AddType(names ...string) {
	for _, n := range names {
		b.types[n] = struct{}{}
	}
}

// AddWord adds word with its grammemes and properties, merging with any
// earlier entry for the same word. Property values keep their order.
func (b *Builder) AddWord(word string, types []string, properties map[string][]string) {
	e, ok := b.words[word]
	if !ok {
		e = &wordEntry{types: make(map[string]struct{}), properties: make(map[string][]string)}
		b.words[word] = e
	}
	for _, t := range types {
		e.types[t] = struct{}{}
		b.types[t] = struct{}{}
	}
	for k, values := range properties {
		for _, v := range values {
			if !slices.Contains(e.properties[k], v) {
				e.properties[k] = append(e.properties[k], v)
			}
		}
	}
}

// Build encodes the dictionary.
func (b *Builder) Build() ([]byte, error) {
	if len(b.language) > MaxLanguageLen {
		return nil, fmt.Errorf("language code %q longer than %d bytes", b.language, MaxLanguageLen)
	}
	types := sortedKeys(b.types)
	if len(types) > MaxTypes {
		return nil, fmt.Errorf("%d grammemes do not fit a 64-bit mask", len(types))
	}
	typeBit := make(map[string]uint64, len(types))
	for i, t := range types {
		typeBit[t] = 1 << uint(i)
	}

	words := sortedKeys(b.words)
	var propNames, propValues []string
	masks := make(map[uint64]struct{})
	for _, w := range words {
		e := b.words[w]
		masks[b.mask(e, typeBit)] = struct{}{}
		for k, values := range e.properties {
			propNames = append(propNames, k)
			propValues = append(propValues, values...)
		}
	}
	propNames = mapped.SortedUnique(propNames)
	propValues = mapped.SortedUnique(propValues)

	singletons := []uint64{0}
	delete(masks, 0)
	for m := range masks {
		singletons = append(singletons, m)
	}
	slices.Sort(singletons[1:])
	singletonIdx := make(map[uint64]uint64, len(singletons))
	for i, m := range singletons {
		singletonIdx[m] = uint64(i)
	}

	bitsKey := mapped.BitWidth(uint64(len(propNames)))
	maps := []uint64{0}
	mapOffsets := make(map[string]uint64)
	wordMap := make([]uint64, len(words))
	for i, w := range words {
		encoded := encodePropertyMap(b.words[w].properties, propNames, propValues, bitsKey)
		if encoded == nil {
			continue
		}
		key := joinUints(encoded)
		off, ok := mapOffsets[key]
		if !ok {
			off = uint64(len(maps))
			mapOffsets[key] = off
			maps = append(maps, encoded...)
		}
		wordMap[i] = off
	}

	bitsTypes := mapped.BitWidth(uint64(len(singletons) - 1))
	bitsMap := mapped.BitWidth(uint64(len(maps)))
	if bitsTypes+bitsMap > 64 {
		return nil, fmt.Errorf("payload needs %d bits", bitsTypes+bitsMap)
	}
	payloads := make([]uint64, len(words))
	for i, w := range words {
		payloads[i] = singletonIdx[b.mask(b.words[w], typeBit)] | wordMap[i]<<uint(bitsTypes)
	}

	var wordsToData []uint64
	trieValues := payloads
	if b.doubleStage {
		wordsToData = slices.Clone(payloads)
		slices.Sort(wordsToData)
		wordsToData = slices.Compact(wordsToData)
		trieValues = make([]uint64, len(payloads))
		for i, p := range payloads {
			idx, _ := slices.BinarySearch(wordsToData, p)
			trieValues[i] = uint64(idx)
		}
	}

	body := mapped.NewWriter()
	body.Uint32(uint32(bitsTypes))
	body.Uint32(uint32(bitsMap))
	body.Uint32(uint32(bitsKey))
	body.Uint32(0)
	if err := body.StringTable(types); err != nil {
		return nil, err
	}
	if err := body.Trie(words, trieValues); err != nil {
		return nil, err
	}
	body.CompressedArray(singletons)
	body.CompressedArray(wordsToData)
	if err := body.StringTable(propNames); err != nil {
		return nil, err
	}
	if err := body.StringTable(propValues); err != nil {
		return nil, err
	}
	body.CompressedArray(maps)

	var options uint32
	if _, ok := slices.BinarySearch(propNames, InflectionProperty); ok {
		options |= OptionHasInflectionTable
	}
	lang := make([]byte, MaxLanguageLen)
	copy(lang, b.language)

	out := mapped.NewWriter()
	out.Preamble(DictionaryMagic, Version)
	out.Raw(lang)
	out.Uint32(options)
	out.Uint64(Fingerprint(body.Bytes()))
	out.Raw(body.Bytes())
	return out.Bytes(), nil
}

// WriteFile builds the dictionary and writes it to path.
func (b *Builder) WriteFile(path string) error {
	data, err := b.Build()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (b *Builder) mask(e *wordEntry, typeBit map[string]uint64) uint64 {
	var m uint64
	for t := range e.types {
		m |= typeBit[t]
	}
	return m
}

func encodePropertyMap(props map[string][]string, names, values []string, bitsKey int) []uint64 {
	if len(props) == 0 {
		return nil
	}
	keys := sortedKeys(props)
	encoded := []uint64{uint64(len(keys))}
	for _, k := range keys {
		keyID, _ := slices.BinarySearch(names, k)
		encoded = append(encoded, uint64(keyID)|uint64(len(props[k]))<<uint(bitsKey))
		for _, v := range props[k] {
			valueID, _ := slices.BinarySearch(values, v)
			encoded = append(encoded, uint64(valueID))
		}
	}
	return encoded
}

func joinUints(values []uint64) string {
	var sb strings.Builder
	for _, v := range values {
		sb.WriteString(strconv.FormatUint(v, 36))
		sb.WriteByte(',')
	}
	return sb.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
