package inflection

import (
	"fmt"
	"os"
	"slices"

	"github.com/bastiangx/wordforms/pkg/dictionary"
	"github.com/bastiangx/wordforms/pkg/mapped"
)

// InflectionSpec describes one inflection by suffix and grammeme names.
type InflectionSpec struct {
	Suffix    string
	Grammemes []string
}

// PatternSpec describes a pattern before it is encoded.
type PatternSpec struct {
	Identifier    string
	PartOfSpeech  []string
	Frequency     uint64
	LemmaSuffixes []string
	Inflections   []InflectionSpec
}

// Builder encodes pattern files for one dictionary. Pattern ids follow the
// order patterns are added in.
type Builder struct {
	dict     *dictionary.Store
	patterns []PatternSpec
	names    map[string]struct{}
}

// NewBuilder returns a builder whose grammeme names resolve against dict.
func NewBuilder(dict *dictionary.Store) *Builder {
	return &Builder{dict: dict, names: make(map[string]struct{})}
}

// Add appends a pattern. Identifiers must be unique and non-empty.
func (b *Builder) Add(p PatternSpec) error {
	if p.Identifier == "" {
		return fmt.Errorf("pattern without identifier")
	}
	if _, dup := b.names[p.Identifier]; dup {
		return fmt.Errorf("duplicate pattern %q", p.Identifier)
	}
	b.names[p.Identifier] = struct{}{}
	b.patterns = append(b.patterns, p)
	return nil
}

type encodedPattern struct {
	pos      uint64
	freq     uint64
	lemmas   []string
	suffixes []string
	masks    []uint64
}

// Build encodes the patterns.
func (b *Builder) Build() ([]byte, error) {
	encoded := make([]encodedPattern, len(b.patterns))
	maskSet := map[uint64]struct{}{0: {}}
	suffixList := []string{""}
	freqSet := map[uint64]struct{}{}
	maxInfl, maxLemmas := 0, 0
	for i, p := range b.patterns {
		pos, err := b.dict.BinaryProperties(p.PartOfSpeech)
		if err != nil {
			return nil, fmt.Errorf("pattern %s: %w", p.Identifier, err)
		}
		e := encodedPattern{pos: pos, freq: p.Frequency, lemmas: p.LemmaSuffixes}
		maskSet[pos] = struct{}{}
		for _, infl := range p.Inflections {
			mask, err := b.dict.BinaryProperties(infl.Grammemes)
			if err != nil {
				return nil, fmt.Errorf("pattern %s suffix %q: %w", p.Identifier, infl.Suffix, err)
			}
			maskSet[mask] = struct{}{}
			e.masks = append(e.masks, mask)
			e.suffixes = append(e.suffixes, infl.Suffix)
		}
		suffixList = append(suffixList, e.suffixes...)
		suffixList = append(suffixList, e.lemmas...)
		freqSet[p.Frequency] = struct{}{}
		maxInfl = max(maxInfl, len(e.masks))
		maxLemmas = max(maxLemmas, len(e.lemmas))
		encoded[i] = e
	}

	grammemes := make([]uint64, 0, len(maskSet))
	for m := range maskSet {
		grammemes = append(grammemes, m)
	}
	slices.Sort(grammemes)
	grammemeIdx := indexOf(grammemes)

	suffixes := mapped.SortedUnique(suffixList)
	suffixIdx := make(map[string]uint64, len(suffixes))
	for i, s := range suffixes {
		suffixIdx[s] = uint64(i)
	}

	frequencies := make([]uint64, 0, len(freqSet))
	for f := range freqSet {
		frequencies = append(frequencies, f)
	}
	slices.Sort(frequencies)
	slices.Reverse(frequencies)
	freqIdx := indexOf(frequencies)

	w := widths{
		grammemes:     mapped.BitWidth(uint64(len(grammemes) - 1)),
		suffix:        mapped.BitWidth(uint64(len(suffixes) - 1)),
		numInflection: mapped.BitWidth(uint64(maxInfl)),
		lemmaSuffixes: mapped.BitWidth(uint64(maxLemmas)),
		frequency:     mapped.BitWidth(uint64(max(len(frequencies)-1, 0))),
	}
	w.pos = w.grammemes
	if w.grammemes+w.suffix > 64 || w.numInflection+w.lemmaSuffixes+w.pos+w.frequency > 64 {
		return nil, fmt.Errorf("pattern records do not fit 64 bits: %+v", w)
	}

	var records, offsets []uint64
	bySuffix := map[string][]uint64{}
	identifiers := make([]string, len(b.patterns))
	for i, e := range encoded {
		identifiers[i] = b.patterns[i].Identifier
		offsets = append(offsets, uint64(len(records)))
		records = append(records, uint64(len(e.masks))|
			uint64(len(e.lemmas))<<w.numInflection|
			grammemeIdx[e.pos]<<(w.numInflection+w.lemmaSuffixes)|
			freqIdx[e.freq]<<(w.numInflection+w.lemmaSuffixes+w.pos))
		for _, l := range e.lemmas {
			records = append(records, suffixIdx[l])
		}
		for j, m := range e.masks {
			records = append(records, grammemeIdx[m]|suffixIdx[e.suffixes[j]]<<w.grammemes)
			ids := bySuffix[e.suffixes[j]]
			if len(ids) == 0 || ids[len(ids)-1] != uint64(i) {
				bySuffix[e.suffixes[j]] = append(ids, uint64(i))
			}
		}
	}

	out := mapped.NewWriter()
	out.Preamble(dictionary.PatternsMagic, Version)
	out.Uint32(0)
	out.Uint64(b.dict.Fingerprint())
	for _, v := range []int{w.grammemes, w.suffix, w.numInflection, w.lemmaSuffixes, w.pos, w.frequency} {
		out.Uint32(uint32(v))
	}
	out.CompressedArray(grammemes)
	if err := out.StringTable(suffixes); err != nil {
		return nil, err
	}
	out.CompressedArray(records)
	out.CompressedArray(offsets)
	out.CompressedArray(frequencies)
	if err := out.StringTable(identifiers); err != nil {
		return nil, err
	}

	sortedIDs := mapped.SortedUnique(identifiers)
	idValues := make([]uint64, len(sortedIDs))
	for i, name := range sortedIDs {
		idValues[i] = uint64(slices.Index(identifiers, name))
	}
	if err := out.Trie(sortedIDs, idValues); err != nil {
		return nil, err
	}

	suffixKeys := make([]string, 0, len(bySuffix))
	for s := range bySuffix {
		suffixKeys = append(suffixKeys, s)
	}
	slices.Sort(suffixKeys)
	var runs, suffixPatterns []uint64
	for _, s := range suffixKeys {
		runs = append(runs, packRun(len(suffixPatterns), len(bySuffix[s])))
		suffixPatterns = append(suffixPatterns, bySuffix[s]...)
	}
	if err := out.Trie(suffixKeys, runs); err != nil {
		return nil, err
	}
	out.CompressedArray(suffixPatterns)
	return out.Bytes(), nil
}

// WriteFile encodes the patterns and writes them to path.
func (b *Builder) WriteFile(path string) error {
	data, err := b.Build()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func indexOf(values []uint64) map[uint64]uint64 {
	idx := make(map[uint64]uint64, len(values))
	for i, v := range values {
		idx[v] = uint64(i)
	}
	return idx
}
