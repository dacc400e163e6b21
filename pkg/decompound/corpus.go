package decompound

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/bastiangx/wordforms/pkg/dictionary"
	"github.com/bastiangx/wordforms/pkg/mapped"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// CorpusVersion is the corpus file format version.
const CorpusVersion = 1

// FreqMask selects the frequency of a corpus entry; flags sit above it.
const FreqMask uint32 = 0x00FFFFFF

const (
	FlagEnglish uint32 = 1 << (24 + iota)
	FlagSegment
	FlagNoCompound
	FlagNoHead
	FlagNoAtomic
)

var flagNames = map[string]uint32{
	"english":    FlagEnglish,
	"segment":    FlagSegment,
	"nocompound": FlagNoCompound,
	"nohead":     FlagNoHead,
	"noatomic":   FlagNoAtomic,
}

// ParseFlags turns a comma separated flag list into flag bits.
func ParseFlags(s string) (uint32, error) {
	var flags uint32
	for _, name := range strings.Split(s, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		f, ok := flagNames[name]
		if !ok {
			return 0, fmt.Errorf("unknown corpus flag %q", name)
		}
		flags |= f
	}
	return flags, nil
}

// Corpus answers frequency lookups for reversed lowercase words.
type Corpus interface {
	Lookup(reversed string) (uint32, bool)
}

// Reverse returns s with its runes in reverse order.
func Reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

// corpusKey lowercases rune by rune so that indexes stay aligned with the input.
func corpusKey(word string) string {
	r := []rune(word)
	for i, c := range r {
		r[i] = unicode.ToLower(c)
	}
	return Reverse(string(r))
}

// MemoryCorpus is an in-memory corpus, used for building corpus files and in tests.
type MemoryCorpus struct {
	trie *patricia.Trie
	size int
}

// NewMemoryCorpus returns an empty corpus.
func NewMemoryCorpus() *MemoryCorpus {
	return &MemoryCorpus{trie: patricia.NewTrie()}
}

// Add records word with its frequency and flags. Frequencies above 24 bits
// are clamped; a repeated word keeps the larger frequency and both flag sets.
func (m *MemoryCorpus) Add(word string, freq uint32, flags uint32) {
	freq = min(freq, FreqMask)
	key := patricia.Prefix(corpusKey(word))
	if item := m.trie.Get(key); item != nil {
		old := item.(uint32)
		freq = max(freq, old&FreqMask)
		flags |= old &^ FreqMask
	} else {
		m.size++
	}
	m.trie.Set(key, freq|flags&^FreqMask)
}

// Lookup implements Corpus.
func (m *MemoryCorpus) Lookup(reversed string) (uint32, bool) {
	item := m.trie.Get(patricia.Prefix(reversed))
	if item == nil {
		return 0, false
	}
	return item.(uint32), true
}

// Len returns the number of words.
func (m *MemoryCorpus) Len() int {
	return m.size
}

// Encode serialises the corpus into the mapped corpus format.
func (m *MemoryCorpus) Encode() ([]byte, error) {
	type entry struct {
		key   string
		value uint32
	}
	entries := make([]entry, 0, m.size)
	err := m.trie.Visit(func(p patricia.Prefix, item patricia.Item) error {
		entries = append(entries, entry{string(p), item.(uint32)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	keys := make([]string, len(entries))
	values := make([]uint64, len(entries))
	for i, e := range entries {
		keys[i], values[i] = e.key, uint64(e.value)
	}
	w := mapped.NewWriter()
	w.Preamble(dictionary.CorpusMagic, CorpusVersion)
	if err := w.Trie(keys, values); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// WriteFile encodes the corpus to path.
func (m *MemoryCorpus) WriteFile(path string) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadTSV reads a corpus from tab separated lines "word<TAB>frequency[<TAB>flags]".
// Blank lines and lines starting with '#' are skipped.
func LoadTSV(r io.Reader) (*MemoryCorpus, error) {
	m := NewMemoryCorpus()
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: want word and frequency, got %q", line, text)
		}
		freq, err := strconv.ParseUint(strings.TrimSpace(fields[1]), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		var flags uint32
		if len(fields) > 2 {
			if flags, err = ParseFlags(fields[2]); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
		m.Add(strings.TrimSpace(fields[0]), uint32(freq), flags)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadTSVFile reads a tab separated corpus file.
func LoadTSVFile(path string) (*MemoryCorpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := LoadTSV(f)
	if err != nil {
		return nil, fmt.Errorf("invalid corpus %s: %w", path, err)
	}
	log.Debugf("Loaded text corpus %s: %d words", path, m.Len())
	return m, nil
}

// MappedCorpus is a read-only corpus backed by a mapped file.
type MappedCorpus struct {
	trie *mapped.Trie
	file *mapped.File
}

// OpenCorpus maps the corpus file at path.
func OpenCorpus(path string) (*MappedCorpus, error) {
	file, err := mapped.Open(path)
	if err != nil {
		return nil, err
	}
	c, err := LoadCorpus(file.Data())
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("invalid corpus %s: %w", path, err)
	}
	c.file = file
	log.Debugf("Loaded corpus %s: %d words", path, c.Len())
	return c, nil
}

// LoadCorpus decodes a corpus from an already mapped region.
func LoadCorpus(data []byte) (*MappedCorpus, error) {
	r := mapped.NewReader(data)
	if err := mapped.ReadPreamble(r, dictionary.CorpusMagic, CorpusVersion); err != nil {
		return nil, err
	}
	trie, err := mapped.ReadTrie(r)
	if err != nil {
		return nil, err
	}
	if r.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", mapped.ErrCorrupt, r.Remaining())
	}
	return &MappedCorpus{trie: trie}, nil
}

// Lookup implements Corpus.
func (c *MappedCorpus) Lookup(reversed string) (uint32, bool) {
	v, ok := c.trie.Get(reversed)
	return uint32(v), ok
}

// Len returns the number of words.
func (c *MappedCorpus) Len() int {
	return c.trie.Len()
}

// Close unmaps the file.
func (c *MappedCorpus) Close() error {
	if c.file == nil {
		return nil
	}
	err := c.file.Close()
	c.file = nil
	return err
}
