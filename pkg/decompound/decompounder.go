/*
Package decompound splits Germanic compound words into their parts.

The compound is lowercased and reversed so that the corpus, keyed by reversed
words, can be probed from the end of the word. Every split point between the
minimum and maximum candidate length is tried recursively; each partial parse
is a leaf, leaves are scored by the frequencies of their parts and pruned by
depth, mean part length and credibility. Linking elements ("Fugen") between
parts are detected and reported as their own boundary.

	d := decompound.New(corpus, decompound.DefaultTuning())
	d.Decompound("Arbeitsamt", 0, len("Arbeitsamt")) // [6 7]
*/
package decompound

import (
	"fmt"
	"unicode"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Decompounder splits compounds using a frequency corpus. It is safe for
// concurrent use.
type Decompounder struct {
	corpus    Corpus
	tuning    Tuning
	fuger     *fuger
	validator *validator
	cache     *lru.Cache[string, []cut]
}

// New returns a decompounder over corpus.
func New(corpus Corpus, tuning Tuning) *Decompounder {
	if corpus == nil {
		panic("decompound: New called with a nil corpus")
	}
	f := newFuger(tuning)
	d := &Decompounder{
		corpus:    corpus,
		tuning:    tuning,
		fuger:     f,
		validator: newValidator(tuning, f),
	}
	if tuning.CacheSize > 0 {
		d.cache, _ = lru.New[string, []cut](tuning.CacheSize)
	}
	return d
}

// Tuning returns the thresholds in use.
func (d *Decompounder) Tuning() Tuning {
	return d.tuning
}

// Decompound returns the byte offsets inside phrase at which
// phrase[start:start+length] splits into parts. Offsets are strictly
// increasing and lie strictly inside the range. Words that do not split
// yield no offsets.
func (d *Decompounder) Decompound(phrase string, start, length int) []int {
	if start < 0 || length < 0 || start+length > len(phrase) {
		panic(fmt.Sprintf("decompound: range [%d, %d+%d) outside phrase of %d bytes", start, start, length, len(phrase)))
	}
	runeOffsets, cuts := d.split(phrase[start : start+length])
	boundaries := make([]int, 0, len(cuts))
	for _, c := range cuts {
		boundaries = append(boundaries, start+runeOffsets[c.pos])
	}
	return boundaries
}

// split returns the byte offset of every rune of word and the cuts of word in
// rune positions.
func (d *Decompounder) split(word string) ([]int, []cut) {
	offsets := make([]int, 0, len(word))
	runes := make([]rune, 0, len(word))
	for i, r := range word {
		offsets = append(offsets, i)
		runes = append(runes, unicode.ToLower(r))
	}
	if len(runes) < 2*d.tuning.MinCandidateLength || len(runes) > d.tuning.MaxInputLength {
		return offsets, nil
	}
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	key := string(runes)
	if d.cache != nil {
		if cuts, ok := d.cache.Get(key); ok {
			return offsets, cuts
		}
	}
	cuts := d.analyze(runes)
	if d.cache != nil {
		d.cache.Add(key, cuts)
	}
	log.Debugf("Decompounded %q into %d parts", word, len(cuts)+1)
	return offsets, cuts
}

func (d *Decompounder) analyze(reversed []rune) []cut {
	p := &parse{d: d, compound: reversed}
	root := p.newSegment(0, len(reversed), 0, -1)
	word := p.clone(root)
	p.analyze(root, word, 0, true)
	if p.exhausted {
		log.Warnf("Gave up splitting a %d-rune word after %d partial parses", len(reversed), p.visits)
		return nil
	}
	return p.cuts(p.bestLeaf())
}

func (p *parse) analyze(parent, word, offset int, isTail bool) {
	t := p.d.tuning
	p.visits++
	if t.MaxVisits > 0 && p.visits > t.MaxVisits {
		p.exhausted = true
		return
	}
	p.tie(word, parent)
	p.leaves = append(p.leaves, word)
	w := p.arena[word]
	if w.has(FlagNoCompound) || w.has(FlagEnglish) || w.freq > t.MaxCompoundFreq || w.depth > t.MaxDepth {
		return
	}
	n := len(p.compound)
	upper := w.length() - t.MinCandidateLength
	prev, next := -1, -1
	for k := t.MinCandidateLength; k <= upper && k < t.MaxCompoundLength-1 && offset+k < n && !p.exhausted; k++ {
		cur := offset + k
		first := next
		if first < 0 {
			first = p.newSegment(offset, cur, w.rootStart, w.fugeLen)
		}
		next = -1
		if k < upper && cur+1 < n {
			next = p.newSegment(offset, cur+1, offset, -1)
		}
		if p.d.validator.validateFirst(p.arena[first], p.segmentAt(prev), p.segmentAt(next), isTail) {
			second := p.newSegment(cur, n, cur, -1)
			if p.d.validator.validateSecond(p, p.arena[second]) {
				p.tie(first, parent)
				p.analyze(first, second, cur, false)
			}
		}
		prev = first
	}
}

func (p *parse) segmentAt(i int) *segment {
	if i < 0 {
		return nil
	}
	return p.arena[i]
}

// Kind classifies the parts of a split word.
type Kind int

const (
	// Word is a word that does not split.
	Word Kind = iota
	// Head is a part followed by further parts.
	Head
	// Tail is the last part of a compound.
	Tail
	// Fuge is a linking element between two parts.
	Fuge
)

func (k Kind) String() string {
	switch k {
	case Word:
		return "word"
	case Head:
		return "head"
	case Tail:
		return "tail"
	case Fuge:
		return "fuge"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is one part of a split word. Start and End are byte offsets.
type Token struct {
	Text       string
	Start, End int
	Kind       Kind
}

// Split breaks word into tokens covering it exactly.
func (d *Decompounder) Split(word string) []Token {
	offsets, cuts := d.split(word)
	if len(cuts) == 0 {
		return []Token{{Text: word, Start: 0, End: len(word), Kind: Word}}
	}
	tokens := make([]Token, 0, len(cuts)+1)
	from, kind := 0, Head
	for _, c := range cuts {
		pos := offsets[c.pos]
		tokens = append(tokens, Token{Text: word[from:pos], Start: from, End: pos, Kind: kind})
		from, kind = pos, Head
		if c.fuge {
			kind = Fuge
		}
	}
	tokens = append(tokens, Token{Text: word[from:], Start: from, End: len(word), Kind: Tail})
	return tokens
}
