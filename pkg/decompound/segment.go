package decompound

import (
	"math"
	"unicode/utf8"
)

// segment is a node of the parse tree built over the reversed compound.
// Segments live in the parse arena and refer to their parent by index.
type segment struct {
	start, end int
	rootStart  int
	fugeLen    int
	// root replaces compound[rootStart:end] when a fuge rule rebuilt it.
	root  string
	freq  float64
	flags uint32

	parent        int
	freqProduct   float64
	lengthProduct float64
	depth         int
	splits        int
	credibility   float64
	score         float64
}

func (s *segment) length() int {
	if s.root != "" {
		return utf8.RuneCountInString(s.root)
	}
	return s.end - s.rootStart
}

func (s *segment) has(flag uint32) bool {
	return s.flags&flag != 0
}

func (s *segment) setData(data uint32) {
	s.freq = float64(data & FreqMask)
	s.flags = data &^ FreqMask
}

func (s *segment) setRootAndFuge(root string, fugeLen int, data uint32) {
	s.root = root
	if fugeLen > 0 {
		s.rootStart = s.start + fugeLen
		s.fugeLen = fugeLen
	}
	s.setData(data)
}

// parse holds the state of one decompounding run.
type parse struct {
	d        *Decompounder
	compound []rune
	arena    []*segment
	leaves   []int

	visits    int
	exhausted bool
}

func (p *parse) lookup(key string) (uint32, bool) {
	return p.d.corpus.Lookup(key)
}

func (p *parse) newSegment(start, end, rootStart, fugeLen int) int {
	rootStart = min(rootStart, end)
	s := &segment{
		start:         start,
		end:           end,
		rootStart:     rootStart,
		fugeLen:       fugeLen,
		parent:        -1,
		freqProduct:   1,
		lengthProduct: 1,
	}
	if data, ok := p.lookup(string(p.compound[rootStart:end])); ok {
		s.setData(data)
	} else {
		s.freq = p.d.tuning.FallbackFreq
	}
	p.arena = append(p.arena, s)
	return len(p.arena) - 1
}

func (p *parse) clone(i int) int {
	c := *p.arena[i]
	p.arena = append(p.arena, &c)
	return len(p.arena) - 1
}

func (p *parse) tie(child, parent int) {
	c, pa := p.arena[child], p.arena[parent]
	length := c.length()
	c.parent = parent
	c.freqProduct = pa.freqProduct * c.freq
	c.lengthProduct = pa.lengthProduct * float64(length)
	c.depth = pa.depth + 1
	c.splits = pa.splits + 1
	if c.fugeLen >= 0 {
		c.splits++
	}
	c.credibility = pa.credibility + float64(length-p.d.tuning.ExpectedSegmentLength)
	if c.root != "" {
		c.credibility -= 0.5
	}
}

func (p *parse) score(s *segment) {
	s.score = math.Pow(s.freqProduct, 1/(float64(s.depth)*1.5))
}

func (p *parse) geometricMeanLength(s *segment) float64 {
	return math.Pow(s.lengthProduct, 1/float64(s.depth))
}

func (p *parse) arithmeticMeanLength(s *segment) float64 {
	return float64(len(p.compound)) / float64(s.depth)
}
