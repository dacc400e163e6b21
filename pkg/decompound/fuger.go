package decompound

import (
	"unicode/utf8"

	mapset "github.com/deckarep/golang-set/v2"
)

// fuger detaches linking elements from the front of reversed segments, which
// is the end of the part in reading order.
type fuger struct {
	fuges        mapset.Set[string]
	positive     mapset.Set[string]
	replaceable  mapset.Set[string]
	replacements []string
	negative     []string
	maxFugeLen   int

	minSegmentLength   int
	maxReplacementFreq float64
}

func newFuger(t Tuning) *fuger {
	f := &fuger{
		fuges:              mapset.NewThreadUnsafeSet[string](),
		positive:           mapset.NewThreadUnsafeSet[string](),
		replaceable:        mapset.NewThreadUnsafeSet[string](),
		minSegmentLength:   t.MinSegmentLength,
		maxReplacementFreq: t.MaxReplacementFreq,
	}
	for _, s := range t.Fuges.Positive {
		f.positive.Add(Reverse(s))
		f.maxFugeLen = max(f.maxFugeLen, utf8.RuneCountInString(s))
	}
	for _, s := range t.Fuges.Replaceable {
		f.replaceable.Add(Reverse(s))
		f.maxFugeLen = max(f.maxFugeLen, utf8.RuneCountInString(s))
	}
	f.fuges = f.positive.Union(f.replaceable)
	for _, s := range t.Fuges.Replacements {
		f.replacements = append(f.replacements, Reverse(s))
	}
	for _, s := range t.Fuges.Negative {
		f.negative = append(f.negative, Reverse(s))
	}
	return f
}

// acceptable reports whether root may stand alone: long enough, or flagged as
// a segment in the corpus.
func (f *fuger) acceptable(data uint32, root string) bool {
	return utf8.RuneCountInString(root) >= f.minSegmentLength || data&FlagSegment != 0
}

func (f *fuger) detach(p *parse, s *segment) {
	term := p.compound[s.start:s.end]
	termLen := len(term)
	if termLen < f.minSegmentLength {
		return
	}
	value := func(key string) (uint32, float64) {
		data, _ := p.lookup(key)
		return data, float64(data & FreqMask)
	}

	freq := s.freq
	var data uint32
	found := false
	for fugeLen := f.maxFugeLen; fugeLen > 0 && termLen >= fugeLen+f.minSegmentLength-1; fugeLen-- {
		root := string(term[fugeLen:])
		fuge := string(term[:fugeLen])
		hasFuge := true
		if f.fuges.Contains(fuge) {
			if f.positive.Contains(fuge) {
				rootData, rootFreq := value(root)
				success := false
				if rootFreq > freq && f.acceptable(rootData, root) {
					success, found = true, true
				}
				base := root
				for _, neg := range f.negative {
					cand := neg + base
					candData, candFreq := value(cand)
					if candFreq > freq && candFreq > rootFreq && f.acceptable(candData, cand) {
						root, rootData, rootFreq = cand, candData, candFreq
						success, found = true, true
					}
				}
				if success {
					data, freq = rootData, rootFreq
				}
			}
			if f.replaceable.Contains(fuge) && freq <= f.maxReplacementFreq {
				best := freq
				base := root
				for _, rep := range f.replacements {
					cand := rep + base
					candData, candFreq := value(cand)
					if candFreq > best {
						root, best, data = cand, candFreq, candData
						found = true
					}
				}
			}
		} else if s.length() >= f.minSegmentLength {
			best := freq
			for _, neg := range f.negative {
				cand := neg + string(term)
				candData, candFreq := value(cand)
				if candFreq > best && f.acceptable(candData, cand) {
					root, best, data = cand, candFreq, candData
					found, hasFuge = true, false
				}
			}
		}
		if found {
			if hasFuge {
				s.setRootAndFuge(root, fugeLen, data)
			} else {
				s.setRootAndFuge(root, -1, data)
			}
			return
		}
	}
}
